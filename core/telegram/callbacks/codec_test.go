package callbacks

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := []string{"", "c1", "X200", "v1.2", `back\slash`, "..", `\.`, "Телефон 5.5\""}
	for _, p := range payloads {
		token, err := Encode("product", p)
		if err != nil {
			t.Fatalf("encode %q: %v", p, err)
		}
		got, err := Decode(token)
		if err != nil {
			t.Fatalf("decode %q (token %q): %v", p, token, err)
		}
		if got.Code != "product" || got.Payload != p {
			t.Fatalf("round trip %q = %+v", p, got)
		}
	}
}

func TestEncodeWireFormat(t *testing.T) {
	cases := map[[2]string]string{
		{"category", "c1"}:  "category.c1",
		{"product", "X200"}: "product.X200",
		{"products", ""}:    "products.",
		{"product", "v1.2"}: `product.v1\.2`,
		{"product", `a\b`}:  `product.a\\b`,
	}
	for in, want := range cases {
		got, err := Encode(in[0], in[1])
		if err != nil {
			t.Fatalf("encode %v: %v", in, err)
		}
		if got != want {
			t.Fatalf("encode %v = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, token := range []string{"", "products", "product.a.b", `product.a\`, `product.\x`, `pro\duct.a`} {
		_, err := Decode(token)
		if !errors.Is(err, ErrMalformedCallback) {
			t.Fatalf("decode %q: err = %v, want malformed", token, err)
		}
		var mce *MalformedCallbackError
		if !errors.As(err, &mce) || mce.Token != token {
			t.Fatalf("decode %q: want *MalformedCallbackError, got %T", token, err)
		}
	}
}

func TestDecodeKeepsUnknownActions(t *testing.T) {
	got, err := Decode("teleport.mars")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != "teleport" || got.Payload != "mars" {
		t.Fatalf("decode = %+v", got)
	}
}

func TestEncodeRejects(t *testing.T) {
	for _, action := range []string{"", "a.b", `a\b`} {
		if _, err := Encode(action, "x"); !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("encode action %q: err = %v", action, err)
		}
	}
	if _, err := Encode("product", strings.Repeat("я", 29)); !errors.Is(err, ErrTokenTooLong) {
		t.Fatalf("expected ErrTokenTooLong, got %v", err)
	}
	if _, err := Encode("product", strings.Repeat("x", MaxTokenBytes-len("product."))); err != nil {
		t.Fatalf("token at the limit must encode: %v", err)
	}
}
