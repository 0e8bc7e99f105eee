// Package callbacks encodes and decodes the "<action>.<payload>" tokens
// carried in inline button callback_data.
//
// The payload is escaped so it may contain any byte: '\' becomes "\\" and
// '.' becomes "\.". The first unescaped '.' in a token is the separator.
package callbacks

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Separator joins action and payload.
	Separator = '.'
	escape    = '\\'

	// MaxTokenBytes is Telegram's callback_data limit.
	MaxTokenBytes = 64
)

var (
	// ErrMalformedCallback matches every *MalformedCallbackError.
	ErrMalformedCallback = errors.New("callbacks: malformed token")
	// ErrTokenTooLong is returned by Encode when the token exceeds MaxTokenBytes.
	ErrTokenTooLong = errors.New("callbacks: token exceeds 64 bytes")
	// ErrInvalidAction is returned by Encode for an empty action or one containing '.' or '\'.
	ErrInvalidAction = errors.New("callbacks: invalid action")
)

// Action is a decoded button tap.
type Action struct {
	Code    string
	Payload string
}

// MalformedCallbackError describes a token that cannot be decoded.
type MalformedCallbackError struct {
	Token  string
	Reason string
}

func (e *MalformedCallbackError) Error() string {
	return fmt.Sprintf("callbacks: malformed token %q: %s", e.Token, e.Reason)
}

// Code is the stable identifier used in logs.
func (e *MalformedCallbackError) Code() string { return "MALFORMED_CALLBACK" }

// Is reports whether target is ErrMalformedCallback.
func (e *MalformedCallbackError) Is(target error) bool { return target == ErrMalformedCallback }

// Encode joins action and payload into a callback token.
// An empty payload still emits the separator.
func Encode(action, payload string) (string, error) {
	if action == "" || strings.ContainsAny(action, `.\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	var b strings.Builder
	b.Grow(len(action) + 1 + len(payload))
	b.WriteString(action)
	b.WriteByte(Separator)
	for i := 0; i < len(payload); i++ {
		if c := payload[i]; c == Separator || c == escape {
			b.WriteByte(escape)
		}
		b.WriteByte(payload[i])
	}
	if b.Len() > MaxTokenBytes {
		return "", fmt.Errorf("%w: %d bytes for action %q", ErrTokenTooLong, b.Len(), action)
	}
	return b.String(), nil
}

// Decode splits token on its first separator and unescapes the payload.
// The action is not checked against any vocabulary.
func Decode(token string) (Action, error) {
	code, rest, ok := strings.Cut(token, string(Separator))
	if !ok {
		return Action{}, &MalformedCallbackError{Token: token, Reason: "missing separator"}
	}
	if strings.IndexByte(code, escape) >= 0 {
		return Action{}, &MalformedCallbackError{Token: token, Reason: "escape in action"}
	}
	var b strings.Builder
	b.Grow(len(rest))
	for i := 0; i < len(rest); i++ {
		switch c := rest[i]; c {
		case escape:
			i++
			if i == len(rest) {
				return Action{}, &MalformedCallbackError{Token: token, Reason: "dangling escape"}
			}
			if rest[i] != Separator && rest[i] != escape {
				return Action{}, &MalformedCallbackError{Token: token, Reason: "unknown escape"}
			}
			b.WriteByte(rest[i])
		case Separator:
			return Action{}, &MalformedCallbackError{Token: token, Reason: "unescaped separator in payload"}
		default:
			b.WriteByte(c)
		}
	}
	return Action{Code: code, Payload: b.String()}, nil
}
