package telegram

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/mayak/orderbot/core/config"
)

func noop(tele.Context) error { return nil }

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok || lp.Timeout != 10*time.Second {
		t.Fatalf("expected default long poller, got %#v", lp)
	}
	wh, ok := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example/hook"},
	}).(*tele.Webhook)
	if !ok {
		t.Fatal("expected webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://bot.example/hook" {
		t.Fatalf("unexpected webhook %#v", wh)
	}
}

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", Command{Description: "start", Handler: noop})
	reg.RegisterCommand("/start", Command{Description: "dup", Handler: noop})
	reg.RegisterCommand("help", Command{Description: "no slash", Handler: noop})
	reg.RegisterCommand("/contacts", Command{Description: "contacts", Handler: noop, Aliases: []string{"info"}})
	reg.RegisterCommand("/debug", Command{Description: "debug", Handler: noop, Hidden: true})

	if n := len(reg.Commands()); n != 3 {
		t.Fatalf("registered %d commands, want 3", n)
	}
	list := reg.ListCommands(true)
	if len(list) != 2 || list[0].Text != "contacts" || list[1].Text != "start" {
		t.Fatalf("visible commands = %#v", list)
	}
	if key, _, ok := reg.LookupCommand("/start@mayak_bot"); !ok || key != "/start" {
		t.Fatalf("lookup with bot suffix = %q %v", key, ok)
	}
	if key, _, ok := reg.LookupCommand("/info"); !ok || key != "/contacts" {
		t.Fatalf("alias lookup = %q %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("/missing"); ok {
		t.Fatal("unexpected lookup hit")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("product", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("product", noop); err == nil {
		t.Fatal("duplicate registration must fail")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("empty action must fail")
	}
	if _, ok := reg.GetCallback("product"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "product" {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler must be set")
	}
}

type fakeCommandSetter struct {
	got []tele.Command
	err error
}

func (f *fakeCommandSetter) SetCommands(opts ...interface{}) error {
	if len(opts) > 0 {
		f.got, _ = opts[0].([]tele.Command)
	}
	return f.err
}

func TestInitBotCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", Command{Description: "start", Handler: noop})
	setter := &fakeCommandSetter{}
	InitBotCommands(setter, reg)
	if len(setter.got) != 1 || setter.got[0].Text != "start" {
		t.Fatalf("published %#v", setter.got)
	}
	InitBotCommands(&fakeCommandSetter{err: errors.New("boom")}, reg)
}

type flakyTransport struct {
	calls atomic.Int32
	fails int32
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.calls.Add(1) <= f.fails {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestRedialTransportRetriesTransientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base := &flakyTransport{fails: 2}
	client := &http.Client{Transport: &redialTransport{next: base, tries: 4, step: time.Millisecond}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got := base.calls.Load(); got != 3 {
		t.Fatalf("round trips = %d, want 3", got)
	}
}

func TestRedialTransportGivesUpOnPermanentErrors(t *testing.T) {
	base := &failingTransport{err: errors.New("tls: bad certificate")}
	client := &http.Client{Transport: &redialTransport{next: base, tries: 4, step: time.Millisecond}}
	if _, err := client.Get("http://example.invalid"); err == nil {
		t.Fatal("expected error")
	}
	if got := base.calls.Load(); got != 1 {
		t.Fatalf("round trips = %d, want 1", got)
	}
}

type failingTransport struct {
	calls atomic.Int32
	err   error
}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, f.err
}

func TestNewAPIClientStretchesDeadline(t *testing.T) {
	client := NewAPIClient(APIClientOptions{LongPoll: 10 * time.Second})
	if client.Timeout <= 10*time.Second {
		t.Fatalf("timeout %v does not cover long poll", client.Timeout)
	}
	rt, ok := client.Transport.(*redialTransport)
	if !ok || rt.tries != apiRedials+1 || rt.step != apiRedialStep {
		t.Fatalf("unexpected transport %#v", client.Transport)
	}
}

func TestSenderOptions(t *testing.T) {
	opts := SenderOptions(coreconfig.SenderConfig{QueueSize: 8, Workers: 2, MaxRetries: 1, RetryBackoffMS: 250})
	if opts.QueueSize != 8 || opts.Workers != 2 || opts.MaxRetries != 1 || opts.RetryBackoff != 250*time.Millisecond {
		t.Fatalf("unexpected options %#v", opts)
	}
	if got := longPollSeconds(0); got != defaultLongPollSeconds {
		t.Fatalf("default long poll = %d", got)
	}
}
