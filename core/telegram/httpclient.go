package telegram

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mayak/orderbot/core/logger"
	"github.com/mayak/orderbot/core/telegram/netutil"
)

// APIClientOptions shapes the HTTP client used for Bot API calls.
type APIClientOptions struct {
	// LongPoll is the getUpdates timeout; the request deadline is stretched past it.
	LongPoll time.Duration
	// Redials is the number of extra attempts after a transient network failure.
	Redials int
	// RedialStep grows linearly: step, 2*step, ...
	RedialStep time.Duration
}

const (
	apiDialTimeout   = 5 * time.Second
	apiHeaderTimeout = 5 * time.Second
	apiDeadlineSlack = 20 * time.Second
	apiRedials       = 3
	apiRedialStep    = 2 * time.Second
)

// NewAPIClient builds the client passed to telebot. Only dial and timeout
// failures are replayed, so a request the server may have seen is never sent twice.
func NewAPIClient(opts APIClientOptions) *http.Client {
	if opts.Redials <= 0 {
		opts.Redials = apiRedials
	}
	if opts.RedialStep <= 0 {
		opts.RedialStep = apiRedialStep
	}
	dialer := &net.Dialer{Timeout: apiDialTimeout, KeepAlive: 30 * time.Second}
	pool := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   apiDialTimeout,
		ExpectContinueTimeout: time.Second,
	}
	// getUpdates holds the response headers for the whole long-poll window
	if opts.LongPoll <= 0 {
		pool.ResponseHeaderTimeout = apiHeaderTimeout
	}
	return &http.Client{
		Timeout: opts.LongPoll + apiDeadlineSlack,
		Transport: &redialTransport{
			next:  pool,
			tries: opts.Redials + 1,
			step:  opts.RedialStep,
		},
	}
}

// redialTransport replays a request after transient network errors.
type redialTransport struct {
	next  http.RoundTripper
	tries int
	step  time.Duration
}

func (t *redialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	ctx := req.Context()
	for attempt := 1; ; attempt++ {
		resp, err := next.RoundTrip(req)
		if err == nil || attempt >= t.tries || !netutil.ShouldRetry(err) {
			return resp, err
		}
		replay, rerr := rewind(req)
		if rerr != nil {
			return nil, err
		}
		logger.TG.LogAttrs(ctx, slog.LevelDebug, "api.redial",
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		if err := pause(ctx, t.step*time.Duration(attempt)); err != nil {
			return nil, err
		}
		req = replay
	}
}

// rewind clones req with a fresh body; bodies without GetBody cannot be replayed.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, http.ErrBodyReadAfterClose
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
