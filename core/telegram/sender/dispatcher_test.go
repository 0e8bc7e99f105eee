package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/core/logger"
)

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 128})
	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 40; i++ {
		chat := int64(100 + i%3)
		ctx := logger.WithChatID(context.Background(), chat)
		n := i
		if err := d.Enqueue(ctx, "send.text", "sendMessage", func() error {
			mu.Lock()
			got[chat] = append(got[chat], n)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	d.Close()

	for chat, seq := range got {
		for i := 1; i < len(seq); i++ {
			if seq[i] < seq[i-1] {
				t.Fatalf("chat %d out of order: %v", chat, seq)
			}
		}
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestDispatcherDoesNotRetryClientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	})
	d.Close()
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	block := func() error { close(started); <-release; return nil }
	if err := d.Enqueue(context.Background(), "a", "", block); err != nil {
		t.Fatalf("first: %v", err)
	}
	<-started
	_ = d.Enqueue(context.Background(), "b", "", func() error { return nil })
	err := d.Enqueue(context.Background(), "c", "", func() error { return nil })
	close(release)
	d.Close()
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}

func TestDispatcherChatJobWaitsForRoomInOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueWait: 5 * time.Second})
	ctx := logger.WithChatID(context.Background(), 42)
	release := make(chan struct{})
	started := make(chan struct{})
	var (
		mu  sync.Mutex
		got []string
	)
	record := func(name string) func() error {
		return func() error {
			mu.Lock()
			got = append(got, name)
			mu.Unlock()
			return nil
		}
	}
	if err := d.Enqueue(ctx, "a", "", func() error { close(started); <-release; return record("a")() }); err != nil {
		t.Fatalf("a: %v", err)
	}
	<-started
	if err := d.Enqueue(ctx, "b", "", record("b")); err != nil {
		t.Fatalf("b: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Enqueue(ctx, "c", "", record("c")) }()
	select {
	case err := <-done:
		t.Fatalf("c returned before the shard had room: %v", err)
	case <-time.After(30 * time.Millisecond):
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("c: %v", err)
	}
	d.Close()

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", got)
	}
}

func TestDispatcherChatJobGivesUpAfterWait(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueWait: 20 * time.Millisecond})
	ctx := logger.WithChatID(context.Background(), 7)
	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(ctx, "a", "", func() error { close(started); <-release; return nil })
	<-started
	_ = d.Enqueue(ctx, "b", "", func() error { return nil })

	start := time.Now()
	err := d.Enqueue(ctx, "c", "", func() error { return nil })
	waited := time.Since(start)
	close(release)
	d.Close()
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if waited < 20*time.Millisecond {
		t.Fatalf("gave up after %v, want at least the enqueue wait", waited)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	msg := sanitizeErrorMessage(errors.New(`Post "https://api.telegram.org/bot123:ABC-def/sendMessage": timeout`))
	if msg != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("sanitized = %q", msg)
	}
}
