package state

import (
	"context"
	"sync"
)

type chatLock struct {
	ch   chan struct{}
	refs int
}

// MemoryStore is a process-local Store.
type MemoryStore[T any] struct {
	mu     sync.Mutex
	locks  map[int64]*chatLock
	values map[int64]T
}

var _ Store[struct{}] = (*MemoryStore[struct{}])(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		locks:  make(map[int64]*chatLock),
		values: make(map[int64]T),
	}
}

// lock takes the chat's lock, waiting until ctx is done.
func (s *MemoryStore[T]) lock(ctx context.Context, chatID int64) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &chatLock{ch: make(chan struct{}, 1)}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, chatID)
		}
		s.mu.Unlock()
	}

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			release()
		}, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}

func (s *MemoryStore[T]) Update(ctx context.Context, chatID int64, fn func(*T) error) error {
	unlock, err := s.lock(ctx, chatID)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	v := s.values[chatID]
	s.mu.Unlock()

	if err := fn(&v); err != nil {
		return err
	}

	s.mu.Lock()
	if isZero(&v) {
		delete(s.values, chatID)
	} else {
		s.values[chatID] = v
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore[T]) Peek(_ context.Context, chatID int64) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[chatID], nil
}

func (s *MemoryStore[T]) Delete(ctx context.Context, chatID int64) error {
	unlock, err := s.lock(ctx, chatID)
	if err != nil {
		return err
	}
	defer unlock()
	s.mu.Lock()
	delete(s.values, chatID)
	s.mu.Unlock()
	return nil
}

// Len reports how many chats currently hold a value.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
