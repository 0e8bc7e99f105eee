package state

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a chat lock could not be taken in time.
var ErrLockTimeout = errors.New("state: chat lock wait timed out")

// ErrLockLost is returned when a chat lock expired or was taken over before
// the update could be saved. The update is discarded.
var ErrLockLost = errors.New("state: chat lock lost before commit")

// Store holds one T per chat id.
type Store[T any] interface {
	// Update runs fn on the chat's current value under the chat's lock.
	// A chat without a value starts from the zero T. The value fn leaves
	// behind is saved only when fn returns nil.
	Update(ctx context.Context, chatID int64, fn func(*T) error) error
	// Peek returns the current value without locking.
	Peek(ctx context.Context, chatID int64) (T, error)
	// Delete drops the chat's value.
	Delete(ctx context.Context, chatID int64) error
}

// Zeroer is implemented by values that can report they carry nothing worth
// storing. Stores drop such values instead of saving them.
type Zeroer interface {
	IsZero() bool
}

func isZero[T any](v *T) bool {
	z, ok := any(v).(Zeroer)
	return ok && z.IsZero()
}
