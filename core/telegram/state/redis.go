package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/mayak/orderbot/core/logger"
)

// RedisClient is the subset of Redis the store needs.
// Get reports a missing key with found == false.
type RedisClient interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	// Extend resets the lock's expiry to ttl while it still holds token.
	Extend(ctx context.Context, lockKey, token string, ttl time.Duration) (bool, error)
	// Commit writes value under key (nil deletes it) only while lockKey holds token.
	Commit(ctx context.Context, lockKey, token, key string, value []byte, ttl time.Duration) (bool, error)
	// CompareAndDelete deletes key only while it still holds token.
	CompareAndDelete(ctx context.Context, key, token string) error
}

// RedisOptions tune a RedisStore. Zero fields take defaults.
type RedisOptions struct {
	// Prefix namespaces keys; default "orderbot:state:".
	Prefix string
	// TTL expires idle values; 0 keeps them forever.
	TTL time.Duration
	// LockTTL bounds how long a crashed holder can block a chat; default 10s.
	// A live holder renews it every LockTTL/3.
	LockTTL time.Duration
	// LockWait bounds how long Update waits for the lock; default 5s.
	LockWait time.Duration
	// RetryInterval is the pause between lock attempts; default 25ms.
	RetryInterval time.Duration
}

// RedisStore keeps JSON-encoded values in Redis and locks chats with SET NX.
// It is safe to share one Redis between several bot replicas.
type RedisStore[T any] struct {
	cli  RedisClient
	opts RedisOptions
}

var _ Store[struct{}] = (*RedisStore[struct{}])(nil)

// NewRedisStore wraps cli.
func NewRedisStore[T any](cli RedisClient, opts RedisOptions) *RedisStore[T] {
	if opts.Prefix == "" {
		opts.Prefix = "orderbot:state:"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 5 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 25 * time.Millisecond
	}
	return &RedisStore[T]{cli: cli, opts: opts}
}

func (s *RedisStore[T]) valueKey(chatID int64) string {
	return s.opts.Prefix + strconv.FormatInt(chatID, 10)
}

func (s *RedisStore[T]) lockKey(chatID int64) string {
	return s.opts.Prefix + "lock:" + strconv.FormatInt(chatID, 10)
}

// redisLock is a held lock kept alive by a renewal goroutine until release.
type redisLock struct {
	key, token string
	stop       chan struct{}
	done       chan struct{}
	once       sync.Once
}

func (s *RedisStore[T]) lock(ctx context.Context, chatID int64) (*redisLock, error) {
	key := s.lockKey(chatID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.LockWait)
	defer cancel()

	attempts := 0
	for {
		attempts++
		ok, err := s.cli.SetNX(waitCtx, key, token, s.opts.LockTTL)
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("state: lock chat %d: %w", chatID, err)
		}
		if ok {
			if attempts > 1 {
				logger.Debug(ctx, "state", "lock.contended",
					slog.Int64("chat_id", chatID),
					slog.Int("attempts", attempts),
				)
			}
			l := &redisLock{key: key, token: token, stop: make(chan struct{}), done: make(chan struct{})}
			go s.renew(ctx, chatID, l)
			return l, nil
		}
		timer := time.NewTimer(s.opts.RetryInterval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: chat %d after %d attempts", ErrLockTimeout, chatID, attempts)
		case <-timer.C:
		}
	}
}

// renew extends l every LockTTL/3 until release, or until the lock turns out to be gone.
func (s *RedisStore[T]) renew(ctx context.Context, chatID int64, l *redisLock) {
	defer close(l.done)
	ticker := time.NewTicker(max(s.opts.LockTTL/3, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		extendCtx, cancel := context.WithTimeout(context.Background(), s.opts.LockTTL/3+time.Second)
		held, err := s.cli.Extend(extendCtx, l.key, l.token, s.opts.LockTTL)
		cancel()
		switch {
		case err != nil:
			logger.Warn(ctx, "state", "lock.extend_failed",
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
		case !held:
			logger.Warn(ctx, "state", "lock.lost", slog.Int64("chat_id", chatID))
			return
		}
	}
}

func (s *RedisStore[T]) release(ctx context.Context, chatID int64, l *redisLock) {
	l.once.Do(func() { close(l.stop) })
	<-l.done
	// the caller's ctx may already be cancelled
	unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cli.CompareAndDelete(unlockCtx, l.key, l.token); err != nil {
		logger.Warn(ctx, "state", "unlock.failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}

// commit writes value (nil deletes) while l is still held.
func (s *RedisStore[T]) commit(ctx context.Context, chatID int64, l *redisLock, value []byte) error {
	ok, err := s.cli.Commit(ctx, l.key, l.token, s.valueKey(chatID), value, s.opts.TTL)
	if err != nil {
		return fmt.Errorf("state: save chat %d: %w", chatID, err)
	}
	if !ok {
		return fmt.Errorf("%w: chat %d", ErrLockLost, chatID)
	}
	return nil
}

func (s *RedisStore[T]) load(ctx context.Context, chatID int64) (T, error) {
	var v T
	raw, found, err := s.cli.Get(ctx, s.valueKey(chatID))
	if err != nil {
		return v, fmt.Errorf("state: get chat %d: %w", chatID, err)
	}
	if !found {
		return v, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("state: decode chat %d: %w", chatID, err)
	}
	return v, nil
}

func (s *RedisStore[T]) Update(ctx context.Context, chatID int64, fn func(*T) error) error {
	l, err := s.lock(ctx, chatID)
	if err != nil {
		return err
	}
	defer s.release(ctx, chatID, l)

	v, err := s.load(ctx, chatID)
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	if isZero(&v) {
		return s.commit(ctx, chatID, l, nil)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode chat %d: %w", chatID, err)
	}
	return s.commit(ctx, chatID, l, data)
}

func (s *RedisStore[T]) Peek(ctx context.Context, chatID int64) (T, error) {
	return s.load(ctx, chatID)
}

func (s *RedisStore[T]) Delete(ctx context.Context, chatID int64) error {
	l, err := s.lock(ctx, chatID)
	if err != nil {
		return err
	}
	defer s.release(ctx, chatID, l)
	return s.commit(ctx, chatID, l, nil)
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

var luaExtend = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`)

// KEYS[1] lock, KEYS[2] value; ARGV[1] token, ARGV[2] "set"|"del", ARGV[3] value, ARGV[4] ttl ms.
var luaCommit = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
if ARGV[2] == "del" then
	redis.call("DEL", KEYS[2])
elseif tonumber(ARGV[4]) > 0 then
	redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[4])
else
	redis.call("SET", KEYS[2], ARGV[3])
end
return 1`)

// GoRedis adapts *redis.Client to RedisClient.
type GoRedis struct {
	cli *redis.Client
}

var _ RedisClient = (*GoRedis)(nil)

// NewGoRedis connects to addr and pings it.
func NewGoRedis(ctx context.Context, addr, password string, db int) (*GoRedis, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &GoRedis{cli: c}, nil
}

func (g *GoRedis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := g.cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (g *GoRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return g.cli.SetNX(ctx, key, value, ttl).Result()
}

func (g *GoRedis) Extend(ctx context.Context, lockKey, token string, ttl time.Duration) (bool, error) {
	n, err := luaExtend.Run(ctx, g.cli, []string{lockKey}, token, ttl.Milliseconds()).Int()
	return n == 1, err
}

func (g *GoRedis) Commit(ctx context.Context, lockKey, token, key string, value []byte, ttl time.Duration) (bool, error) {
	mode := "set"
	if value == nil {
		mode = "del"
	}
	n, err := luaCommit.Run(ctx, g.cli, []string{lockKey, key}, token, mode, value, ttl.Milliseconds()).Int()
	return n == 1, err
}

func (g *GoRedis) CompareAndDelete(ctx context.Context, key, token string) error {
	return luaUnlock.Run(ctx, g.cli, []string{key}, token).Err()
}

// Close releases the connection pool.
func (g *GoRedis) Close() error { return g.cli.Close() }
