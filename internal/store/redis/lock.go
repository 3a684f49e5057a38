package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the pass lock.
var ErrLocked = errors.New("pass lock held by another daemon")

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PassLock is a held lock. Release it once the pass is over.
type PassLock struct {
	client *redis.Client
	token  string
}

// AcquirePassLock takes the pass lock for ttl. It returns ErrLocked when the
// lock is already held.
func (s *Store) AcquirePassLock(ctx context.Context, ttl time.Duration) (*PassLock, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, KeyPassLock, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire pass lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &PassLock{client: s.client, token: token}, nil
}

// Release frees the lock. Releasing a lock that expired and was taken by
// someone else is a no-op.
func (l *PassLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{KeyPassLock}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release pass lock: %w", err)
	}
	return nil
}
