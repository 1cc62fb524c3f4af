package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/user/card-scraper/internal/repository"
	"github.com/user/card-scraper/pkg/utils"
)

const runLockPrefix = "cardscraper:lock:"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLockImpl provides a concrete implementation for the RunLock interface using Redis.
type RunLockImpl struct {
	client *redis.Client
}

var _ repository.RunLock = (*RunLockImpl)(nil)

// NewRunLock creates a new instance of RunLockImpl.
func NewRunLock(client *redis.Client) *RunLockImpl {
	return &RunLockImpl{client: client}
}

// generateKey creates a consistent Redis key for a lock name by hashing it.
func (r *RunLockImpl) generateKey(key string) string {
	return fmt.Sprintf("%s%s", runLockPrefix, utils.HashURL(key))
}

// Acquire sets the lock key with SET NX so only one run can hold it until ttl passes.
func (r *RunLockImpl) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.generateKey(key), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return "", repository.ErrRunInProgress
	}
	return token, nil
}

// Release removes the lock if it is still ours. An expired or stolen lock is left alone.
func (r *RunLockImpl) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.generateKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}
