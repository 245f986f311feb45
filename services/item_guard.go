package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "readify/common/errors"
)

// Guard scopes.
const (
	GuardCart     = "cart"
	GuardWishlist = "wishlist"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ItemGuard rejects a second in-flight mutation of the same item by the same account.
type ItemGuard interface {
	Acquire(ctx context.Context, scope string, accountID, bookID uuid.UUID) (release func(), err error)
}

type RedisItemGuard struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisItemGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisItemGuard {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisItemGuard{redis: client, ttl: ttl, logger: logger}
}

func guardKey(scope string, accountID, bookID uuid.UUID) string {
	return fmt.Sprintf("guard:%s:%s:%s", scope, accountID, bookID)
}

// Acquire returns ErrItemBusy when another holder owns the key. The returned release
// only deletes the key while it still carries this holder's token.
func (g *RedisItemGuard) Acquire(ctx context.Context, scope string, accountID, bookID uuid.UUID) (func(), error) {
	key := guardKey(scope, accountID, bookID)
	token := uuid.NewString()

	ok, err := g.redis.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		g.logger.Error("Failed to acquire item guard", zap.String("key", key), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	if !ok {
		return nil, apperrors.ErrItemBusy
	}

	return func() {
		// the request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, g.redis, []string{key}, token).Err(); err != nil {
			g.logger.Warn("Failed to release item guard", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
