package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"readify/models"
)

var (
	// ErrCartVersionConflict means the stored cart no longer has the version the caller read.
	ErrCartVersionConflict = errors.New("cart version conflict")
	// ErrCartContended means optimistic retries were exhausted.
	ErrCartContended = errors.New("cart is being modified concurrently")
)

const cartWriteAttempts = 3

// CartStore keeps carts as versioned JSON documents.
type CartStore interface {
	Get(ctx context.Context, accountID uuid.UUID) (*models.Cart, error)
	// Update applies fn to the stored cart and bumps its version. When expected is
	// non-nil and differs from the stored version, the current cart is returned
	// together with ErrCartVersionConflict and fn is not called.
	Update(ctx context.Context, accountID uuid.UUID, expected *int64, fn func(*models.Cart) error) (*models.Cart, error)

	GetIdempotency(ctx context.Context, accountID uuid.UUID, key string) (string, error)
	// ClaimIdempotency marks key as in progress; false means it was already claimed.
	ClaimIdempotency(ctx context.Context, accountID uuid.UUID, key string, ttl time.Duration) (bool, error)
	SetIdempotency(ctx context.Context, accountID uuid.UUID, key, orderID string, ttl time.Duration) error
	ReleaseIdempotency(ctx context.Context, accountID uuid.UUID, key string) error
}

// IdempotencyPending is stored while a checkout holding the key is still running.
const IdempotencyPending = "pending"

type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func cartKey(accountID uuid.UUID) string {
	return fmt.Sprintf("cart:user:%s", accountID)
}

func idemKey(accountID uuid.UUID, key string) string {
	return fmt.Sprintf("idem:checkout:%s:%s", accountID, key)
}

func (s *RedisCartStore) Get(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	return load(ctx, s.client, accountID)
}

func load(ctx context.Context, c redis.Cmdable, accountID uuid.UUID) (*models.Cart, error) {
	data, err := c.Get(ctx, cartKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.Cart{AccountID: accountID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("corrupt cart for %s: %w", accountID, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (s *RedisCartStore) Update(ctx context.Context, accountID uuid.UUID, expected *int64, fn func(*models.Cart) error) (*models.Cart, error) {
	key := cartKey(accountID)
	var result *models.Cart

	txf := func(tx *redis.Tx) error {
		cart, err := load(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if expected != nil && *expected != cart.Version {
			result = cart
			return ErrCartVersionConflict
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.Version++
		cart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(cart)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			result = cart
		}
		return err
	}

	for attempt := 0; attempt < cartWriteAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return result, err
		}
		if expected != nil {
			// Someone else wrote between our read and commit, so the caller's version is stale.
			current, loadErr := s.Get(ctx, accountID)
			if loadErr != nil {
				return nil, loadErr
			}
			return current, ErrCartVersionConflict
		}
	}
	return nil, ErrCartContended
}

func (s *RedisCartStore) GetIdempotency(ctx context.Context, accountID uuid.UUID, key string) (string, error) {
	val, err := s.client.Get(ctx, idemKey(accountID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *RedisCartStore) ClaimIdempotency(ctx context.Context, accountID uuid.UUID, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, idemKey(accountID, key), IdempotencyPending, ttl).Result()
}

func (s *RedisCartStore) SetIdempotency(ctx context.Context, accountID uuid.UUID, key, orderID string, ttl time.Duration) error {
	return s.client.Set(ctx, idemKey(accountID, key), orderID, ttl).Err()
}

func (s *RedisCartStore) ReleaseIdempotency(ctx context.Context, accountID uuid.UUID, key string) error {
	return s.client.Del(ctx, idemKey(accountID, key)).Err()
}
