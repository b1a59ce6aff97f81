package cart

import (
	"context"
	"time"

	"github.com/shopfront/storefront-backend/pkg/db/models"
)

// Store is the hash storage surface required by the cart service.
type Store interface {
	CartKey(token string) string
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetWithTTL(ctx context.Context, key, field string, value any, ttl time.Duration) error
	HDel(ctx context.Context, key string, fields ...string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type productLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}
