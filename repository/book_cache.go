package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"readify/models"
)

const (
	BookDetailPrefix    = "book:detail:"
	BookListPrefix      = "books:v:"
	BookCacheVersionKey = "books:version"
)

// CachedBookList is one cached page of a storefront listing.
type CachedBookList struct {
	Books []models.Book `json:"books"`
	Total int64         `json:"total"`
}

// BookCache caches catalog reads. Lists are keyed by a version that Invalidate bumps,
// so stale pages simply stop being addressed and expire by TTL.
type BookCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewBookCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *BookCache {
	return &BookCache{redis: client, ttl: ttl, logger: logger}
}

func (c *BookCache) GetDetail(ctx context.Context, slug string) (*models.Book, bool) {
	data, err := c.redis.Get(ctx, BookDetailPrefix+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("book cache read failed", zap.String("slug", slug), zap.Error(err))
		}
		return nil, false
	}
	var book models.Book
	if err := json.Unmarshal(data, &book); err != nil {
		c.logger.Warn("failed to unmarshal cached book", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}
	return &book, true
}

func (c *BookCache) SetDetail(ctx context.Context, book *models.Book) {
	data, err := json.Marshal(book)
	if err != nil {
		c.logger.Warn("failed to marshal book for cache", zap.String("slug", book.Slug), zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, BookDetailPrefix+book.Slug, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache book", zap.String("slug", book.Slug), zap.Error(err))
	}
}

func (c *BookCache) GetList(ctx context.Context, filter models.BookFilter) (*CachedBookList, bool) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, listKey(version, filter)).Bytes()
	if err != nil {
		return nil, false
	}
	var list CachedBookList
	if err := json.Unmarshal(data, &list); err != nil {
		c.logger.Warn("failed to unmarshal cached book list", zap.Error(err))
		return nil, false
	}
	return &list, true
}

func (c *BookCache) SetList(ctx context.Context, filter models.BookFilter, list *CachedBookList) {
	version, err := c.version(ctx)
	if err != nil {
		return
	}
	data, err := json.Marshal(list)
	if err != nil {
		c.logger.Warn("failed to marshal book list for cache", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, listKey(version, filter), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache book list", zap.Error(err))
	}
}

// Invalidate bumps the list version and drops the detail entries for slugs.
func (c *BookCache) Invalidate(ctx context.Context, slugs ...string) {
	if err := c.redis.Incr(ctx, BookCacheVersionKey).Err(); err != nil {
		c.logger.Error("failed to invalidate book list cache", zap.Error(err))
	}
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, BookDetailPrefix+s)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to delete cached books", zap.Strings("slugs", slugs), zap.Error(err))
	}
}

func (c *BookCache) version(ctx context.Context) (int64, error) {
	ver, err := c.redis.Get(ctx, BookCacheVersionKey).Int64()
	if err == nil {
		return ver, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}
	// SETNX so a concurrent Invalidate is never overwritten.
	if err := c.redis.SetNX(ctx, BookCacheVersionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	return c.redis.Get(ctx, BookCacheVersionKey).Int64()
}

func listKey(version int64, f models.BookFilter) string {
	category := f.CategorySlug
	if f.CategoryID != nil {
		category = f.CategoryID.String()
	}
	return fmt.Sprintf("%s%d:p:%d:l:%d:q:%s:c:%s:a:%s:s:%s:min:%s:max:%s:st:%s",
		BookListPrefix, version, f.Page, f.Limit, f.Query, category, f.Author, f.Sort,
		formatFloat(f.MinPrice), formatFloat(f.MaxPrice), f.Status)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
