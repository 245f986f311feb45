package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readify/models"
	"readify/repository"
)

func TestBookCache_DetailRoundTrip(t *testing.T) {
	client, mr := newRedis(t)
	cache := repository.NewBookCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := cache.GetDetail(ctx, "dune")
	assert.False(t, ok)

	cache.SetDetail(ctx, &models.Book{ID: uuid.New(), Slug: "dune", Title: "Dune"})
	got, ok := cache.GetDetail(ctx, "dune")
	require.True(t, ok)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, time.Minute, mr.TTL(repository.BookDetailPrefix+"dune"))
}

func TestBookCache_InvalidateBumpsListVersion(t *testing.T) {
	client, _ := newRedis(t)
	cache := repository.NewBookCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	filter := models.BookFilter{Status: models.BookActive, Page: 1, Limit: 10, Sort: models.SortNewest}
	cache.SetList(ctx, filter, &repository.CachedBookList{Books: []models.Book{{Slug: "dune"}}, Total: 1})

	list, ok := cache.GetList(ctx, filter)
	require.True(t, ok)
	assert.Equal(t, int64(1), list.Total)

	cache.SetDetail(ctx, &models.Book{Slug: "dune"})
	cache.Invalidate(ctx, "dune")

	_, ok = cache.GetList(ctx, filter)
	assert.False(t, ok, "list pages from the previous version are no longer addressed")
	_, ok = cache.GetDetail(ctx, "dune")
	assert.False(t, ok)
}

func TestBookCache_FiltersUseDistinctKeys(t *testing.T) {
	client, _ := newRedis(t)
	cache := repository.NewBookCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	min := 10.0
	a := models.BookFilter{Page: 1, Limit: 10}
	b := models.BookFilter{Page: 1, Limit: 10, MinPrice: &min}
	cache.SetList(ctx, a, &repository.CachedBookList{Total: 5})

	_, ok := cache.GetList(ctx, b)
	assert.False(t, ok)
}
