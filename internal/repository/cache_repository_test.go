package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, CacheKeyLatestReport, &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, RunCacheKey("abc"), map[string]string{"status": "done"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, CacheKeyLatestReport))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "timetable:run:abc", RunCacheKey("abc"))
}
