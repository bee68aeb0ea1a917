package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsServiceSolveCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveSolve(OutcomeSolved, 40*time.Millisecond)
	m.ObserveSolve(OutcomeDegraded, time.Second)
	m.ObserveSolve(OutcomeDegraded, time.Second)
	m.ObserveSearch(2, 120, 17)
	m.SetQueueDepth(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.solveTotal.WithLabelValues(OutcomeSolved)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.solveTotal.WithLabelValues(OutcomeDegraded)))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.meetingsPlaced))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.queueDepth))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "timetable_solve_duration_seconds_bucket"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveSolve(OutcomeTotal, time.Millisecond)
		m.ObserveSearch(1, 1, 1)
		m.SetQueueDepth(0)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("redis down")
}

func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis down")
}

func (failingCacheRepo) Delete(context.Context, ...string) error { return errors.New("redis down") }

func TestCacheServiceCountsHitsAndMisses(t *testing.T) {
	m := NewMetricsService()
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, m, time.Minute, zap.NewNop())
	ctx := context.Background()

	var out map[string]int
	assert.False(t, cache.Get(ctx, "k", &out))
	cache.Set(ctx, "k", map[string]int{"meetings": 18}, 0)
	require.True(t, cache.Get(ctx, "k", &out))
	assert.Equal(t, 18, out["meetings"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses))

	cache.Invalidate(ctx, "k")
	assert.False(t, repo.has("k"))
}

func TestCacheServiceSwallowsBackendErrors(t *testing.T) {
	cache := NewCacheService(failingCacheRepo{}, nil, time.Minute, zap.NewNop())
	ctx := context.Background()
	var out string
	assert.False(t, cache.Get(ctx, "k", &out))
	assert.NotPanics(t, func() {
		cache.Set(ctx, "k", "v", time.Minute)
		cache.Invalidate(ctx, "k")
	})

	var disabled *CacheService
	assert.False(t, disabled.Enabled())
	assert.False(t, disabled.Get(ctx, "k", &out))
}
