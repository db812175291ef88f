package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	impl "github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/application/services"
	tmocks "github.com/mrgetwhateverdone/brandbuddy-production-sub000/test/mocks"
)

func TestRateLimiter_DeniesAboveLimit(t *testing.T) {
	count := 0
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, key string, window time.Duration, prefix string, ttl time.Duration) (int, time.Time, error) {
		require.Equal(t, "acme", key)
		require.Equal(t, "ratelimit:insights", prefix)
		require.Equal(t, 2*window, ttl)
		count++
		return count, start, nil
	}}
	svc := impl.NewRateLimiterService(repo, &impl.RateLimiterConfig{DefaultRequestsPerMinute: 2}, nil)

	ok, remaining, limit, reset, err := svc.Allow(context.Background(), " Acme ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, remaining)
	require.Equal(t, 2, limit)
	require.Equal(t, start.Add(time.Minute), reset)

	ok, _, _, _, _ = svc.Allow(context.Background(), "acme")
	require.True(t, ok)
	ok, remaining, _, _, _ = svc.Allow(context.Background(), "ACME")
	require.False(t, ok)
	require.Equal(t, 0, remaining)
}

func TestRateLimiter_PerKeyOverride(t *testing.T) {
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, key string, window time.Duration, prefix string, ttl time.Duration) (int, time.Time, error) {
		return 5, time.Now(), nil
	}}
	svc := impl.NewRateLimiterService(repo, &impl.RateLimiterConfig{DefaultRequestsPerMinute: 2, Overrides: map[string]int{"Globex": 10}}, nil)

	ok, _, limit, _, _ := svc.Allow(context.Background(), "globex")
	require.True(t, ok)
	require.Equal(t, 10, limit)

	ok, _, _, _, _ = svc.Allow(context.Background(), "acme")
	require.False(t, ok)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, key string, window time.Duration, prefix string, ttl time.Duration) (int, time.Time, error) {
		return 0, time.Now(), errors.New("redis down")
	}}
	svc := impl.NewRateLimiterService(repo, nil, nil)
	ok, _, _, _, err := svc.Allow(context.Background(), "acme")
	require.True(t, ok)
	require.Error(t, err)
}
