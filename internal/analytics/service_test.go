package analytics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	dashboardCalls atomic.Int64
	visitorCalls   atomic.Int64
	metrics        DashboardMetrics
	stats          []VisitorStat
}

func (s *stubGateway) Dashboard(ctx context.Context) (DashboardMetrics, error) {
	s.dashboardCalls.Add(1)
	return s.metrics, nil
}

func (s *stubGateway) Visitors(ctx context.Context, days int) ([]VisitorStat, error) {
	s.visitorCalls.Add(1)
	return s.stats, nil
}

func newTestService(t *testing.T) (*Service, *stubGateway) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gateway := &stubGateway{
		metrics: DashboardMetrics{OrdersToday: 7, RevenueToday: 15400.50, VisitorsToday: 812},
		stats: []VisitorStat{
			{Date: "2026-03-01", Visitors: 812, Unique: 640, Orders: 7},
			{Date: "2026-02-28", Visitors: 755, Unique: 590, Orders: 5},
		},
	}
	return NewService(gateway, NewCache(rdb, time.Hour)), gateway
}

func TestDashboardServedFromCache(t *testing.T) {
	service, gateway := newTestService(t)
	ctx := context.Background()

	first, err := service.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, first.OrdersToday)

	second, err := service.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), gateway.dashboardCalls.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	service, gateway := newTestService(t)
	ctx := context.Background()

	_, err := service.Dashboard(ctx)
	require.NoError(t, err)

	gateway.metrics.OrdersToday = 9
	require.NoError(t, service.Invalidate(ctx))

	refreshed, err := service.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, refreshed.OrdersToday)
	assert.Equal(t, int64(2), gateway.dashboardCalls.Load())
}

func TestVisitorsClampsDayRange(t *testing.T) {
	service, gateway := newTestService(t)
	ctx := context.Background()

	stats, err := service.Visitors(ctx, -5)
	require.NoError(t, err)
	assert.Len(t, stats, 2)

	// -5 and 400 both normalise to the 30 day default, so the second call
	// lands on the same cache key.
	_, err = service.Visitors(ctx, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gateway.visitorCalls.Load())
}

func TestWarmPopulatesBothKeys(t *testing.T) {
	service, gateway := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.Warm(ctx))
	assert.Equal(t, int64(1), gateway.dashboardCalls.Load())
	assert.Equal(t, int64(1), gateway.visitorCalls.Load())

	_, err := service.Dashboard(ctx)
	require.NoError(t, err)
	_, err = service.Visitors(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gateway.dashboardCalls.Load())
	assert.Equal(t, int64(1), gateway.visitorCalls.Load())
}
