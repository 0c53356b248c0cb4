package analytics

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Gateway fetches raw metrics from the seller API.
type Gateway interface {
	Dashboard(ctx context.Context) (DashboardMetrics, error)
	Visitors(ctx context.Context, days int) ([]VisitorStat, error)
}

// Client is the subset of the upstream client the gateway needs.
type Client interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

type apiGateway struct {
	client Client
}

// NewGateway builds the seller API backed Gateway.
func NewGateway(client Client) Gateway {
	return &apiGateway{client: client}
}

func (g *apiGateway) Dashboard(ctx context.Context) (DashboardMetrics, error) {
	var metrics DashboardMetrics
	err := g.client.Do(ctx, http.MethodGet, "/analytics/admin/dashboard", nil, nil, &metrics)
	return metrics, err
}

func (g *apiGateway) Visitors(ctx context.Context, days int) ([]VisitorStat, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	var stats []VisitorStat
	err := g.client.Do(ctx, http.MethodGet, "/analytics/admin/visitors", q, nil, &stats)
	return stats, err
}

// Service coordinates metric fetches with the cache layer. Concurrent cache
// misses for the same key share one upstream call.
type Service struct {
	gateway Gateway
	cache   *Cache
	group   singleflight.Group
}

// NewService wires a Gateway with a Cache helper.
func NewService(gateway Gateway, cache *Cache) *Service {
	return &Service{gateway: gateway, cache: cache}
}

// Dashboard returns the headline metric cards, cached.
func (s *Service) Dashboard(ctx context.Context) (DashboardMetrics, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "dashboard")
	if err != nil {
		return DashboardMetrics{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var metrics DashboardMetrics
		err := s.cache.FetchJSON(ctx, key, &metrics, func(ctx context.Context) (any, error) {
			return s.gateway.Dashboard(ctx)
		})
		return metrics, err
	})
	if err != nil {
		return DashboardMetrics{}, err
	}
	return v.(DashboardMetrics), nil
}

// Visitors returns the daily traffic trend for the last days days, cached.
func (s *Service) Visitors(ctx context.Context, days int) ([]VisitorStat, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	key, err := s.cache.BuildKey(ctx, "analytics", "visitors", strconv.Itoa(days))
	if err != nil {
		return nil, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var stats []VisitorStat
		err := s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
			return s.gateway.Visitors(ctx, days)
		})
		return stats, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]VisitorStat), nil
}

// Invalidate drops every cached metric. Called after mutations that move
// the numbers, and by the scheduled warmup before it refills the cache.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warm refreshes the dashboard and the default visitor trend so the first
// page view after an invalidation never pays the upstream round trip.
func (s *Service) Warm(ctx context.Context) error {
	if _, err := s.Dashboard(ctx); err != nil {
		return err
	}
	_, err := s.Visitors(ctx, 30)
	return err
}
