// Package catalog refreshes the local warehouse and coefficient cache from
// the marketplace. Each refresh fetches first and only then writes, so no
// store lock is held during HTTP.
package catalog

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/wbcoef/wbcoef/core/logger"
	"github.com/wbcoef/wbcoef/internal/domain"
)

// Upstream is the subset of the marketplace client used here.
type Upstream interface {
	Warehouses(ctx context.Context, token string) ([]domain.Warehouse, error)
	Coefficients(ctx context.Context, token string, warehouseIDs ...uint32) ([]domain.Coefficient, error)
}

// Store receives the fetched records.
type Store interface {
	UpsertWarehouses(ctx context.Context, list []domain.Warehouse) error
	UpsertCoefficients(ctx context.Context, list []domain.Coefficient) error
}

// Service ties an upstream to a store.
type Service struct {
	api   Upstream
	store Store
}

func New(api Upstream, store Store) *Service {
	return &Service{api: api, store: store}
}

// RefreshWarehouses reloads the warehouse catalog using token.
func (s *Service) RefreshWarehouses(ctx context.Context, token string) error {
	start := time.Now()
	list, err := s.api.Warehouses(ctx, token)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	if err := s.store.UpsertWarehouses(ctx, list); err != nil {
		return err
	}
	logger.Catalog.LogAttrs(ctx, slog.LevelInfo, "warehouses refreshed",
		slog.String("event", "catalog.warehouses"),
		slog.Int("count", len(list)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// RefreshCoefficients reloads the slots of the given warehouses. A null
// upstream answer is returned as domain.ErrUpstreamEmpty.
func (s *Service) RefreshCoefficients(ctx context.Context, token string, warehouseIDs ...uint32) error {
	start := time.Now()
	list, err := s.api.Coefficients(ctx, token, warehouseIDs...)
	if err != nil {
		return err
	}
	if err := s.store.UpsertCoefficients(ctx, list); err != nil {
		return err
	}
	logger.Catalog.LogAttrs(ctx, slog.LevelInfo, "coefficients refreshed",
		slog.String("event", "catalog.coefficients"),
		slog.Any("warehouses", warehouseIDs),
		slog.Int("count", len(list)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
