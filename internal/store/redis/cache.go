package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

//nolint:gochecknoglobals // process-wide collectors
var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evolutech_records_cache_lookups_total",
		Help: "Records page cache lookups by table and result (hit or miss).",
	}, []string{"table", "result"})
	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evolutech_records_cache_invalidations_total",
		Help: "Records cache version bumps by table.",
	}, []string{"table"})
)

// VersionKey holds the current cache generation for one company table.
func VersionKey(companyID uuid.UUID, table string) string {
	return "records:" + companyID.String() + ":" + table + ":ver"
}

// PageKey addresses one cached list page within a cache generation.
func PageKey(companyID uuid.UUID, table string, version int64, queryKey string) string {
	return "records:" + companyID.String() + ":" + table + ":" + strconv.FormatInt(version, 10) + ":" + queryKey
}

// Version returns the table's cache generation. A missing key is generation 0.
func (s *Store) Version(ctx context.Context, companyID uuid.UUID, table string) (int64, error) {
	v, err := s.client.Get(ctx, VersionKey(companyID, table)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis.Store.Version: %w", err)
	}
	return v, nil
}

// GetPage returns a cached page body, or ok=false on a miss.
func (s *Store) GetPage(ctx context.Context, companyID uuid.UUID, table string, version int64, queryKey string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, PageKey(companyID, table, version, queryKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheLookups.WithLabelValues(table, "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis.Store.GetPage: %w", err)
	}
	cacheLookups.WithLabelValues(table, "hit").Inc()
	return data, true, nil
}

// SetPage stores a page body under the given generation with the store TTL.
func (s *Store) SetPage(ctx context.Context, companyID uuid.UUID, table string, version int64, queryKey string, data []byte) error {
	if err := s.client.Set(ctx, PageKey(companyID, table, version, queryKey), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("redis.Store.SetPage: %w", err)
	}
	return nil
}

// Bump advances the table's generation so every cached page of the previous
// generation is unreachable. Old pages expire on their own TTL.
func (s *Store) Bump(ctx context.Context, companyID uuid.UUID, table string) error {
	if err := s.client.Incr(ctx, VersionKey(companyID, table)).Err(); err != nil {
		return fmt.Errorf("redis.Store.Bump: %w", err)
	}
	cacheInvalidations.WithLabelValues(table).Inc()
	return nil
}
