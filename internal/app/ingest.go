package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"safeher_travel/internal/domain"
)

// IngestKinds are fetched from Overpass for every region.
var IngestKinds = []domain.ResourceKind{domain.KindPolice, domain.KindHospital, domain.KindHotel}

type IngestionService struct {
	pois  domain.POISource
	repo  domain.ResourceRepository
	index domain.ResourceIndex
	cache domain.Cache
}

// NewIngestionService accepts nil index and cache.
func NewIngestionService(p domain.POISource, r domain.ResourceRepository, idx domain.ResourceIndex, cache domain.Cache) *IngestionService {
	return &IngestionService{pois: p, repo: r, index: idx, cache: cache}
}

// IngestRegion pulls every IngestKinds kind around a region centre.
// Known misses are logged and skipped; other errors stop the region.
func (s *IngestionService) IngestRegion(ctx context.Context, region string, lat, lng float64, radiusM int) (int, error) {
	total := 0
	for _, kind := range IngestKinds {
		n, err := s.IngestKind(ctx, region, kind, lat, lng, radiusM)
		if err != nil {
			return total, fmt.Errorf("%s/%s: %w", region, kind, err)
		}
		total += n
	}
	return total, nil
}

func (s *IngestionService) IngestKind(ctx context.Context, region string, kind domain.ResourceKind, lat, lng float64, radiusM int) (int, error) {
	els, err := s.pois.SearchPOIs(ctx, kind, lat, lng, radiusM)
	if err != nil {
		if status, reason, miss := classifyMiss(err); miss {
			_ = s.repo.LogMiss(ctx, region, kind, status, reason)
			return 0, nil
		}
		return 0, err
	}

	rs := mapElements(kind, els)
	if len(rs) == 0 {
		_ = s.repo.LogMiss(ctx, region, kind, 204, "no named elements")
		return 0, nil
	}
	for i := range rs {
		if rs[i].City == "" {
			rs[i].City = region
		}
		if rs[i].District == "" {
			rs[i].District = region
		}
	}
	if err := s.store(ctx, rs); err != nil {
		return 0, err
	}
	log.Info().Str("region", region).Str("kind", string(kind)).Int("count", len(rs)).Msg("ingested")
	return len(rs), nil
}

// Seed loads a curated resource list.
func (s *IngestionService) Seed(ctx context.Context, rs []domain.Resource) error {
	return s.store(ctx, rs)
}

func (s *IngestionService) store(ctx context.Context, rs []domain.Resource) error {
	if err := s.repo.UpsertResources(ctx, rs); err != nil {
		return fmt.Errorf("upsert resources: %w", err)
	}
	if s.index != nil {
		if err := s.index.IndexResources(ctx, rs); err != nil {
			log.Warn().Err(err).Int("count", len(rs)).Msg("index resources failed")
		}
	}
	if s.cache != nil {
		invalidateResources(ctx, s.cache)
	}
	return nil
}

// classifyMiss maps 404/401/403 upstream errors to a miss log entry.
func classifyMiss(err error) (int, string, bool) {
	low := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found"):
		return 404, "not found", true
	case strings.Contains(low, "403") || strings.Contains(low, "forbidden"):
		return 403, "forbidden", true
	case strings.Contains(low, "401") || strings.Contains(low, "unauthorized"):
		return 401, "unauthorized", true
	}
	return 0, "", false
}
