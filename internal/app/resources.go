package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

const (
	DefaultNearbyLimit = 10
	resourceKeyPrefix  = "resources:"
)

// NearbyFinder answers nearest-resource queries.
type NearbyFinder interface {
	Nearby(ctx context.Context, q domain.NearbyQuery) (domain.NearbyResult, error)
}

// patternDeleter is implemented by caches that can drop keys by glob.
type patternDeleter interface {
	DelPattern(ctx context.Context, pattern string) error
}

var EmergencyNumbers = map[string]domain.EmergencyNumber{
	"police":             {Number: "100", Name: "TN Police", Description: "Tamil Nadu Police Emergency"},
	"ambulance":          {Number: "108", Name: "Ambulance", Description: "Emergency Medical Services"},
	"national_emergency": {Number: "112", Name: "National Emergency", Description: "National Emergency Response"},
	"fire":               {Number: "101", Name: "Fire Service", Description: "Fire and Rescue Services"},
	"women_helpline":     {Number: "1091", Name: "Women Helpline", Description: "Women in Distress"},
	"child_helpline":     {Number: "1098", Name: "Child Helpline", Description: "Child Emergency Services"},
}

type ResourceService struct {
	repo     domain.ResourceRepository
	index    domain.ResourceIndex
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewResourceService serves from index when non-nil, otherwise from repo.
func NewResourceService(r domain.ResourceRepository, idx domain.ResourceIndex, c domain.Cache, ttl time.Duration) *ResourceService {
	return &ResourceService{repo: r, index: idx, cache: c, cacheTTL: ttl}
}

func nearbyKey(q domain.NearbyQuery) string {
	return fmt.Sprintf("%s%s:%.3f:%.3f:%g:%d:%t", resourceKeyPrefix, q.Kind, q.Lat, q.Lng, q.RadiusKm, q.Limit, q.Only24x7)
}

// Nearby returns up to q.Limit resources within q.RadiusKm sorted by distance.
// Count is the number inside the radius before the limit is applied.
func (s *ResourceService) Nearby(ctx context.Context, q domain.NearbyQuery) (domain.NearbyResult, error) {
	if !q.Kind.Valid() {
		return domain.NearbyResult{}, fmt.Errorf("%w: kind %q", domain.ErrInvalidInput, q.Kind)
	}
	if !domain.ValidCoords(q.Lat, q.Lng) {
		return domain.NearbyResult{}, domain.ErrInvalidCoordinates
	}
	if q.RadiusKm < 0 {
		return domain.NearbyResult{}, fmt.Errorf("%w: negative radius", domain.ErrInvalidInput)
	}
	if q.Limit <= 0 {
		q.Limit = DefaultNearbyLimit
	}

	key := nearbyKey(q)
	var out domain.NearbyResult
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	var err error
	if s.index != nil {
		out, err = s.index.Nearby(ctx, q)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(q.Kind)).Msg("index lookup failed; using database")
			out, err = s.fromRepo(ctx, q)
		}
	} else {
		out, err = s.fromRepo(ctx, q)
	}
	if err != nil {
		return domain.NearbyResult{}, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *ResourceService) fromRepo(ctx context.Context, q domain.NearbyQuery) (domain.NearbyResult, error) {
	var within *domain.Bounds
	if q.RadiusKm > 0 {
		b := domain.BoundsAround(q.Lat, q.Lng, q.RadiusKm)
		within = &b
	}
	rs, err := s.repo.ListResources(ctx, q.Kind, within)
	if err != nil {
		return domain.NearbyResult{}, fmt.Errorf("list %s: %w", q.Kind, err)
	}
	return rankNearby(rs, q), nil
}

func rankNearby(rs []domain.Resource, q domain.NearbyQuery) domain.NearbyResult {
	items := make([]domain.NearbyResource, 0, len(rs))
	for _, r := range rs {
		if q.Only24x7 && !r.Is24x7 {
			continue
		}
		d := domain.DistanceKm(q.Lat, q.Lng, r.Lat, r.Lng)
		if q.RadiusKm > 0 && d > q.RadiusKm {
			continue
		}
		items = append(items, domain.NearbyResource{Resource: r, DistanceKm: d})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DistanceKm < items[j].DistanceKm })

	out := domain.NearbyResult{Count: len(items)}
	if len(items) > q.Limit {
		items = items[:q.Limit]
	}
	for i := range items {
		items[i].DistanceKm = domain.RoundKm(items[i].DistanceKm)
	}
	out.Items = items
	return out
}

// SafeZones returns the nearest safe zones regardless of distance.
func (s *ResourceService) SafeZones(ctx context.Context, lat, lng float64) (domain.NearbyResult, error) {
	return s.Nearby(ctx, domain.NearbyQuery{Kind: domain.KindSafeZone, Lat: lat, Lng: lng, Limit: DefaultNearbyLimit})
}

func (s *ResourceService) Count(ctx context.Context, kind domain.ResourceKind) (int, error) {
	return s.repo.CountResources(ctx, kind)
}

// Invalidate drops every cached nearby result.
func (s *ResourceService) Invalidate(ctx context.Context) {
	invalidateResources(ctx, s.cache)
}

func invalidateResources(ctx context.Context, c domain.Cache) {
	if pd, ok := c.(patternDeleter); ok {
		if err := pd.DelPattern(ctx, resourceKeyPrefix+"*"); err != nil {
			log.Warn().Err(err).Msg("resource cache invalidation failed")
			return
		}
		observability.ObserveCache("resources", "del")
	}
}

// ContextSummary describes resource coverage and, when at is set, the three
// nearest police stations and 24x7 hospitals. Used to ground chat replies.
func (s *ResourceService) ContextSummary(ctx context.Context, at *domain.Coords) string {
	var b strings.Builder
	police, _ := s.Count(ctx, domain.KindPolice)
	hospitals, _ := s.Count(ctx, domain.KindHospital)
	fmt.Fprintf(&b, "Available Emergency Services in Tamil Nadu:\n- %d Police Stations in database\n- %d Hospitals in database\n", police, hospitals)
	if at == nil || !at.Valid() {
		return b.String()
	}
	if res, err := s.Nearby(ctx, domain.NearbyQuery{Kind: domain.KindPolice, Lat: at.Lat, Lng: at.Lng, Limit: 3}); err == nil && len(res.Items) > 0 {
		b.WriteString("\nNearest Police Stations:\n")
		for i, r := range res.Items {
			fmt.Fprintf(&b, "%d. %s - %s (%.2fkm away, Phone: %s)\n", i+1, r.Name, r.Address, r.DistanceKm, orNA(r.Phone))
		}
	}
	if res, err := s.Nearby(ctx, domain.NearbyQuery{Kind: domain.KindHospital, Lat: at.Lat, Lng: at.Lng, Limit: 3, Only24x7: true}); err == nil && len(res.Items) > 0 {
		b.WriteString("\nNearest Hospitals:\n")
		for i, r := range res.Items {
			fmt.Fprintf(&b, "%d. %s - %s (%.2fkm away, Emergency: %s)\n", i+1, r.Name, r.Address, r.DistanceKm, orNA(r.EmergencyPhone))
		}
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
