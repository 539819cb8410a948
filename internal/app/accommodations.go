package app

import (
	"context"
	"fmt"
	"sort"

	"safeher_travel/internal/domain"
)

const DefaultAccommodationRadiusM = 5000

type AccommodationTips struct {
	BeforeBooking []string `json:"before_booking"`
	OnArrival     []string `json:"on_arrival"`
	RedFlags      []string `json:"red_flags"`
}

var AccommodationSafetyTips = AccommodationTips{
	BeforeBooking: []string{
		"Read recent reviews from solo female travelers",
		"Check the hotel location on the map, prefer well-lit main roads",
		"Verify 24/7 reception and security availability",
	},
	OnArrival: []string{
		"Check door locks, windows, and peephole",
		"Locate emergency exits",
		"Save reception number",
	},
	RedFlags: []string{
		"No visible security or CCTV",
		"Poorly lit entrances or corridors",
		"Isolated location with no nearby establishments",
	},
}

type AccommodationService struct {
	pois domain.POISource
}

func NewAccommodationService(p domain.POISource) *AccommodationService {
	return &AccommodationService{pois: p}
}

// Search queries live OSM hotels around a point, nearest first.
func (s *AccommodationService) Search(ctx context.Context, lat, lng float64, radiusM int) ([]domain.Accommodation, error) {
	if !domain.ValidCoords(lat, lng) {
		return nil, domain.ErrInvalidCoordinates
	}
	if radiusM <= 0 {
		radiusM = DefaultAccommodationRadiusM
	}
	els, err := s.pois.SearchPOIs(ctx, domain.KindHotel, lat, lng, radiusM)
	if err != nil {
		return nil, fmt.Errorf("search hotels: %w: %w", domain.ErrUpstream, err)
	}
	out := make([]domain.Accommodation, 0, len(els))
	seen := map[string]struct{}{}
	for _, el := range els {
		a, ok := mapAccommodation(el, lat, lng)
		if !ok {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}
