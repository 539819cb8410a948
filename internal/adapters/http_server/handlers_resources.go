package httpserver

import (
	"math"
	"net/http"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

func nearbyQuery(r *http.Request, kind domain.ResourceKind) (domain.NearbyQuery, error) {
	lat, err := queryFloat(r, "lat", domain.DefaultLat)
	if err != nil {
		return domain.NearbyQuery{}, err
	}
	lng, err := queryFloat(r, "lng", domain.DefaultLng)
	if err != nil {
		return domain.NearbyQuery{}, err
	}
	radius, err := queryFloat(r, "radius", domain.DefaultRadiusKm)
	if err != nil {
		return domain.NearbyQuery{}, err
	}
	if math.IsInf(radius, 0) || math.IsNaN(radius) {
		return domain.NearbyQuery{}, domain.ErrInvalidInput
	}
	return domain.NearbyQuery{Kind: kind, Lat: lat, Lng: lng, RadiusKm: radius}, nil
}

// nearby serves a radius lookup under the given list key.
func (h *Handlers) nearby(kind domain.ResourceKind, listKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := nearbyQuery(r, kind)
		if err != nil {
			writeError(w, err, "")
			return
		}
		res, err := h.Resources.Nearby(r.Context(), q)
		if err != nil {
			writeError(w, err, "")
			return
		}
		writeCacheable(w, r, map[string]any{"success": true, "count": res.Count, listKey: nonNil(res.Items)})
	}
}

func (h *Handlers) safeZones(w http.ResponseWriter, r *http.Request) {
	q, err := nearbyQuery(r, domain.KindSafeZone)
	if err != nil {
		writeError(w, err, "")
		return
	}
	res, err := h.Resources.SafeZones(r.Context(), q.Lat, q.Lng)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeCacheable(w, r, map[string]any{"success": true, "count": res.Count, "safe_zones": nonNil(res.Items)})
}

func (h *Handlers) emergencyNumbers(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, r, map[string]any{"success": true, "emergency_numbers": app.EmergencyNumbers})
}

func nonNil(items []domain.NearbyResource) []domain.NearbyResource {
	if items == nil {
		return []domain.NearbyResource{}
	}
	return items
}
