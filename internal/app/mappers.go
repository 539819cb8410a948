package app

import (
	"fmt"
	"strconv"
	"strings"

	"safeher_travel/internal/domain"
)

/********** alias registries (single source of truth) **********/

var resourceAliases = map[string][]string{
	"name":            {"tags.name:en", "tags.name", "tags.official_name", "tags.name:ta"},
	"phone":           {"tags.phone", "tags.contact:phone", "tags.contact:mobile"},
	"emergency_phone": {"tags.emergency:phone", "tags.phone", "tags.contact:phone"},
	"website":         {"tags.website", "tags.contact:website", "tags.url"},
	"city":            {"tags.addr:city", "tags.addr:town", "tags.is_in:city", "tags.addr:district"},
	"district":        {"tags.addr:district", "tags.addr:city"},
	"state":           {"tags.addr:state", "tags.is_in:state"},
	"subtype":         {"tags.police", "tags.healthcare:speciality", "tags.operator:type", "tags.amenity", "tags.tourism"},
	"description":     {"tags.description", "tags.note"},
	"hours":           {"tags.opening_hours"},
}

// addressParts are composed in order when no addr:full tag is present.
var addressParts = []string{
	"tags.addr:housenumber", "tags.addr:street", "tags.addr:suburb", "tags.addr:city", "tags.addr:state",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, sep)
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0" or "4S").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			s = strings.TrimRightFunc(s, func(r rune) bool { return r < '0' || r > '9' })
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

/********** element mapper **********/

// elementID is stable across ingests: osm_<type>_<id>.
func elementID(el map[string]any) string {
	id := firstInt64Flexible(el, "id")
	if id == nil {
		return ""
	}
	typ := lookupStr(el, "type")
	if typ == "" {
		typ = "node"
	}
	return fmt.Sprintf("osm_%s_%d", typ, *id)
}

// elementCoords prefers node coordinates, then the way/relation center.
func elementCoords(el map[string]any) (float64, float64, bool) {
	lat := getFloatFlexible(el, "lat", "center.lat")
	lng := getFloatFlexible(el, "lon", "center.lon")
	if lat == nil || lng == nil || !domain.ValidCoords(*lat, *lng) {
		return 0, 0, false
	}
	return *lat, *lng, true
}

func elementAddress(el map[string]any) string {
	parts := make([]string, 0, len(addressParts))
	for _, p := range addressParts {
		parts = append(parts, lookupStr(el, p))
	}
	if a := joinNonEmpty(", ", parts...); a != "" {
		return a
	}
	return lookupStr(el, "tags.addr:full")
}

func elementStars(el map[string]any) *int {
	if f := getFloatFlexible(el, "tags.stars"); f != nil && *f > 0 {
		x := int(*f)
		return &x
	}
	return nil
}

// mapElement converts one Overpass element. Unnamed or unlocated elements are skipped.
func mapElement(kind domain.ResourceKind, el map[string]any) (domain.Resource, bool) {
	name := firstNonEmptyAlias(el, resourceAliases, "name")
	id := elementID(el)
	lat, lng, ok := elementCoords(el)
	if name == "" || id == "" || !ok {
		return domain.Resource{}, false
	}

	hours := firstNonEmptyAlias(el, resourceAliases, "hours")
	r := domain.Resource{
		ID:          id,
		Kind:        kind,
		Name:        name,
		Address:     elementAddress(el),
		City:        firstNonEmptyAlias(el, resourceAliases, "city"),
		District:    firstNonEmptyAlias(el, resourceAliases, "district"),
		State:       firstNonEmptyAlias(el, resourceAliases, "state"),
		Lat:         lat,
		Lng:         lng,
		Phone:       firstNonEmptyAlias(el, resourceAliases, "phone"),
		Subtype:     firstNonEmptyAlias(el, resourceAliases, "subtype"),
		Description: firstNonEmptyAlias(el, resourceAliases, "description"),
		Website:     firstNonEmptyAlias(el, resourceAliases, "website"),
		Source:      "osm",
	}
	if r.State == "" {
		r.State = "Tamil Nadu"
	}
	switch kind {
	case domain.KindHospital:
		r.EmergencyPhone = firstNonEmptyAlias(el, resourceAliases, "emergency_phone")
		r.Is24x7 = hours == "" || hours == "24/7"
	case domain.KindPolice:
		r.Is24x7 = hours == "" || hours == "24/7"
	case domain.KindHotel:
		r.Stars = elementStars(el)
		r.Is24x7 = hours == "24/7"
	default:
		r.Is24x7 = hours == "24/7"
	}
	return r, true
}

func mapElements(kind domain.ResourceKind, els []map[string]any) []domain.Resource {
	out := make([]domain.Resource, 0, len(els))
	seen := make(map[string]struct{}, len(els))
	for _, el := range els {
		r, ok := mapElement(kind, el)
		if !ok {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

/********** accommodation mapper **********/

// mapAccommodation marks a hotel safety-verified at 3 stars or more; unknown stars stay nil.
func mapAccommodation(el map[string]any, fromLat, fromLng float64) (domain.Accommodation, bool) {
	r, ok := mapElement(domain.KindHotel, el)
	if !ok {
		return domain.Accommodation{}, false
	}
	a := domain.Accommodation{
		ID:         r.ID,
		Name:       r.Name,
		Lat:        r.Lat,
		Lng:        r.Lng,
		DistanceKm: domain.RoundKm(domain.DistanceKm(fromLat, fromLng, r.Lat, r.Lng)),
		Address:    r.Address,
		Phone:      r.Phone,
		Stars:      r.Stars,
		Website:    r.Website,
		Rating:     getFloatFlexible(el, "tags.rating"),
		Source:     "OpenStreetMap",
	}
	if r.Stars != nil {
		v := *r.Stars >= 3
		a.SafetyVerified = &v
	}
	return a, true
}
