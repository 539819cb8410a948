package domain

import "math"

const earthRadiusKm = 6371.0

// Default lookup centre (Chennai Central) and radius used when a caller omits them.
const (
	DefaultLat      = 13.0827
	DefaultLng      = 80.2707
	DefaultRadiusKm = 10.0
)

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coords) Valid() bool { return ValidCoords(c.Lat, c.Lng) }

func ValidCoords(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// DistanceKm is the haversine great-circle distance.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// RoundKm rounds to two decimals.
func RoundKm(km float64) float64 { return math.Round(km*100) / 100 }

type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundsAround approximates a lat/lng box enclosing radiusKm around a point.
func BoundsAround(lat, lng, radiusKm float64) Bounds {
	latKm := 110.574
	lngKm := 111.320 * math.Cos(lat*math.Pi/180)
	dLat := radiusKm / latKm
	dLng := 180.0
	if lngKm > 1e-9 {
		dLng = radiusKm / lngKm
	}
	return Bounds{MinLat: lat - dLat, MaxLat: lat + dLat, MinLng: lng - dLng, MaxLng: lng + dLng}
}
