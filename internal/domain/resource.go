package domain

type ResourceKind string

const (
	KindPolice   ResourceKind = "police"
	KindHospital ResourceKind = "hospital"
	KindSafeZone ResourceKind = "safe_zone"
	KindHotel    ResourceKind = "hotel"
)

func (k ResourceKind) Valid() bool {
	switch k {
	case KindPolice, KindHospital, KindSafeZone, KindHotel:
		return true
	}
	return false
}

// Resource is an emergency or lodging point of interest.
type Resource struct {
	ID             string       `json:"id"`
	Kind           ResourceKind `json:"kind"`
	Name           string       `json:"name"`
	Address        string       `json:"address,omitempty"`
	City           string       `json:"city,omitempty"`
	District       string       `json:"district,omitempty"`
	State          string       `json:"state,omitempty"`
	Lat            float64      `json:"latitude"`
	Lng            float64      `json:"longitude"`
	Phone          string       `json:"phone,omitempty"`
	EmergencyPhone string       `json:"emergency_phone,omitempty"`
	Subtype        string       `json:"type,omitempty"` // station/hospital/zone type
	Is24x7         bool         `json:"is_24x7"`
	Description    string       `json:"description,omitempty"`
	Stars          *int         `json:"stars,omitempty"`
	Website        string       `json:"website,omitempty"`
	Source         string       `json:"source,omitempty"`
}

type NearbyResource struct {
	Resource
	DistanceKm float64 `json:"distance_km"`
}

type NearbyQuery struct {
	Kind     ResourceKind
	Lat, Lng float64
	RadiusKm float64 // 0 means unbounded
	Limit    int
	Only24x7 bool
}

type NearbyResult struct {
	Count int              `json:"count"`
	Items []NearbyResource `json:"items"`
}

type EmergencyNumber struct {
	Number      string `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Accommodation is a live lodging search hit.
type Accommodation struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	DistanceKm     float64  `json:"distance_km"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone,omitempty"`
	Stars          *int     `json:"stars,omitempty"`
	Website        string   `json:"website,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	SafetyVerified *bool    `json:"safety_verified"`
	Source         string   `json:"source"`
}
