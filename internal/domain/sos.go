package domain

import "time"

type SOSStatus string

const (
	SOSActive   SOSStatus = "active"
	SOSResolved SOSStatus = "resolved"
)

type PoliceDispatch struct {
	Name       string  `json:"name"`
	Address    string  `json:"address,omitempty"`
	Phone      string  `json:"phone"`
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
}

type SOSActivation struct {
	UserID            string
	Location          Coords
	EmergencyContacts []string
	Email             string
}

type SOSAlert struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Location          Coords          `json:"location"`
	Status            SOSStatus       `json:"status"`
	EmergencyContacts []string        `json:"emergency_contacts,omitempty"`
	Police            *PoliceDispatch `json:"police_station,omitempty"`
	ActivatedAt       time.Time       `json:"activated_at"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
}

const (
	EventSOSActivated = "sos.activated"
	EventSOSResolved  = "sos.resolved"
)

type SOSEvent struct {
	Type  string    `json:"type"`
	Alert SOSAlert  `json:"alert"`
	At    time.Time `json:"at"`
}
