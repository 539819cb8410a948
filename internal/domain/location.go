package domain

import "time"

type LocationPoint struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Lat       float64   `json:"latitude"`
	Lng       float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	CreatedAt time.Time `json:"created_at"`
}

type LocationShare struct {
	ID              string    `json:"share_id"`
	UserID          string    `json:"user_id"`
	Contacts        []string  `json:"contacts"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
	ExpiresAt       time.Time `json:"expires_at"`
	Active          bool      `json:"active"`
}
