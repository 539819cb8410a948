// Package flow drives a one-shot hotel suggestion lookup from the caller's
// current position.
package flow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"safeher_travel/internal/domain"
)

var (
	ErrGeolocationUnsupported = errors.New("geolocation is not supported")
	ErrPermissionDenied       = errors.New("location permission denied")
)

const (
	locationErrorTitle   = "Location Error"
	locationErrorDefault = "Please enable location services to find nearby hotels."
	unsupportedText      = "Geolocation is not supported on this device."
	suggestErrorTitle    = "Suggestion Error"
	suggestErrorText     = "Could not fetch hotel suggestions. Please try again."
)

// Locator returns a single position fix.
type Locator interface {
	Locate(ctx context.Context) (domain.Coords, error)
}

type Suggester interface {
	HotelSuggestions(ctx context.Context, req domain.SuggestionRequest) (domain.SuggestionResponse, error)
}

type Notification struct {
	Title       string
	Description string
}

type Notifier interface {
	Error(n Notification)
}

type Flow struct {
	loc    Locator
	sugg   Suggester
	notify Notifier
}

func New(loc Locator, sugg Suggester, n Notifier) *Flow {
	return &Flow{loc: loc, sugg: sugg, notify: n}
}

// Run locates the caller once and asks for suggestions around that point.
// Every failure produces exactly one Error notification and no suggestions.
func (f *Flow) Run(ctx context.Context, concerns string) ([]domain.HotelSuggestion, error) {
	at, err := f.loc.Locate(ctx)
	if err == nil && !at.Valid() {
		err = domain.ErrInvalidCoordinates
	}
	if err != nil {
		desc := locationErrorDefault
		if errors.Is(err, ErrGeolocationUnsupported) {
			desc = unsupportedText
		}
		f.notify.Error(Notification{Title: locationErrorTitle, Description: desc})
		return nil, fmt.Errorf("locate: %w", err)
	}

	resp, err := f.sugg.HotelSuggestions(ctx, domain.SuggestionRequest{
		Latitude: at.Lat, Longitude: at.Lng, SafetyConcerns: concerns,
	}.Normalized())
	if err != nil {
		f.notify.Error(Notification{Title: suggestErrorTitle, Description: suggestErrorText})
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return resp.Suggestions, nil
}

// ---- locators ----

// StaticLocator answers with a fixed fix, or Err when set.
type StaticLocator struct {
	At  *domain.Coords
	Err error
}

func (s StaticLocator) Locate(context.Context) (domain.Coords, error) {
	if s.Err != nil {
		return domain.Coords{}, s.Err
	}
	if s.At == nil {
		return domain.Coords{}, ErrGeolocationUnsupported
	}
	return *s.At, nil
}

// EnvLocator reads SAFEHER_LAT and SAFEHER_LNG. SAFEHER_GEO_DENIED=true
// simulates a refused permission prompt.
type EnvLocator struct {
	Getenv func(string) string
}

func (e EnvLocator) Locate(context.Context) (domain.Coords, error) {
	get := e.Getenv
	if get == nil {
		get = os.Getenv
	}
	if v, _ := strconv.ParseBool(get("SAFEHER_GEO_DENIED")); v {
		return domain.Coords{}, ErrPermissionDenied
	}
	lat, lng := strings.TrimSpace(get("SAFEHER_LAT")), strings.TrimSpace(get("SAFEHER_LNG"))
	if lat == "" || lng == "" {
		return domain.Coords{}, ErrGeolocationUnsupported
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	lo, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return domain.Coords{}, domain.ErrInvalidCoordinates
	}
	return domain.Coords{Lat: la, Lng: lo}, nil
}

// ---- notifiers ----

// LogNotifier reports notifications through the global logger.
type LogNotifier struct{}

func (LogNotifier) Error(n Notification) {
	log.Error().Str("title", n.Title).Msg(n.Description)
}
