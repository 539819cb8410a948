package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"safeher_travel/internal/domain"
)

const (
	DefaultShareMinutes = 60
	maxShareMinutes     = 24 * 60
	DefaultHistoryLimit = 100
	maxLocationHistory  = 1000
)

type Tracking struct {
	Share    domain.LocationShare  `json:"share_info"`
	Location *domain.LocationPoint `json:"location"`
}

type LocationService struct {
	repo    domain.LocationRepository
	shares  domain.ShareStore
	sms     domain.SMSSender
	baseURL string
	now     func() time.Time
}

func NewLocationService(r domain.LocationRepository, shares domain.ShareStore, sms domain.SMSSender, shareBaseURL string) *LocationService {
	return &LocationService{repo: r, shares: shares, sms: sms, baseURL: shareBaseURL, now: time.Now}
}

func (s *LocationService) Update(ctx context.Context, p domain.LocationPoint) (domain.LocationPoint, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return domain.LocationPoint{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if !domain.ValidCoords(p.Lat, p.Lng) {
		return domain.LocationPoint{}, domain.ErrInvalidCoordinates
	}
	if p.Accuracy < 0 {
		p.Accuracy = 0
	}
	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UTC()
	if err := s.repo.SaveLocation(ctx, p); err != nil {
		return domain.LocationPoint{}, fmt.Errorf("save location: %w", err)
	}
	return p, nil
}

func (s *LocationService) ShareLink(id string) string { return s.baseURL + id }

// Share starts a location share that expires after minutes (default 60)
// and texts the tracking link to every contact.
func (s *LocationService) Share(ctx context.Context, userID string, contacts []string, minutes int) (domain.LocationShare, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.LocationShare{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if minutes <= 0 {
		minutes = DefaultShareMinutes
	}
	if minutes > maxShareMinutes {
		return domain.LocationShare{}, fmt.Errorf("%w: duration above %d minutes", domain.ErrInvalidInput, maxShareMinutes)
	}
	now := s.now().UTC()
	sh := domain.LocationShare{
		ID:              uuid.NewString(),
		UserID:          userID,
		Contacts:        contacts,
		StartedAt:       now,
		DurationMinutes: minutes,
		ExpiresAt:       now.Add(time.Duration(minutes) * time.Minute),
		Active:          true,
	}
	if err := s.shares.PutShare(ctx, sh, time.Duration(minutes)*time.Minute); err != nil {
		return domain.LocationShare{}, fmt.Errorf("store share: %w", err)
	}

	msg := "Location sharing activated. Track here: " + s.ShareLink(sh.ID)
	for _, c := range contacts {
		if c = strings.TrimSpace(c); c == "" || s.sms == nil {
			continue
		}
		if err := s.sms.SendSMS(ctx, c, msg); err != nil {
			log.Warn().Err(err).Str("share_id", sh.ID).Msg("share sms failed")
		}
	}
	return sh, nil
}

// Track returns an active share with the user's latest known location, if any.
func (s *LocationService) Track(ctx context.Context, shareID string) (Tracking, error) {
	sh, err := s.shares.GetShare(ctx, shareID)
	if err != nil {
		return Tracking{}, err
	}
	out := Tracking{Share: sh}
	p, err := s.repo.LatestLocation(ctx, sh.UserID)
	switch {
	case err == nil:
		out.Location = &p
	case errors.Is(err, domain.ErrNotFound):
	default:
		return Tracking{}, fmt.Errorf("latest location: %w", err)
	}
	return out, nil
}

func (s *LocationService) History(ctx context.Context, userID string, limit int) ([]domain.LocationPoint, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > maxLocationHistory {
		limit = maxLocationHistory
	}
	return s.repo.LocationHistory(ctx, userID, limit)
}
