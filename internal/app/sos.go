package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

const (
	maxSOSHistory   = 50
	notifyParallel  = 8
	activateTimeout = 30 * time.Second
	armRetention    = 10 * time.Minute
)

// fallbackDispatch is used when no police station is known.
var fallbackDispatch = domain.PoliceDispatch{Name: "Emergency Dispatch", Phone: "100", DistanceKm: 0, ETAMinutes: 6}

// EstimateETA is 3 minutes plus 2 per km, capped at 15.
func EstimateETA(km float64) int {
	eta := 3 + int(km*2)
	if eta > 15 {
		eta = 15
	}
	return eta
}

func SOSMessage(loc domain.Coords) string {
	return fmt.Sprintf("EMERGENCY ALERT: Your contact has activated SOS. Location: https://maps.google.com/?q=%v,%v", loc.Lat, loc.Lng)
}

type SOSService struct {
	repo     domain.SOSRepository
	sessions domain.SOSSessionStore
	police   NearbyFinder
	sms      domain.SMSSender
	email    domain.EmailSender
	events   domain.EventPublisher
	now      func() time.Time

	countdown int
	ticker    TickerFunc
	mu        sync.Mutex
	arms      map[string]*arm
}

type arm struct {
	ID      string
	Request domain.SOSActivation
	cd      *Countdown
	alertID string
	created time.Time
}

// ArmState is the public view of an armed countdown.
type ArmState struct {
	ID        string         `json:"arm_id"`
	State     CountdownState `json:"state"`
	Remaining int            `json:"remaining"`
	SOSID     string         `json:"sos_id,omitempty"`
}

func NewSOSService(repo domain.SOSRepository, sessions domain.SOSSessionStore, police NearbyFinder,
	sms domain.SMSSender, email domain.EmailSender, events domain.EventPublisher, countdownSeconds int) *SOSService {
	return &SOSService{
		repo: repo, sessions: sessions, police: police, sms: sms, email: email, events: events,
		now: time.Now, countdown: countdownSeconds, ticker: realTicker, arms: map[string]*arm{},
	}
}

// WithTicker replaces the countdown ticker. Tests drive countdowns with it.
func (s *SOSService) WithTicker(tf TickerFunc) *SOSService {
	s.ticker = tf
	return s
}

func (s *SOSService) Activate(ctx context.Context, in domain.SOSActivation) (domain.SOSAlert, error) {
	ctx, span := observability.Tracer().Start(ctx, "SOSService.Activate")
	defer span.End()

	if strings.TrimSpace(in.UserID) == "" {
		return domain.SOSAlert{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if !in.Location.Valid() {
		return domain.SOSAlert{}, domain.ErrInvalidCoordinates
	}

	dispatch := s.nearestPolice(ctx, in.Location)
	a := domain.SOSAlert{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		Location:          in.Location,
		Status:            domain.SOSActive,
		EmergencyContacts: in.EmergencyContacts,
		Police:            &dispatch,
		ActivatedAt:       s.now().UTC(),
	}
	span.SetAttributes(attribute.String("sos.id", a.ID))

	if err := s.repo.CreateAlert(ctx, a); err != nil {
		return domain.SOSAlert{}, fmt.Errorf("persist sos: %w", err)
	}
	if err := s.sessions.PutSOS(ctx, a); err != nil {
		log.Warn().Err(err).Str("sos_id", a.ID).Msg("sos session not stored")
	}

	s.notify(ctx, a, in.Email)

	if s.events != nil {
		if err := s.events.Publish(ctx, domain.SOSEvent{Type: domain.EventSOSActivated, Alert: a, At: a.ActivatedAt}); err != nil {
			log.Warn().Err(err).Str("sos_id", a.ID).Msg("sos event not published")
		}
	}
	observability.ObserveSOS("activated")
	log.Info().Str("sos_id", a.ID).Str("user_id", a.UserID).Str("police", dispatch.Name).Msg("sos activated")
	return a, nil
}

func (s *SOSService) nearestPolice(ctx context.Context, at domain.Coords) domain.PoliceDispatch {
	if s.police == nil {
		return fallbackDispatch
	}
	res, err := s.police.Nearby(ctx, domain.NearbyQuery{Kind: domain.KindPolice, Lat: at.Lat, Lng: at.Lng, Limit: 1})
	if err != nil {
		log.Warn().Err(err).Msg("nearest police lookup failed")
		return domain.PoliceDispatch{Name: "Emergency Services", Phone: "100", ETAMinutes: 6}
	}
	if len(res.Items) == 0 {
		return fallbackDispatch
	}
	p := res.Items[0]
	phone := p.Phone
	if phone == "" {
		phone = "100"
	}
	return domain.PoliceDispatch{
		Name: p.Name, Address: p.Address, Phone: phone,
		DistanceKm: p.DistanceKm, ETAMinutes: EstimateETA(p.DistanceKm),
	}
}

// notify fans out to contacts; failures are logged and never returned.
func (s *SOSService) notify(ctx context.Context, a domain.SOSAlert, email string) {
	var g errgroup.Group
	g.SetLimit(notifyParallel)
	msg := SOSMessage(a.Location)
	for _, c := range a.EmergencyContacts {
		c := strings.TrimSpace(c)
		if c == "" || s.sms == nil {
			continue
		}
		g.Go(func() error {
			if err := s.sms.SendSMS(ctx, c, msg); err != nil {
				log.Warn().Err(err).Str("sos_id", a.ID).Msg("sos sms failed")
			}
			return nil
		})
	}
	if email != "" && s.email != nil {
		g.Go(func() error {
			body := fmt.Sprintf("Your SOS alert has been activated. Help is on the way. Location: https://maps.google.com/?q=%v,%v",
				a.Location.Lat, a.Location.Lng)
			if err := s.email.SendEmail(ctx, email, "SOS Alert Activated", body); err != nil {
				log.Warn().Err(err).Str("sos_id", a.ID).Msg("sos email failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Status prefers the live session and falls back to the stored alert.
func (s *SOSService) Status(ctx context.Context, id string) (domain.SOSAlert, error) {
	a, err := s.sessions.GetSOS(ctx, id)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Str("sos_id", id).Msg("sos session lookup failed")
	}
	return s.repo.GetAlert(ctx, id)
}

// Deactivate resolves the alert. An alert whose session was never stored
// or has expired is resolved from the stored copy.
func (s *SOSService) Deactivate(ctx context.Context, id string) (domain.SOSAlert, error) {
	a, err := s.Status(ctx, id)
	if err != nil {
		return domain.SOSAlert{}, err
	}
	if a.Status == domain.SOSResolved {
		return a, nil
	}
	at := s.now().UTC()
	a.Status = domain.SOSResolved
	a.ResolvedAt = &at

	if err := s.repo.ResolveAlert(ctx, id, at); err != nil {
		return domain.SOSAlert{}, fmt.Errorf("resolve sos: %w", err)
	}
	if err := s.sessions.PutSOS(ctx, a); err != nil {
		log.Warn().Err(err).Str("sos_id", id).Msg("sos session not updated")
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, domain.SOSEvent{Type: domain.EventSOSResolved, Alert: a, At: at}); err != nil {
			log.Warn().Err(err).Str("sos_id", id).Msg("sos event not published")
		}
	}
	observability.ObserveSOS("resolved")
	return a, nil
}

func (s *SOSService) History(ctx context.Context, userID string) ([]domain.SOSAlert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	return s.repo.ListAlerts(ctx, userID, maxSOSHistory)
}

// Arm starts a countdown that activates SOS when it reaches zero.
func (s *SOSService) Arm(ctx context.Context, in domain.SOSActivation) (ArmState, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return ArmState{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if !in.Location.Valid() {
		return ArmState{}, domain.ErrInvalidCoordinates
	}
	a := &arm{ID: uuid.NewString(), Request: in, created: s.now()}
	a.cd = newCountdown(s.countdown, func() { s.fire(a) }, time.Second, s.ticker)

	s.mu.Lock()
	s.pruneArmsLocked()
	s.arms[a.ID] = a
	s.mu.Unlock()

	if err := a.cd.Start(); err != nil {
		return ArmState{}, err
	}
	observability.ObserveSOS("armed")
	return s.view(a), nil
}

func (s *SOSService) fire(a *arm) {
	observability.ObserveSOS("triggered")
	ctx, cancel := context.WithTimeout(context.Background(), activateTimeout)
	defer cancel()
	alert, err := s.Activate(ctx, a.Request)
	if err != nil {
		log.Error().Err(err).Str("arm_id", a.ID).Msg("armed sos activation failed")
		return
	}
	s.mu.Lock()
	a.alertID = alert.ID
	s.mu.Unlock()
}

func (s *SOSService) CancelArm(_ context.Context, id string) (ArmState, error) {
	a, err := s.getArm(id)
	if err != nil {
		return ArmState{}, err
	}
	if err := a.cd.Cancel(); err != nil {
		return ArmState{}, err
	}
	observability.ObserveSOS("cancelled")
	return s.view(a), nil
}

func (s *SOSService) ArmState(_ context.Context, id string) (ArmState, error) {
	a, err := s.getArm(id)
	if err != nil {
		return ArmState{}, err
	}
	return s.view(a), nil
}

// pruneArmsLocked drops finished countdowns older than armRetention.
func (s *SOSService) pruneArmsLocked() {
	cutoff := s.now().Add(-armRetention)
	for id, a := range s.arms {
		if a.created.Before(cutoff) && a.cd.State() != CountdownCounting {
			delete(s.arms, id)
		}
	}
}

func (s *SOSService) getArm(id string) (*arm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.arms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *SOSService) view(a *arm) ArmState {
	s.mu.Lock()
	alertID := a.alertID
	s.mu.Unlock()
	return ArmState{ID: a.ID, State: a.cd.State(), Remaining: a.cd.Remaining(), SOSID: alertID}
}
