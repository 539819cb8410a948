package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

type sosFixture struct {
	svc      *app.SOSService
	repo     *fakeSOSRepo
	sessions *fakeSessions
	sms      *fakeSender
	email    *fakeSender
	events   *fakePublisher
}

func newSOSFixture(stations ...domain.Resource) sosFixture {
	f := sosFixture{
		repo: newFakeSOSRepo(), sessions: newFakeSessions(),
		sms: &fakeSender{}, email: &fakeSender{}, events: &fakePublisher{},
	}
	res := app.NewResourceService(&fakeResources{rs: stations}, nil, nil, 0)
	f.svc = app.NewSOSService(f.repo, f.sessions, res, f.sms, f.email, f.events, 3)
	return f
}

func TestEstimateETA(t *testing.T) {
	assert.Equal(t, 3, app.EstimateETA(0))
	assert.Equal(t, 5, app.EstimateETA(1.4))
	assert.Equal(t, 15, app.EstimateETA(6))
	assert.Equal(t, 15, app.EstimateETA(40))
}

func TestActivate_DispatchesNearestStationAndNotifies(t *testing.T) {
	f := newSOSFixture(
		police("ps_002", "Egmore Police Station", 13.0732, 80.2609, "044-28447004"),
		police("ps_008", "Tambaram Police Station", 12.9249, 80.1000, "044-22260530"),
	)
	a, err := f.svc.Activate(context.Background(), domain.SOSActivation{
		UserID: "u1", Location: chennai, EmergencyContacts: []string{"+911", "+912", " "}, Email: "me@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.SOSActive, a.Status)
	require.NotNil(t, a.Police)
	assert.Equal(t, "Egmore Police Station", a.Police.Name)
	assert.Equal(t, app.EstimateETA(a.Police.DistanceKm), a.Police.ETAMinutes)

	assert.Equal(t, 2, f.sms.count())
	for _, m := range f.sms.sent {
		assert.Equal(t, "EMERGENCY ALERT: Your contact has activated SOS. Location: https://maps.google.com/?q=13.0827,80.2707", m.Body)
	}
	require.Equal(t, 1, f.email.count())
	assert.Equal(t, "SOS Alert Activated", f.email.sent[0].Subject)
	assert.Equal(t, []string{domain.EventSOSActivated}, f.events.types())

	stored, err := f.repo.GetAlert(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SOSActive, stored.Status)
}

func TestActivate_NoStationsFallsBack(t *testing.T) {
	f := newSOSFixture()
	a, err := f.svc.Activate(context.Background(), domain.SOSActivation{UserID: "u1", Location: chennai})
	require.NoError(t, err)
	assert.Equal(t, domain.PoliceDispatch{Name: "Emergency Dispatch", Phone: "100", DistanceKm: 0, ETAMinutes: 6}, *a.Police)
}

func TestActivate_NotificationFailureDoesNotFail(t *testing.T) {
	f := newSOSFixture()
	f.sms.err = errors.New("twilio down")
	_, err := f.svc.Activate(context.Background(), domain.SOSActivation{UserID: "u1", Location: chennai, EmergencyContacts: []string{"+911"}})
	assert.NoError(t, err)
}

func TestActivate_Validation(t *testing.T) {
	f := newSOSFixture()
	_, err := f.svc.Activate(context.Background(), domain.SOSActivation{Location: chennai})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.Activate(context.Background(), domain.SOSActivation{UserID: "u", Location: domain.Coords{Lat: 200}})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
}

func TestStatusAndDeactivate(t *testing.T) {
	f := newSOSFixture()
	ctx := context.Background()

	_, err := f.svc.Status(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Deactivate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	a, err := f.svc.Activate(ctx, domain.SOSActivation{UserID: "u1", Location: chennai})
	require.NoError(t, err)

	got, err := f.svc.Status(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SOSActive, got.Status)

	res, err := f.svc.Deactivate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SOSResolved, res.Status)
	require.NotNil(t, res.ResolvedAt)

	got, _ = f.svc.Status(ctx, a.ID)
	assert.Equal(t, domain.SOSResolved, got.Status)
	stored, _ := f.repo.GetAlert(ctx, a.ID)
	assert.Equal(t, domain.SOSResolved, stored.Status)
	assert.Equal(t, []string{domain.EventSOSActivated, domain.EventSOSResolved}, f.events.types())
}

func TestStatus_FallsBackToRepository(t *testing.T) {
	f := newSOSFixture()
	a := domain.SOSAlert{ID: "old", UserID: "u1", Status: domain.SOSResolved, ActivatedAt: time.Now()}
	require.NoError(t, f.repo.CreateAlert(context.Background(), a))

	got, err := f.svc.Status(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, domain.SOSResolved, got.Status)
}

func TestDeactivate_FallsBackToRepository(t *testing.T) {
	f := newSOSFixture()
	ctx := context.Background()
	a := domain.SOSAlert{ID: "no-session", UserID: "u1", Status: domain.SOSActive, ActivatedAt: time.Now()}
	require.NoError(t, f.repo.CreateAlert(ctx, a))

	got, err := f.svc.Status(ctx, "no-session")
	require.NoError(t, err)
	assert.Equal(t, domain.SOSActive, got.Status)

	res, err := f.svc.Deactivate(ctx, "no-session")
	require.NoError(t, err)
	assert.Equal(t, domain.SOSResolved, res.Status)

	stored, _ := f.repo.GetAlert(ctx, "no-session")
	assert.Equal(t, domain.SOSResolved, stored.Status)
	sess, err := f.sessions.GetSOS(ctx, "no-session")
	require.NoError(t, err)
	assert.Equal(t, domain.SOSResolved, sess.Status)
	assert.Equal(t, []string{domain.EventSOSResolved}, f.events.types())
}

func TestHistory_RequiresUser(t *testing.T) {
	f := newSOSFixture()
	_, err := f.svc.History(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// manualTicks hands each started countdown a channel the test controls.
type manualTicks struct {
	mu  sync.Mutex
	chs []chan time.Time
}

func (m *manualTicks) ticker(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time)
	m.chs = append(m.chs, ch)
	return ch, func() {}
}

func (m *manualTicks) last() chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chs[len(m.chs)-1]
}

func TestArm_TriggersActivation(t *testing.T) {
	f := newSOSFixture()
	ticks := &manualTicks{}
	f.svc.WithTicker(ticks.ticker)
	ctx := context.Background()

	st, err := f.svc.Arm(ctx, domain.SOSActivation{UserID: "u1", Location: chennai})
	require.NoError(t, err)
	assert.Equal(t, app.CountdownCounting, st.State)
	assert.Equal(t, 3, st.Remaining)

	ch := ticks.last()
	for i := 0; i < 3; i++ {
		ch <- time.Now()
	}
	require.Eventually(t, func() bool {
		s, _ := f.svc.ArmState(ctx, st.ID)
		return s.State == app.CountdownTriggered && s.SOSID != ""
	}, 2*time.Second, 10*time.Millisecond)

	s, _ := f.svc.ArmState(ctx, st.ID)
	_, err = f.svc.Status(ctx, s.SOSID)
	assert.NoError(t, err)
	assert.Equal(t, []string{domain.EventSOSActivated}, f.events.types())
}

func TestArm_CancelPreventsActivation(t *testing.T) {
	f := newSOSFixture()
	ticks := &manualTicks{}
	f.svc.WithTicker(ticks.ticker)
	ctx := context.Background()

	st, err := f.svc.Arm(ctx, domain.SOSActivation{UserID: "u1", Location: chennai})
	require.NoError(t, err)
	ticks.last() <- time.Now()

	cancelled, err := f.svc.CancelArm(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, app.CountdownIdle, cancelled.State)
	assert.Equal(t, 3, cancelled.Remaining)

	_, err = f.svc.CancelArm(ctx, st.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, f.events.types())

	_, err = f.svc.ArmState(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSOSMessage(t *testing.T) {
	msg := app.SOSMessage(domain.Coords{Lat: 12.5, Lng: 79.25})
	assert.True(t, strings.HasSuffix(msg, "?q=12.5,79.25"))
}
