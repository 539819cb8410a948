package redisad_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "safeher_travel/internal/adapters/redis"
	"safeher_travel/internal/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestCache_MissSetHitDel(t *testing.T) {
	mr, c := newClient(t)
	cache := redisad.NewFromClient(c)
	ctx := context.Background()

	var out domain.NearbyResult
	ok, err := cache.Get(ctx, "k", &out)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := domain.NearbyResult{Count: 1, Items: []domain.NearbyResource{{
		Resource:   domain.Resource{ID: "ps_002", Name: "Egmore Police Station"},
		DistanceKm: 1.2,
	}}}
	if err := cache.Set(ctx, "k", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != 60*time.Second {
		t.Fatalf("expected 60s ttl, got %v", ttl)
	}

	ok, err = cache.Get(ctx, "k", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if out.Count != 1 || out.Items[0].Name != "Egmore Police Station" {
		t.Fatalf("unexpected cached value: %+v", out)
	}

	if err := cache.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("k") {
		t.Fatalf("key should be gone")
	}
}

func TestCache_DelPattern(t *testing.T) {
	mr, c := newClient(t)
	cache := redisad.NewFromClient(c)
	ctx := context.Background()

	for _, k := range []string{"nearby:police:a", "nearby:police:b", "nearby:hospital:a"} {
		if err := cache.Set(ctx, k, 1, 60); err != nil {
			t.Fatal(err)
		}
	}
	if err := cache.DelPattern(ctx, "nearby:police:*"); err != nil {
		t.Fatalf("del pattern: %v", err)
	}
	if mr.Exists("nearby:police:a") || mr.Exists("nearby:police:b") {
		t.Fatalf("police keys should be deleted")
	}
	if !mr.Exists("nearby:hospital:a") {
		t.Fatalf("hospital key should survive")
	}
}

func TestSessions_SOSRoundTripAndMissing(t *testing.T) {
	mr, c := newClient(t)
	s := redisad.NewSessions(c)
	ctx := context.Background()

	if _, err := s.GetSOS(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	a := domain.SOSAlert{ID: "sos-1", UserID: "u1", Status: domain.SOSActive, Location: domain.Coords{Lat: 13.07, Lng: 80.26}}
	if err := s.PutSOS(ctx, a); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ttl := mr.TTL("sos:session:sos-1"); ttl != 0 {
		t.Fatalf("active session should not expire, ttl=%v", ttl)
	}

	now := time.Now().UTC()
	a.Status, a.ResolvedAt = domain.SOSResolved, &now
	if err := s.PutSOS(ctx, a); err != nil {
		t.Fatalf("put resolved: %v", err)
	}
	if ttl := mr.TTL("sos:session:sos-1"); ttl <= 0 {
		t.Fatalf("resolved session should expire")
	}
	got, err := s.GetSOS(ctx, "sos-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.SOSResolved || got.ResolvedAt == nil {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestSessions_ShareExpires(t *testing.T) {
	mr, c := newClient(t)
	s := redisad.NewSessions(c)
	ctx := context.Background()

	sh := domain.LocationShare{ID: "sh-1", UserID: "u1", Contacts: []string{"+9100"}, DurationMinutes: 1, Active: true}
	if err := s.PutShare(ctx, sh, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.GetShare(ctx, "sh-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := s.GetShare(ctx, "sh-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired share, got %v", err)
	}
	if err := s.PutShare(ctx, sh, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero ttl, got %v", err)
	}
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	mr, c := newClient(t)
	bus := redisad.NewEventBus(c)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got := make(chan domain.SOSEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(ctx, func(_ context.Context, e domain.SOSEvent) error {
			got <- e
			return nil
		})
	}()

	// wait for the subscriber to register
	for mr.PubSubNumSub(redisad.SOSChannel)[redisad.SOSChannel] == 0 {
		select {
		case <-ctx.Done():
			t.Fatalf("subscriber never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ev := domain.SOSEvent{Type: domain.EventSOSActivated, Alert: domain.SOSAlert{ID: "sos-9"}}
	if err := bus.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case e := <-got:
		if e.Type != domain.EventSOSActivated || e.Alert.ID != "sos-9" {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-ctx.Done():
		t.Fatalf("event not delivered")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
