package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"safeher_travel/internal/domain"
)

const (
	sosKeyPrefix   = "sos:session:"
	shareKeyPrefix = "location:share:"
	// resolved sessions stay readable for a day
	resolvedSOSTTL = 24 * time.Hour
)

// Sessions stores live SOS sessions and location shares.
type Sessions struct{ c *redis.Client }

func NewSessions(c *redis.Client) *Sessions { return &Sessions{c: c} }

func (s *Sessions) PutSOS(ctx context.Context, a domain.SOSAlert) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	var ttl time.Duration // active sessions never expire
	if a.Status == domain.SOSResolved {
		ttl = resolvedSOSTTL
	}
	return s.c.Set(ctx, sosKeyPrefix+a.ID, b, ttl).Err()
}

func (s *Sessions) GetSOS(ctx context.Context, id string) (domain.SOSAlert, error) {
	var a domain.SOSAlert
	return a, s.getJSON(ctx, sosKeyPrefix+id, &a)
}

func (s *Sessions) PutShare(ctx context.Context, sh domain.LocationShare, ttl time.Duration) error {
	if ttl <= 0 {
		return domain.ErrInvalidInput
	}
	b, err := json.Marshal(sh)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, shareKeyPrefix+sh.ID, b, ttl).Err()
}

func (s *Sessions) GetShare(ctx context.Context, id string) (domain.LocationShare, error) {
	var sh domain.LocationShare
	return sh, s.getJSON(ctx, shareKeyPrefix+id, &sh)
}

func (s *Sessions) getJSON(ctx context.Context, key string, dst any) error {
	b, err := s.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
