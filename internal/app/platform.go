package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"safeher_travel/internal/domain"
)

type ServiceStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Detail  string `json:"detail,omitempty"`
}

type Health struct {
	Status    string          `json:"status"` // healthy|degraded
	Database  string          `json:"database"`
	Police    int             `json:"police_stations"`
	Hospitals int             `json:"hospitals"`
	Services  []ServiceStatus `json:"services"`
	CheckedAt time.Time       `json:"checked_at"`
}

type Statistics struct {
	Users int `json:"total_users"`
	SOS   struct {
		Total    int `json:"total"`
		Resolved int `json:"resolved"`
		Active   int `json:"active"`
	} `json:"sos_alerts"`
	Police    int `json:"police_stations"`
	Hospitals int `json:"hospitals"`
	SafeZones int `json:"safe_zones"`
}

type PlatformService struct {
	db        domain.Pinger
	users     domain.UserRepository
	sos       domain.SOSRepository
	resources domain.ResourceRepository
	services  []ServiceStatus
}

// NewPlatformService reports the given service flags as configured at startup.
func NewPlatformService(db domain.Pinger, users domain.UserRepository, sos domain.SOSRepository,
	res domain.ResourceRepository, services []ServiceStatus) *PlatformService {
	return &PlatformService{db: db, users: users, sos: sos, resources: res, services: services}
}

func (s *PlatformService) Services() []ServiceStatus { return s.services }

func (s *PlatformService) Health(ctx context.Context) Health {
	h := Health{Status: "healthy", Database: "connected", Services: s.services, CheckedAt: time.Now().UTC()}
	if err := s.db.PingContext(ctx); err != nil {
		h.Status, h.Database = "degraded", "unreachable"
		return h
	}
	var err error
	if h.Police, err = s.resources.CountResources(ctx, domain.KindPolice); err != nil {
		h.Status = "degraded"
	}
	if h.Hospitals, err = s.resources.CountResources(ctx, domain.KindHospital); err != nil {
		h.Status = "degraded"
	}
	return h
}

func (s *PlatformService) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.Users, err = s.users.CountUsers(ctx); return })
	g.Go(func() (err error) { st.SOS.Total, st.SOS.Resolved, err = s.sos.CountAlerts(ctx); return })
	g.Go(func() (err error) { st.Police, err = s.resources.CountResources(ctx, domain.KindPolice); return })
	g.Go(func() (err error) { st.Hospitals, err = s.resources.CountResources(ctx, domain.KindHospital); return })
	g.Go(func() (err error) { st.SafeZones, err = s.resources.CountResources(ctx, domain.KindSafeZone); return })
	if err := g.Wait(); err != nil {
		return Statistics{}, err
	}
	st.SOS.Active = st.SOS.Total - st.SOS.Resolved
	return st, nil
}
