package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

// Dispatcher relays SOS activations to the assigned police station.
type Dispatcher struct {
	sms domain.SMSSender
}

func NewDispatcher(sms domain.SMSSender) *Dispatcher { return &Dispatcher{sms: sms} }

func PoliceAlert(a domain.SOSAlert) string {
	return fmt.Sprintf("POLICE ALERT: SOS %s from user %s. Location: https://maps.google.com/?q=%v,%v",
		a.ID, a.UserID, a.Location.Lat, a.Location.Lng)
}

// Handle sends one SMS per activation. Resolutions and unknown events are only logged.
func (d *Dispatcher) Handle(ctx context.Context, e domain.SOSEvent) error {
	a := e.Alert
	switch e.Type {
	case domain.EventSOSActivated:
		if a.Police == nil || a.Police.Phone == "" {
			log.Warn().Str("sos_id", a.ID).Msg("no station phone; dispatch logged only")
			return nil
		}
		if err := d.sms.SendSMS(ctx, a.Police.Phone, PoliceAlert(a)); err != nil {
			return fmt.Errorf("dispatch %s: %w", a.ID, err)
		}
		observability.ObserveSOS("dispatched")
		log.Info().Str("sos_id", a.ID).Str("station", a.Police.Name).Msg("police alerted")
	case domain.EventSOSResolved:
		log.Info().Str("sos_id", a.ID).Msg("sos resolved")
	default:
		log.Debug().Str("type", e.Type).Msg("ignored event")
	}
	return nil
}
