package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"safeher_travel/internal/adapters/notify"
	"safeher_travel/internal/adapters/observability"
	redisad "safeher_travel/internal/adapters/redis"
	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
	"safeher_travel/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	var sms domain.SMSSender = notify.LogSMS{}
	if tw, err := notify.NewTwilioSMS(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom); err == nil {
		sms = tw
	} else {
		log.Warn().Err(err).Msg("twilio disabled; police alerts are logged only")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	bus := redisad.NewEventBus(cache.Client())
	d := app.NewDispatcher(sms)

	log.Info().Str("channel", redisad.SOSChannel).Msg("dispatcher subscribed")
	if err := bus.Subscribe(ctx, d.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("subscription failed")
	}
	log.Info().Msg("dispatcher stopped")
}
