package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"safeher_travel/internal/adapters/elastic"
	"safeher_travel/internal/adapters/gemini"
	server "safeher_travel/internal/adapters/http_server"
	"safeher_travel/internal/adapters/notify"
	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/adapters/openai"
	"safeher_travel/internal/adapters/overpass"
	redisad "safeher_travel/internal/adapters/redis"
	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
	"safeher_travel/internal/shared"
	mysqlrepo "safeher_travel/internal/storage/mysql"
)

// model is what both generative backends provide.
type model interface {
	domain.SuggestionModel
	domain.ChatModel
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTELEndpoint, cfg.ServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing init failed")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)

	// redis
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; cache and sessions will fail until it returns")
	}
	sessions := redisad.NewSessions(cache.Client())
	events := redisad.NewEventBus(cache.Client())

	// optional geo index
	var index domain.ResourceIndex
	searchStatus := app.ServiceStatus{Name: "geo_search", Detail: "mysql bounding box"}
	if cfg.ElasticURL != "" {
		ix, err := elastic.New(cfg.ElasticURL, cfg.ElasticIndex)
		if err != nil {
			log.Warn().Err(err).Msg("elasticsearch disabled")
		} else {
			index = ix
			searchStatus = app.ServiceStatus{Name: "geo_search", Enabled: true, Detail: "elasticsearch"}
		}
	}

	// generative model
	m, modelStatus := buildModel(ctx, cfg)
	var sm domain.SuggestionModel
	var cm domain.ChatModel
	if m != nil {
		sm, cm = m, m
	}

	// notifications
	var sms domain.SMSSender = notify.LogSMS{}
	smsStatus := app.ServiceStatus{Name: "sms_alerts", Detail: "simulated"}
	if tw, err := notify.NewTwilioSMS(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom); err == nil {
		sms, smsStatus = tw, app.ServiceStatus{Name: "sms_alerts", Enabled: true, Detail: "twilio"}
	}
	var email domain.EmailSender = notify.LogEmail{}
	emailStatus := app.ServiceStatus{Name: "email_alerts", Detail: "simulated"}
	if sg, err := notify.NewSendGridEmail(cfg.SendGridKey, cfg.FromEmail); err == nil {
		email, emailStatus = sg, app.ServiceStatus{Name: "email_alerts", Enabled: true, Detail: "sendgrid"}
	}

	osm, err := overpass.New([]string{cfg.OverpassURL}, cfg.OverpassRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Overpass client")
	}

	// services
	resources := app.NewResourceService(repo, index, cache, cfg.CacheTTL)
	sos := app.NewSOSService(repo, sessions, resources, sms, email, events, cfg.SOSCountdown)
	chat := app.NewChatService(repo, cm, resources)
	suggestions := app.NewSuggestionService(sm, cfg.StrictSafety)
	users := app.NewUserService(repo, cfg.JWTSecret, cfg.JWTTTL)
	locations := app.NewLocationService(repo, sessions, sms, cfg.ShareBaseURL)
	community := app.NewCommunityService(repo, repo)
	accommodations := app.NewAccommodationService(osm)
	platform := app.NewPlatformService(repo, repo, repo, repo, []app.ServiceStatus{
		modelStatus, smsStatus, emailStatus, searchStatus,
	})

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		SOS:            sos,
		Chat:           chat,
		Resources:      resources,
		Suggestions:    suggestions,
		Users:          users,
		Locations:      locations,
		Community:      community,
		Accommodations: accommodations,
		Platform:       platform,
		Regions:        shared.RegionNames(),
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}

func buildModel(ctx context.Context, cfg shared.Config) (model, app.ServiceStatus) {
	st := app.ServiceStatus{Name: "ai_chatbot", Detail: "keyword fallback"}
	switch cfg.GenAIProvider {
	case "gemini":
		c, err := gemini.New(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.GenAIRPS)
		if err != nil {
			log.Warn().Err(err).Msg("gemini disabled")
			return nil, st
		}
		return c, app.ServiceStatus{Name: "ai_chatbot", Enabled: true, Detail: "gemini"}
	case "openai":
		c, err := openai.New(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBase, cfg.GenAIRPS)
		if err != nil {
			log.Warn().Err(err).Msg("openai disabled")
			return nil, st
		}
		return c, app.ServiceStatus{Name: "ai_chatbot", Enabled: true, Detail: "openai"}
	}
	return nil, st
}
