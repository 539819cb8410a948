package main

import (
	"context"
	"database/sql"
	"flag"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"safeher_travel/internal/adapters/elastic"
	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/adapters/overpass"
	redisad "safeher_travel/internal/adapters/redis"
	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
	"safeher_travel/internal/shared"
	mysqlrepo "safeher_travel/internal/storage/mysql"
)

func main() {
	seedOnly := flag.Bool("seed", false, "load the built-in resource set and exit without calling Overpass")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("overpass", cfg.OverpassURL).
		Int("workers", cfg.Workers).
		Int("radius_m", cfg.IngestRadius).
		Bool("seed", *seedOnly).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	var index domain.ResourceIndex
	if cfg.ElasticURL != "" {
		ix, err := elastic.New(cfg.ElasticURL, cfg.ElasticIndex)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize elasticsearch client")
		}
		if err := ix.EnsureIndex(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure index failed")
		}
		index = ix
	}

	client, err := overpass.New([]string{cfg.OverpassURL}, cfg.OverpassRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Overpass client")
	}
	ing := app.NewIngestionService(client, repo, index, cache)

	if err := ing.Seed(ctx, shared.SeedResources); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Int("resources", len(shared.SeedResources)).Msg("seed ok")
	if *seedOnly {
		return
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var total int64

	for _, region := range shared.Regions {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(r shared.Region) {
			defer wg.Done()
			defer sem.Release(int64(1))

			n, err := ing.IngestRegion(ctx, r.Name, r.Lat, r.Lng, cfg.IngestRadius)
			if err != nil {
				log.Warn().Str("region", r.Name).Err(err).Msg("ingest failed")
				return
			}
			atomic.AddInt64(&total, int64(n))
			log.Info().Str("region", r.Name).Int("resources", n).Msg("ingest ok")
		}(region)
	}

	wg.Wait()
	log.Info().Int64("resources", total).Msg("ingestion completed")
}
