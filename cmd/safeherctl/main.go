package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/client"
	"safeher_travel/internal/domain"
	"safeher_travel/internal/flow"
	"safeher_travel/internal/shared"
)

const usage = `usage: safeherctl [flags] <command> [arg]

commands:
  hotels           safe hotel suggestions around the current position
  police           nearby police stations
  hospitals        nearby hospitals
  sos-status <id>  state of an SOS session

Without -lat/-lng the position comes from SAFEHER_LAT/SAFEHER_LNG.
`

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	api := flag.String("api", cfg.APIBaseURL, "API base URL (the /api prefix is stripped)")
	lat := flag.Float64("lat", 0, "latitude")
	lng := flag.Float64("lng", 0, "longitude")
	concerns := flag.String("concerns", "", "free-text safety concerns")
	radius := flag.Float64("radius", 0, "search radius in km (server default when 0)")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage); flag.PrintDefaults() }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := client.New(trimAPI(*api), *timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -api")
	}
	var loc flow.Locator = flow.EnvLocator{}
	if isSet("lat") || isSet("lng") {
		loc = flow.StaticLocator{At: &domain.Coords{Lat: *lat, Lng: *lng}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var out any
	switch cmd := flag.Arg(0); cmd {
	case "hotels":
		out, err = flow.New(loc, c, flow.LogNotifier{}).Run(ctx, *concerns)
	case "police", "hospitals":
		var at domain.Coords
		if at, err = loc.Locate(ctx); err != nil {
			log.Error().Err(err).Msg("location unavailable")
		} else if cmd == "police" {
			out, err = c.PoliceStations(ctx, at.Lat, at.Lng, *radius)
		} else {
			out, err = c.Hospitals(ctx, at.Lat, at.Lng, *radius)
		}
	case "sos-status":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		out, err = c.SOSStatus(ctx, flag.Arg(1))
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
}

func isSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// trimAPI accepts either the server root or its /api prefix.
func trimAPI(u string) string {
	return strings.TrimSuffix(strings.TrimRight(u, "/"), "/api")
}
