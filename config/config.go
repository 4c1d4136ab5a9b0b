package config

import (
	"errors"

	"github.com/caarlos0/env/v6"
)

// ErrMissingAPIKey aborts startup: every tier of the busyness engine talks to
// the places/popularity providers, so a missing credential can never be
// recovered per-query.
var ErrMissingAPIKey = errors.New("PLACES_API_KEY is not set")

type Config struct {
	// Server configuration
	Server struct {
		// Port the HTTP API listens on
		Port string `env:"SERVER_PORT" envDefault:"5280"`
	}

	// Providers configuration for the places and popularity upstreams
	Providers struct {
		// API key shared by the places and popularity providers
		APIKey string `env:"PLACES_API_KEY"`

		// Base URL of the Places API
		PlacesBaseURL string `env:"PLACES_BASE_URL" envDefault:"https://places.googleapis.com/v1"`

		// Base URL of the popularity (popular-times) provider
		PopularityBaseURL string `env:"POPULARITY_BASE_URL" envDefault:"https://populartimes.campuspulse.dev/v1"`

		// Per-call deadline for any provider request (in seconds)
		RequestTimeout int `env:"PROVIDER_TIMEOUT" envDefault:"15"`

		// Process-wide pacing: provider requests per second across all tiers
		RequestsPerSecond int `env:"PROVIDER_RPS" envDefault:"5"`

		// Token-bucket burst allowance
		RequestBurst int `env:"PROVIDER_BURST" envDefault:"2"`
	}

	// Engine configuration for the fallback cascade
	Engine struct {
		// Number of concurrent candidate lookups in the subvenue/area tiers
		WorkerCount int `env:"ENGINE_WORKER_COUNT" envDefault:"6"`

		// Radius in meters for the subvenue nearby search
		SubvenueRadiusMeters int `env:"SUBVENUE_RADIUS_M" envDefault:"300"`

		// Radius in meters for the area-estimate nearby search
		AreaRadiusMeters int `env:"AREA_RADIUS_M" envDefault:"350"`

		// Maximum candidates fetched per nearby search (provider allows 1..20)
		MaxCandidates int `env:"ENGINE_MAX_CANDIDATES" envDefault:"15"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.Providers.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}
