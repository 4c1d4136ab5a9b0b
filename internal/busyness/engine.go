// Package busyness implements the location busyness resolution engine: an
// ordered fallback cascade that resolves a free-text query to a place and a
// time, then tries the place itself, its sub-venues, and finally a
// distance-weighted area estimate until one yields a crowdedness value.
package busyness

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"campuspulse/server/config"
	"campuspulse/server/internal/models"
	"campuspulse/server/internal/timeparse"
	"campuspulse/server/internal/worker"
)

// PlaceSearcher is the bounded place-search contract the engine consumes.
type PlaceSearcher interface {
	TextSearch(ctx context.Context, query string) (*models.Place, error)
	NearbySearch(ctx context.Context, lat, lng, radiusMeters float64, includedTypes []string, maxResults int) ([]models.Place, error)
}

// PopularitySource yields one crowdedness observation for one place at one
// timestamp.
type PopularitySource interface {
	At(ctx context.Context, place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error)
}

// Options tune the cascade's search geometry and candidate volume.
type Options struct {
	SubvenueRadiusMeters float64
	AreaRadiusMeters     float64
	MaxCandidates        int
	Categories           []string
}

// DefaultOptions mirror the provider limits and campus geometry the engine
// was tuned against.
func DefaultOptions() Options {
	return Options{
		SubvenueRadiusMeters: 300,
		AreaRadiusMeters:     350,
		MaxCandidates:        15,
		Categories:           config.SubvenueTypes,
	}
}

// Engine orchestrates the fallback cascade. It holds no per-query state; the
// only shared mutable state in the subsystem is the rate limiter inside the
// provider clients.
type Engine struct {
	places     PlaceSearcher
	popularity PopularitySource
	resolver   *timeparse.Resolver
	pool       *worker.Pool
	opts       Options
	logger     *logrus.Logger
}

func NewEngine(places PlaceSearcher, popularity PopularitySource, resolver *timeparse.Resolver, pool *worker.Pool, opts Options, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if resolver == nil {
		resolver = &timeparse.Resolver{}
	}
	if pool == nil {
		pool = worker.NewPool(6, logger)
	}
	if opts.MaxCandidates < 1 {
		opts.MaxCandidates = DefaultOptions().MaxCandidates
	}
	if opts.SubvenueRadiusMeters <= 0 {
		opts.SubvenueRadiusMeters = DefaultOptions().SubvenueRadiusMeters
	}
	if opts.AreaRadiusMeters <= 0 {
		opts.AreaRadiusMeters = DefaultOptions().AreaRadiusMeters
	}
	if len(opts.Categories) == 0 {
		opts.Categories = DefaultOptions().Categories
	}
	return &Engine{
		places:     places,
		popularity: popularity,
		resolver:   resolver,
		pool:       pool,
		opts:       opts,
		logger:     logger,
	}
}

// ResolvePlace resolves free text to a place inside the campus rectangle.
func (e *Engine) ResolvePlace(ctx context.Context, query string) (*models.Place, error) {
	return e.places.TextSearch(ctx, query)
}

// strategy is one tier of the cascade. A nil observation with a nil error
// means "this tier has no data"; an error is logged and treated the same way.
type strategy struct {
	name string
	run  func(ctx context.Context) (*models.PopularityObservation, error)
}

// ResolveAt walks the cascade for an already-resolved place: the place's own
// reading, then the best sub-venue, then the area-weighted estimate. Tiers
// after the first success are never invoked. Upstream failures are absorbed
// as tier misses; the terminal result is an unavailable observation, never an
// error.
func (e *Engine) ResolveAt(ctx context.Context, place models.Place, at time.Time) models.PopularityObservation {
	allowLive := e.resolver.IsLive(at)

	tiers := []strategy{
		{name: "place", run: func(ctx context.Context) (*models.PopularityObservation, error) {
			return e.placeTier(ctx, place, at, allowLive)
		}},
		{name: "subvenue", run: func(ctx context.Context) (*models.PopularityObservation, error) {
			return e.subvenueTier(ctx, place, at, allowLive)
		}},
		{name: "area", run: func(ctx context.Context) (*models.PopularityObservation, error) {
			return e.areaTier(ctx, place, at, allowLive)
		}},
	}

	for _, tier := range tiers {
		obs, err := tier.run(ctx)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"tier":     tier.name,
				"place_id": place.ID,
			}).Warn("Tier failed, falling through")
			continue
		}
		if obs != nil && obs.Value != nil {
			return *obs
		}
	}

	return models.PopularityObservation{
		PlaceID:   place.ID,
		Value:     nil,
		Source:    models.SourceUnavailable,
		Method:    models.MethodNone,
		Timestamp: at,
	}
}

func (e *Engine) placeTier(ctx context.Context, place models.Place, at time.Time, allowLive bool) (*models.PopularityObservation, error) {
	obs, err := e.popularity.At(ctx, place, at, allowLive)
	if err != nil {
		return nil, err
	}
	if obs.Value == nil {
		return nil, nil
	}
	obs.Method = models.MethodPlace
	return &obs, nil
}

func (e *Engine) areaTier(ctx context.Context, place models.Place, at time.Time, allowLive bool) (*models.PopularityObservation, error) {
	candidates, err := e.places.NearbySearch(ctx, place.Latitude, place.Longitude, e.opts.AreaRadiusMeters, e.opts.Categories, e.opts.MaxCandidates)
	if err != nil {
		return nil, err
	}

	observations := e.collectObservations(ctx, candidates, at, allowLive)
	samples := make([]Sample, 0, len(candidates))
	for i, obs := range observations {
		if obs == nil || obs.Value == nil {
			continue
		}
		samples = append(samples, Sample{
			Lat:   candidates[i].Latitude,
			Lng:   candidates[i].Longitude,
			Value: *obs.Value,
		})
	}

	est := WeightedEstimate(place.Latitude, place.Longitude, samples)
	if est == nil {
		return nil, nil
	}
	return &models.PopularityObservation{
		PlaceID:     place.ID,
		Value:       est,
		Source:      models.SourceArea,
		Method:      models.MethodAreaWeighted,
		Timestamp:   at,
		SamplesUsed: len(samples),
	}, nil
}

// collectObservations fans candidate lookups out over the worker pool. The
// returned slice is index-aligned with candidates; failed or empty lookups
// leave a nil entry.
func (e *Engine) collectObservations(ctx context.Context, candidates []models.Place, at time.Time, allowLive bool) []*models.PopularityObservation {
	observations := make([]*models.PopularityObservation, len(candidates))
	e.pool.Run(ctx, len(candidates), func(ctx context.Context, i int) {
		obs, err := e.popularity.At(ctx, candidates[i], at, allowLive)
		if err != nil {
			e.logger.WithError(err).WithField("place_id", candidates[i].ID).Debug("Candidate lookup failed")
			return
		}
		observations[i] = &obs
	})
	return observations
}
