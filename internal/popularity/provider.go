// Package popularity turns a provider's popular-times payload into
// time-accurate crowdedness observations.
package popularity

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"campuspulse/server/internal/models"
)

// smoothingWindowHours widens historical lookups to ±1 hour so a single
// missing grid cell does not hide an otherwise well-covered time of day.
const smoothingWindowHours = 1

// Fetcher retrieves the raw popularity record for one place.
type Fetcher interface {
	Popularity(ctx context.Context, placeID string) (*Record, error)
}

// Provider answers "how busy is this place at this time" from a Fetcher.
type Provider struct {
	source Fetcher
	logger *logrus.Logger
}

func NewProvider(source Fetcher, logger *logrus.Logger) *Provider {
	if logger == nil {
		logger = logrus.New()
	}
	return &Provider{
		source: source,
		logger: logger,
	}
}

// At returns a popularity observation for one place at one timestamp.
// Live readings are only considered when allowLive is set; otherwise the
// weekly grid is consulted at the requested weekday/hour, falling back to a
// ±1h smoothing average when the exact cell is missing.
// When neither yields a value the observation carries a nil value and
// SourceUnavailable. Fetch failures are returned as errors for the caller to
// absorb as a tier failure.
func (p *Provider) At(ctx context.Context, place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
	obs := models.PopularityObservation{
		PlaceID:   place.ID,
		Source:    models.SourceUnavailable,
		Method:    models.MethodNone,
		Timestamp: at,
	}

	record, err := p.source.Popularity(ctx, place.ID)
	if err != nil {
		return obs, err
	}

	if allowLive && record.Current != nil {
		v := clampValue(*record.Current)
		obs.Value = &v
		obs.Source = models.SourceLive
		return obs, nil
	}

	if v, ok := record.Week.At(at); ok {
		obs.Value = &v
		obs.Source = models.SourceHistorical
		return obs, nil
	}
	if v, ok := record.Week.Around(at, smoothingWindowHours); ok {
		obs.Value = &v
		obs.Source = models.SourceHistorical
		return obs, nil
	}

	p.logger.WithFields(logrus.Fields{
		"place_id": place.ID,
		"at":       at,
	}).Debug("No popularity data for place")
	return obs, nil
}
