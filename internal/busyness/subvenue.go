package busyness

import (
	"context"
	"time"

	"campuspulse/server/internal/models"
)

// sourceRank orders observation sources for sub-venue ranking: any live
// reading beats any historical one, then higher values win.
func sourceRank(s models.Source) int {
	switch s {
	case models.SourceLive:
		return 2
	case models.SourceHistorical:
		return 1
	default:
		return 0
	}
}

// subvenueTier scans smaller venues around the resolved place and returns the
// best-ranked observation among those with data, tagged with its originating
// sub-venue. Ranking prefers live over historical, then raw value; proximity
// to the parent place is deliberately not a factor.
func (e *Engine) subvenueTier(ctx context.Context, place models.Place, at time.Time, allowLive bool) (*models.PopularityObservation, error) {
	candidates, err := e.places.NearbySearch(ctx, place.Latitude, place.Longitude, e.opts.SubvenueRadiusMeters, e.opts.Categories, e.opts.MaxCandidates)
	if err != nil {
		return nil, err
	}

	observations := e.collectObservations(ctx, candidates, at, allowLive)

	var best *models.PopularityObservation
	var bestPlace models.Place
	for i, obs := range observations {
		if obs == nil || obs.Value == nil {
			continue
		}
		if best == nil || rankGreater(*obs, *best) {
			best = obs
			bestPlace = candidates[i]
		}
	}
	if best == nil {
		return nil, nil
	}

	subvenue := bestPlace
	return &models.PopularityObservation{
		PlaceID:   place.ID,
		Value:     best.Value,
		Source:    best.Source,
		Method:    models.MethodSubvenue,
		Timestamp: at,
		Subvenue:  &subvenue,
	}, nil
}

// rankGreater compares observations by the (source, value) tuple.
func rankGreater(a, b models.PopularityObservation) bool {
	ra, rb := sourceRank(a.Source), sourceRank(b.Source)
	if ra != rb {
		return ra > rb
	}
	return *a.Value > *b.Value
}
