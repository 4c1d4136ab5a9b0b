package busyness

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// kernelSigmaMeters controls how quickly a sample's influence decays with
// distance from the query center.
const kernelSigmaMeters = 150.0

// Sample is one nearby popularity reading used for area estimation.
type Sample struct {
	Lat   float64
	Lng   float64
	Value int
}

// WeightedEstimate interpolates crowdedness at a center point from nearby
// samples using a Gaussian kernel over haversine distance:
// w = exp(-d²/(2σ²)), σ = 150m. Returns nil when there are no samples or all
// weights underflow to zero. Deterministic: identical geometry and values
// always produce the same estimate.
func WeightedEstimate(centerLat, centerLng float64, samples []Sample) *int {
	if len(samples) == 0 {
		return nil
	}

	center := orb.Point{centerLng, centerLat}
	num, den := 0.0, 0.0
	for _, s := range samples {
		d := geo.DistanceHaversine(center, orb.Point{s.Lng, s.Lat})
		w := math.Exp(-(d * d) / (2 * kernelSigmaMeters * kernelSigmaMeters))
		num += w * float64(s.Value)
		den += w
	}
	if den <= 0 {
		return nil
	}

	est := int(math.Round(num / den))
	return &est
}
