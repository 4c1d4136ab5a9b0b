package busyness

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"campuspulse/server/internal/models"
)

const (
	// Scan window for a day's grid: 07:00 through 22:00, 16 samples.
	peakScanStartHour = 7
	peakScanEndHour   = 23

	// An hour belongs to the peak window when it reaches this fraction of
	// the day's maximum value.
	peakWindowRatio = 0.85

	topHourCount = 3
)

// FindPeak scans a day's hourly grid for a place and reports its busiest
// hours. Lookups are historical-only: a live reading is never mixed in even
// when an hour coincides with the present. The peak window is the
// chronologically ordered set of hours at or above 85% of the day's maximum
// and therefore always contains the maximum-value hour.
func (e *Engine) FindPeak(ctx context.Context, place models.Place, dayOffset int) (models.PeakReport, error) {
	report := models.PeakReport{Place: place}

	base := e.resolver.Current().AddDate(0, 0, dayOffset)
	hourCount := peakScanEndHour - peakScanStartHour

	values := make([]*models.PopularityObservation, hourCount)
	times := make([]time.Time, hourCount)
	for i := 0; i < hourCount; i++ {
		times[i] = time.Date(base.Year(), base.Month(), base.Day(), peakScanStartHour+i, 0, 0, 0, base.Location())
	}

	e.pool.Run(ctx, hourCount, func(ctx context.Context, i int) {
		obs, err := e.popularity.At(ctx, place, times[i], false)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"place_id": place.ID,
				"hour":     times[i].Hour(),
			}).Debug("Hourly lookup failed")
			return
		}
		values[i] = &obs
	})

	for i, obs := range values {
		if obs == nil || obs.Value == nil {
			continue
		}
		report.AllHours = append(report.AllHours, models.HourlySample{
			Hour:      times[i].Hour(),
			Value:     *obs.Value,
			Timestamp: times[i],
			TimeStr:   times[i].Format("3:04 PM"),
		})
	}
	if len(report.AllHours) == 0 {
		return report, nil
	}

	ranked := make([]models.HourlySample, len(report.AllHours))
	copy(ranked, report.AllHours)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})

	top := topHourCount
	if top > len(ranked) {
		top = len(ranked)
	}
	report.TopHours = ranked[:top]

	threshold := float64(ranked[0].Value) * peakWindowRatio
	for _, sample := range report.AllHours {
		if float64(sample.Value) >= threshold {
			report.PeakWindow = append(report.PeakWindow, sample)
		}
	}
	return report, nil
}
