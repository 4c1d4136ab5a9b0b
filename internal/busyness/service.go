package busyness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campuspulse/server/config"
	"campuspulse/server/internal/models"
)

// levelLabel bands a popularity value into the phrasing used in chat replies.
func levelLabel(value int) string {
	switch {
	case value < 30:
		return "light"
	case value < 60:
		return "medium"
	case value < 85:
		return "high"
	default:
		return "very high"
	}
}

// QueryBusynessAtTime answers "how busy is X at T" for free text. The time
// expression and target place are both extracted from the raw text; the
// result always carries a status and a human-readable message, never a raw
// error.
func (e *Engine) QueryBusynessAtTime(ctx context.Context, rawText string) models.BusynessResponse {
	when := e.resolver.Parse(rawText)
	target := config.NormalizePlaceQuery(rawText)

	query := models.BusynessQuery{
		RawText:           rawText,
		TargetPlaceText:   target,
		ResolvedTimestamp: when,
	}

	place, err := e.ResolvePlace(ctx, query.TargetPlaceText)
	if err != nil {
		status := models.StatusError
		message := fmt.Sprintf("Could not resolve location: %s", target)
		if errors.Is(err, models.ErrPlaceNotFound) {
			message = fmt.Sprintf("Location not found: %s", target)
		} else {
			e.logger.WithError(err).WithField("query", target).Error("Place resolution failed")
		}
		return models.BusynessResponse{
			Status:   status,
			Location: target,
			Time:     when,
			Source:   models.SourceUnavailable,
			Method:   models.MethodNone,
			Message:  message,
		}
	}

	obs := e.ResolveAt(ctx, *place, query.ResolvedTimestamp)

	resp := models.BusynessResponse{
		Location:   place.Name,
		Time:       when,
		Popularity: obs.Value,
		Source:     obs.Source,
		Method:     obs.Method,
	}
	if obs.Value == nil {
		resp.Status = models.StatusUnavailable
		resp.Message = fmt.Sprintf("Busyness data unavailable for %s", place.Name)
		return resp
	}

	resp.Status = models.StatusSuccess
	resp.Message = fmt.Sprintf("%s is %d%% busy (%s) at %s",
		place.Name, *obs.Value, levelLabel(*obs.Value), e.describeTime(when))
	return resp
}

// QueryPeakTime answers "when is X busiest" for a location, scanning the
// requested day's hourly grid.
func (e *Engine) QueryPeakTime(ctx context.Context, locationText string, dayOffset int) models.PeakResponse {
	target := config.NormalizePlaceQuery(locationText)

	place, err := e.ResolvePlace(ctx, target)
	if err != nil {
		message := fmt.Sprintf("Could not resolve location: %s", target)
		if errors.Is(err, models.ErrPlaceNotFound) {
			message = fmt.Sprintf("Location not found: %s", target)
		} else {
			e.logger.WithError(err).WithField("query", target).Error("Place resolution failed")
		}
		return models.PeakResponse{
			Status:   models.StatusError,
			Location: target,
			Message:  message,
		}
	}

	report, err := e.FindPeak(ctx, *place, dayOffset)
	if err != nil {
		e.logger.WithError(err).WithField("place_id", place.ID).Error("Peak scan failed")
		return models.PeakResponse{
			Status:   models.StatusError,
			Location: place.Name,
			Message:  fmt.Sprintf("Could not determine peak times for %s", place.Name),
		}
	}
	if !report.HasData() {
		return models.PeakResponse{
			Status:   models.StatusUnavailable,
			Location: place.Name,
			Message:  fmt.Sprintf("No historical busyness data available for %s", place.Name),
		}
	}

	peak := report.TopHours[0]
	message := fmt.Sprintf("%s is typically busiest at %s (%d%% busy)", place.Name, peak.TimeStr, peak.Value)
	if len(report.PeakWindow) > 1 {
		first := report.PeakWindow[0]
		last := report.PeakWindow[len(report.PeakWindow)-1]
		message += fmt.Sprintf(". Peak busy period: %s - %s", first.TimeStr, last.TimeStr)
	}

	return models.PeakResponse{
		Status:     models.StatusSuccess,
		Location:   place.Name,
		PeakHours:  report.TopHours,
		PeakWindow: report.PeakWindow,
		Message:    message,
	}
}

// describeTime renders a resolved timestamp the way a person asked for it:
// times inside the live window read as "now".
func (e *Engine) describeTime(when time.Time) string {
	if e.resolver.IsLive(when) {
		return "now"
	}
	return when.Format("3:04 PM")
}
