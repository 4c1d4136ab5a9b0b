package popularity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"campuspulse/server/config"
)

// Record is one place's popularity payload: the live reading (when the
// provider shows one) plus the weekly historical grid.
type Record struct {
	Current *int
	Week    WeeklyGrid
}

// Client fetches popularity records over HTTP, paced by the process-wide
// rate limiter it shares with the places client.
type Client struct {
	logger  *logrus.Logger
	client  *http.Client
	limiter *rate.Limiter
	apiKey  string
	baseURL string
}

func NewClient(cfg *config.Config, limiter *rate.Limiter, logger *logrus.Logger) *Client {
	return &Client{
		logger:  logger,
		client:  &http.Client{Timeout: time.Duration(cfg.Providers.RequestTimeout) * time.Second},
		limiter: limiter,
		apiKey:  cfg.Providers.APIKey,
		baseURL: cfg.Providers.PopularityBaseURL,
	}
}

type popularTimesPayload struct {
	CurrentPopularity *int `json:"current_popularity"`
	PopularTimes      []struct {
		Name string `json:"name"`
		Data []int  `json:"data"`
	} `json:"populartimes"`
}

var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// Popularity fetches the live reading and weekly histogram for a place.
func (c *Client) Popularity(ctx context.Context, placeID string) (*Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/places/%s/populartimes", c.baseURL, url.PathEscape(placeID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("place_id", placeID).Error("Popularity request failed")
		return nil, fmt.Errorf("popularity request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.WithFields(logrus.Fields{
			"place_id": placeID,
			"status":   resp.StatusCode,
		}).Error("Popularity request rejected")
		return nil, fmt.Errorf("popularity request returned status %d", resp.StatusCode)
	}

	var payload popularTimesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	record := &Record{}
	if payload.CurrentPopularity != nil {
		v := clampValue(*payload.CurrentPopularity)
		record.Current = &v
	}
	for _, day := range payload.PopularTimes {
		weekday, ok := weekdayNames[day.Name]
		if !ok || len(day.Data) != 24 {
			continue
		}
		var hours [24]int
		copy(hours[:], day.Data)
		record.Week.SetDay(weekday, hours)
	}
	return record, nil
}
