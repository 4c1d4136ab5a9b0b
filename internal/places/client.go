// Package places wraps the Places API v1 text-search and nearby-search
// endpoints behind the two narrow calls the busyness engine needs. Every
// search is restricted to the configured campus rectangle or circle.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"campuspulse/server/config"
	"campuspulse/server/internal/models"
)

const (
	searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location"

	// The provider rejects nearby searches with more than 5 included types.
	maxIncludedTypes = 5
)

type Client struct {
	logger  *logrus.Logger
	client  *http.Client
	limiter *rate.Limiter
	apiKey  string
	baseURL string
	bound   orb.Bound
}

// NewClient creates a places client whose searches are bounded to the given
// campus. The limiter is shared process-wide with the popularity client so
// every provider call pays into the same budget.
func NewClient(cfg *config.Config, campus config.Campus, limiter *rate.Limiter, logger *logrus.Logger) *Client {
	center := orb.Point{campus.CenterLng, campus.CenterLat}
	return &Client{
		logger:  logger,
		client:  &http.Client{Timeout: time.Duration(cfg.Providers.RequestTimeout) * time.Second},
		limiter: limiter,
		apiKey:  cfg.Providers.APIKey,
		baseURL: cfg.Providers.PlacesBaseURL,
		bound:   geo.NewBoundAroundPoint(center, campus.RadiusMeters),
	}
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type rectangle struct {
	Low  latLng `json:"low"`
	High latLng `json:"high"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type textSearchRequest struct {
	TextQuery           string `json:"textQuery"`
	PageSize            int    `json:"pageSize"`
	LocationRestriction struct {
		Rectangle rectangle `json:"rectangle"`
	} `json:"locationRestriction"`
}

type nearbySearchRequest struct {
	MaxResultCount      int      `json:"maxResultCount"`
	IncludedTypes       []string `json:"includedTypes"`
	LocationRestriction struct {
		Circle circle `json:"circle"`
	} `json:"locationRestriction"`
}

type placePayload struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         latLng `json:"location"`
}

type searchResponse struct {
	Places []placePayload `json:"places"`
}

// TextSearch resolves a free-text query to the provider's top-ranked place
// inside the campus rectangle. Returns models.ErrPlaceNotFound when the
// bounded search yields nothing.
func (c *Client) TextSearch(ctx context.Context, query string) (*models.Place, error) {
	req := textSearchRequest{
		TextQuery: query,
		PageSize:  5,
	}
	req.LocationRestriction.Rectangle = rectangle{
		Low:  latLng{Latitude: c.bound.Min.Y(), Longitude: c.bound.Min.X()},
		High: latLng{Latitude: c.bound.Max.Y(), Longitude: c.bound.Max.X()},
	}

	var resp searchResponse
	if err := c.post(ctx, "/places:searchText", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Places) == 0 {
		c.logger.WithField("query", query).Warn("No places found in campus rectangle")
		return nil, models.ErrPlaceNotFound
	}

	place := toModel(resp.Places[0])
	c.logger.WithFields(logrus.Fields{
		"query":    query,
		"place_id": place.ID,
		"name":     place.Name,
	}).Info("Resolved place")
	return &place, nil
}

// NearbySearch returns up to maxResults places of the given types around a
// center point. IncludedTypes is capped at the provider's limit of 5 and
// maxResults is clamped to the allowed 1..20 range.
func (c *Client) NearbySearch(ctx context.Context, lat, lng, radiusMeters float64, includedTypes []string, maxResults int) ([]models.Place, error) {
	if len(includedTypes) > maxIncludedTypes {
		includedTypes = includedTypes[:maxIncludedTypes]
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 20 {
		maxResults = 20
	}

	req := nearbySearchRequest{
		MaxResultCount: maxResults,
		IncludedTypes:  includedTypes,
	}
	req.LocationRestriction.Circle = circle{
		Center: latLng{Latitude: lat, Longitude: lng},
		Radius: radiusMeters,
	}

	var resp searchResponse
	if err := c.post(ctx, "/places:searchNearby", req, &resp); err != nil {
		return nil, err
	}

	results := make([]models.Place, 0, len(resp.Places))
	for _, p := range resp.Places {
		if p.ID == "" {
			continue
		}
		results = append(results, toModel(p))
	}
	c.logger.WithFields(logrus.Fields{
		"count":    len(results),
		"radius_m": radiusMeters,
	}).Debug("Nearby search completed")
	return results, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Error("Places request failed")
		return fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
			"body":   string(raw),
		}).Error("Places request rejected")
		return fmt.Errorf("places request returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func toModel(p placePayload) models.Place {
	return models.Place{
		ID:        p.ID,
		Name:      p.DisplayName.Text,
		Address:   p.FormattedAddress,
		Latitude:  p.Location.Latitude,
		Longitude: p.Location.Longitude,
	}
}
