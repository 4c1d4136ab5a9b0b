package busyness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuspulse/server/internal/models"
	"campuspulse/server/internal/timeparse"
	"campuspulse/server/internal/worker"
)

// MockPlaces is a mock implementation of PlaceSearcher
type MockPlaces struct {
	mu              sync.Mutex
	place           *models.Place
	textErr         error
	textSearchCalls int
	nearbyByRadius  map[float64][]models.Place
	nearbyErr       error
	nearbyRadii     []float64
}

func (m *MockPlaces) TextSearch(ctx context.Context, query string) (*models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textSearchCalls++
	if m.textErr != nil {
		return nil, m.textErr
	}
	return m.place, nil
}

func (m *MockPlaces) NearbySearch(ctx context.Context, lat, lng, radiusMeters float64, includedTypes []string, maxResults int) ([]models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nearbyRadii = append(m.nearbyRadii, radiusMeters)
	if m.nearbyErr != nil {
		return nil, m.nearbyErr
	}
	return m.nearbyByRadius[radiusMeters], nil
}

func (m *MockPlaces) nearbyCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nearbyRadii)
}

type popCall struct {
	placeID   string
	at        time.Time
	allowLive bool
}

// MockPopularity is a mock implementation of PopularitySource
type MockPopularity struct {
	mu    sync.Mutex
	calls []popCall
	fn    func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error)
}

func (m *MockPopularity) At(ctx context.Context, place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, popCall{placeID: place.ID, at: at, allowLive: allowLive})
	m.mu.Unlock()
	return m.fn(place, at, allowLive)
}

func (m *MockPopularity) callCount(placeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.placeID == placeID {
			n++
		}
	}
	return n
}

func (m *MockPopularity) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func intPtr(v int) *int { return &v }

func unavailable(place models.Place, at time.Time) models.PopularityObservation {
	return models.PopularityObservation{
		PlaceID:   place.ID,
		Source:    models.SourceUnavailable,
		Method:    models.MethodNone,
		Timestamp: at,
	}
}

func historical(place models.Place, at time.Time, value int) models.PopularityObservation {
	return models.PopularityObservation{
		PlaceID:   place.ID,
		Value:     intPtr(value),
		Source:    models.SourceHistorical,
		Timestamp: at,
	}
}

func live(place models.Place, at time.Time, value int) models.PopularityObservation {
	return models.PopularityObservation{
		PlaceID:   place.ID,
		Value:     intPtr(value),
		Source:    models.SourceLive,
		Timestamp: at,
	}
}

var testNow = time.Date(2025, 3, 3, 13, 45, 0, 0, time.Local)

var hallPlace = models.Place{
	ID:        "hall-1",
	Name:      "Livingston Dining Commons",
	Address:   "85 Joyce Kilmer Ave, Piscataway, NJ",
	Latitude:  testCenterLat,
	Longitude: testCenterLng,
}

func newTestEngine(places *MockPlaces, pop *MockPopularity) *Engine {
	logger := logrus.New()
	resolver := &timeparse.Resolver{Now: func() time.Time { return testNow }}
	return NewEngine(places, pop, resolver, worker.NewPool(4, logger), DefaultOptions(), logger)
}

func TestResolveAt_PlaceTierShortCircuits(t *testing.T) {
	places := &MockPlaces{place: &hallPlace}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		return historical(place, at, 42), nil
	}}
	engine := newTestEngine(places, pop)

	at := testNow.Add(2 * time.Hour)
	obs := engine.ResolveAt(context.Background(), hallPlace, at)

	require.NotNil(t, obs.Value)
	assert.Equal(t, 42, *obs.Value)
	assert.Equal(t, models.SourceHistorical, obs.Source)
	assert.Equal(t, models.MethodPlace, obs.Method)

	// Skipped tiers must never be invoked.
	assert.Equal(t, 0, places.nearbyCallCount())
	assert.Equal(t, 1, pop.totalCalls())
}

func TestResolveAt_LiveOnlyWhenTimestampIsLive(t *testing.T) {
	places := &MockPlaces{place: &hallPlace}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		return historical(place, at, 42), nil
	}}
	engine := newTestEngine(places, pop)

	engine.ResolveAt(context.Background(), hallPlace, testNow.Add(3*time.Hour))
	require.Len(t, pop.calls, 1)
	assert.False(t, pop.calls[0].allowLive)

	engine.ResolveAt(context.Background(), hallPlace, testNow.Add(10*time.Minute))
	require.Len(t, pop.calls, 2)
	assert.True(t, pop.calls[1].allowLive)
}

func TestResolveAt_SubvenueTier(t *testing.T) {
	cart := models.Place{ID: "cart-1", Name: "Halal Cart", Latitude: testCenterLat + latDelta200m, Longitude: testCenterLng}
	cafe := models.Place{ID: "cafe-1", Name: "Campus Cafe", Latitude: testCenterLat, Longitude: testCenterLng + latDelta200m}

	places := &MockPlaces{
		place: &hallPlace,
		nearbyByRadius: map[float64][]models.Place{
			300: {cafe, cart},
		},
	}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		switch place.ID {
		case "cart-1":
			return live(place, at, 80), nil
		case "cafe-1":
			return historical(place, at, 95), nil
		default:
			return unavailable(place, at), nil
		}
	}}
	engine := newTestEngine(places, pop)

	obs := engine.ResolveAt(context.Background(), hallPlace, testNow)

	require.NotNil(t, obs.Value)
	// Live beats a higher historical value in the rank tuple.
	assert.Equal(t, 80, *obs.Value)
	assert.Equal(t, models.SourceLive, obs.Source)
	assert.Equal(t, models.MethodSubvenue, obs.Method)
	require.NotNil(t, obs.Subvenue)
	assert.Equal(t, "cart-1", obs.Subvenue.ID)
	assert.Equal(t, hallPlace.ID, obs.PlaceID)
}

func TestResolveAt_SubvenueRankPrefersHigherValue(t *testing.T) {
	a := models.Place{ID: "a", Latitude: testCenterLat, Longitude: testCenterLng}
	b := models.Place{ID: "b", Latitude: testCenterLat, Longitude: testCenterLng}

	places := &MockPlaces{
		place:          &hallPlace,
		nearbyByRadius: map[float64][]models.Place{300: {a, b}},
	}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		switch place.ID {
		case "a":
			return historical(place, at, 35), nil
		case "b":
			return historical(place, at, 70), nil
		default:
			return unavailable(place, at), nil
		}
	}}
	engine := newTestEngine(places, pop)

	obs := engine.ResolveAt(context.Background(), hallPlace, testNow)
	require.NotNil(t, obs.Value)
	assert.Equal(t, 70, *obs.Value)
	require.NotNil(t, obs.Subvenue)
	assert.Equal(t, "b", obs.Subvenue.ID)
}

func TestResolveAt_AreaTier(t *testing.T) {
	near := models.Place{ID: "near", Latitude: testCenterLat, Longitude: testCenterLng}
	far := models.Place{ID: "far", Latitude: testCenterLat + latDelta200m, Longitude: testCenterLng}

	places := &MockPlaces{
		place: &hallPlace,
		nearbyByRadius: map[float64][]models.Place{
			300: {},
			350: {near, far},
		},
	}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		switch place.ID {
		case "near":
			return historical(place, at, 60), nil
		case "far":
			return historical(place, at, 20), nil
		default:
			return unavailable(place, at), nil
		}
	}}
	engine := newTestEngine(places, pop)

	obs := engine.ResolveAt(context.Background(), hallPlace, testNow)

	require.NotNil(t, obs.Value)
	assert.Equal(t, models.SourceArea, obs.Source)
	assert.Equal(t, models.MethodAreaWeighted, obs.Method)
	assert.Equal(t, 2, obs.SamplesUsed)

	expected := WeightedEstimate(testCenterLat, testCenterLng, []Sample{
		{Lat: near.Latitude, Lng: near.Longitude, Value: 60},
		{Lat: far.Latitude, Lng: far.Longitude, Value: 20},
	})
	require.NotNil(t, expected)
	assert.Equal(t, *expected, *obs.Value)
	assert.Greater(t, *obs.Value, 40)
	assert.Less(t, *obs.Value, 60)
}

func TestResolveAt_TerminalUnavailable(t *testing.T) {
	places := &MockPlaces{
		place: &hallPlace,
		nearbyByRadius: map[float64][]models.Place{
			300: {},
			350: {},
		},
	}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		return unavailable(place, at), nil
	}}
	engine := newTestEngine(places, pop)

	obs := engine.ResolveAt(context.Background(), hallPlace, testNow)

	assert.Nil(t, obs.Value)
	assert.Equal(t, models.SourceUnavailable, obs.Source)
	assert.Equal(t, models.MethodNone, obs.Method)
}

func TestResolveAt_TierErrorsAreAbsorbed(t *testing.T) {
	sub := models.Place{ID: "sub", Latitude: testCenterLat, Longitude: testCenterLng}
	places := &MockPlaces{
		place: &hallPlace,
		nearbyByRadius: map[float64][]models.Place{
			300: {sub},
			350: {},
		},
	}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		if place.ID == hallPlace.ID {
			return models.PopularityObservation{}, errors.New("upstream 503")
		}
		return historical(place, at, 55), nil
	}}
	engine := newTestEngine(places, pop)

	obs := engine.ResolveAt(context.Background(), hallPlace, testNow)

	require.NotNil(t, obs.Value)
	assert.Equal(t, 55, *obs.Value)
	assert.Equal(t, models.MethodSubvenue, obs.Method)
}

func TestResolveAt_AllTiersFailStillReturnsUnavailable(t *testing.T) {
	places := &MockPlaces{
		place:     &hallPlace,
		nearbyErr: errors.New("nearby search down"),
	}
	pop := &MockPopularity{fn: func(place models.Place, at time.Time, allowLive bool) (models.PopularityObservation, error) {
		return models.PopularityObservation{}, errors.New("popularity down")
	}}
	engine := newTestEngine(places, pop)

	obs := engine.ResolveAt(context.Background(), hallPlace, testNow)

	assert.Nil(t, obs.Value)
	assert.Equal(t, models.SourceUnavailable, obs.Source)
	assert.Equal(t, models.MethodNone, obs.Method)
}
