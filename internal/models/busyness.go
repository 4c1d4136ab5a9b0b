package models

import (
	"errors"
	"time"
)

// ErrPlaceNotFound is returned when the bounded campus search yields no
// results for a query. It is terminal: the engine does not retry it.
var ErrPlaceNotFound = errors.New("place not found")

// Source identifies where a popularity value came from.
type Source string

const (
	SourceLive        Source = "live"
	SourceHistorical  Source = "historical"
	SourceArea        Source = "area"
	SourceUnavailable Source = "unavailable"
)

// Method identifies which cascade tier produced an observation.
type Method string

const (
	MethodPlace        Method = "place"
	MethodSubvenue     Method = "subvenue"
	MethodAreaWeighted Method = "area_weighted"
	MethodNone         Method = "none"
)

// Place is a resolved real-world venue. Identity is the provider-assigned ID;
// instances are immutable once resolved.
type Place struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PopularityObservation is one crowdedness reading for one place at one time.
// Value is nil or within [0,100]; SourceUnavailable implies a nil Value.
type PopularityObservation struct {
	PlaceID   string    `json:"place_id"`
	Value     *int      `json:"value"`
	Source    Source    `json:"source"`
	Method    Method    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
	// Subvenue is set only when Method is MethodSubvenue.
	Subvenue *Place `json:"subvenue,omitempty"`
	// SamplesUsed is set only when Method is MethodAreaWeighted.
	SamplesUsed int `json:"samples_used,omitempty"`
}

// BusynessQuery is the immutable request record created once per call.
type BusynessQuery struct {
	RawText           string    `json:"raw_text"`
	TargetPlaceText   string    `json:"target_place_text"`
	ResolvedTimestamp time.Time `json:"resolved_timestamp"`
}

// HourlySample is one element of a day's historical grid.
type HourlySample struct {
	Hour      int       `json:"hour"`
	Value     int       `json:"popularity"`
	Timestamp time.Time `json:"datetime"`
	TimeStr   string    `json:"time_str"`
}

// PeakReport describes the busiest hours of a place for one day. PeakWindow
// is a chronologically ordered subset of the scanned grid and always contains
// the maximum-value sample when any data exists.
type PeakReport struct {
	Place      Place          `json:"place"`
	TopHours   []HourlySample `json:"top_hours"`
	PeakWindow []HourlySample `json:"peak_window"`
	AllHours   []HourlySample `json:"all_hours"`
}

// HasData reports whether any hour of the scanned grid produced a value.
func (r PeakReport) HasData() bool {
	return len(r.AllHours) > 0
}

// Response statuses surfaced to the chat orchestrator.
const (
	StatusSuccess     = "success"
	StatusUnavailable = "unavailable"
	StatusError       = "error"
)

// BusynessResponse is the wire shape of queryBusynessAtTime.
type BusynessResponse struct {
	Status     string    `json:"status"`
	Location   string    `json:"location"`
	Time       time.Time `json:"time"`
	Popularity *int      `json:"popularity"`
	Source     Source    `json:"source"`
	Method     Method    `json:"method"`
	Message    string    `json:"message"`
}

// PeakResponse is the wire shape of queryPeakTime.
type PeakResponse struct {
	Status     string         `json:"status"`
	Location   string         `json:"location"`
	PeakHours  []HourlySample `json:"peak_hours"`
	PeakWindow []HourlySample `json:"peak_window"`
	Message    string         `json:"message"`
}

// QueryType is the lightweight router result used by the chat caller.
type QueryType string

const (
	QueryTypeSpecificTime QueryType = "specific_time"
	QueryTypePeakTime     QueryType = "peak_time"
	QueryTypeCurrent      QueryType = "current"
)
