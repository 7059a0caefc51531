// Package analytics reduces a project's tracked events into dashboard metrics.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/nextwave678/launchit/internal/domain/model"
)

const (
	// TopSourcesLimit caps Summary.TopSources.
	TopSourcesLimit = 5
	// RecentEventsLimit caps Report.RecentEvents.
	RecentEventsLimit = 50
)

// Metrics holds the headline counters.
type Metrics struct {
	TotalViews     int     `json:"totalViews"`
	UniqueSessions int     `json:"uniqueSessions"`
	FormSubmits    int     `json:"formSubmits"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversionRate"` // percent, two decimals
}

// SourceCount is one traffic source and how many events carried it.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Summary is the reduction of an event list.
type Summary struct {
	Metrics      Metrics                 `json:"metrics"`
	EventsByType map[model.EventType]int `json:"eventsByType"`
	TopSources   []SourceCount           `json:"topSources"`
}

// Report is a Summary plus the newest events for the dashboard feed.
type Report struct {
	Summary
	RecentEvents []model.AnalyticsEvent `json:"recentEvents"`
}

// trackable lists the types the public beacon may submit.
var trackable = map[model.EventType]struct{}{ //nolint:gochecknoglobals // read-only lookup
	model.EventPageView:    {},
	model.EventButtonClick: {},
	model.EventFormSubmit:  {},
	model.EventFormAbandon: {},
	model.EventConversion:  {},
}

// ValidTrackType reports whether the beacon may submit t.
// lead_captured is excluded; only lead capture writes it.
func ValidTrackType(t string) bool {
	_, ok := trackable[model.EventType(t)]
	return ok
}

// Summarize computes metrics over events. The order of events only matters
// for breaking ties between equally frequent sources.
func Summarize(events []model.AnalyticsEvent) Summary {
	var m Metrics
	byType := make(map[model.EventType]int)
	sessions := make(map[string]struct{})

	sourceIdx := make(map[string]int)
	sources := make([]SourceCount, 0)

	for i := range events {
		e := &events[i]
		byType[e.EventType]++

		switch e.EventType {
		case model.EventPageView:
			m.TotalViews++
		case model.EventFormSubmit:
			m.FormSubmits++
		case model.EventConversion:
			m.Conversions++
		}

		if e.SessionID != "" {
			sessions[e.SessionID] = struct{}{}
		}

		if src, ok := sourceOf(e.Metadata); ok {
			if idx, seen := sourceIdx[src]; seen {
				sources[idx].Count++
			} else {
				sourceIdx[src] = len(sources)
				sources = append(sources, SourceCount{Source: src, Count: 1})
			}
		}
	}

	m.UniqueSessions = len(sessions)
	m.ConversionRate = ConversionRate(m.Conversions, m.TotalViews)

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Count > sources[j].Count
	})
	if len(sources) > TopSourcesLimit {
		sources = sources[:TopSourcesLimit]
	}

	return Summary{Metrics: m, EventsByType: byType, TopSources: sources}
}

// BuildReport summarizes events, which are expected newest first, and keeps
// at most RecentEventsLimit of them as the feed.
func BuildReport(events []model.AnalyticsEvent) Report {
	recent := events
	if len(recent) > RecentEventsLimit {
		recent = recent[:RecentEventsLimit]
	}
	if recent == nil {
		recent = []model.AnalyticsEvent{}
	}
	return Report{Summary: Summarize(events), RecentEvents: recent}
}

// ConversionRate returns conversions per hundred views rounded half away
// from zero to two decimals, or 0 when there are no views.
func ConversionRate(conversions, views int) float64 {
	if views <= 0 {
		return 0
	}
	return round2(float64(conversions) / float64(views) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sourceOf extracts metadata.source. Falsy values (missing, nil, "", false, 0)
// carry no source; other non-string values are stringified.
func sourceOf(meta map[string]any) (string, bool) {
	raw, ok := meta["source"]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		if !v {
			return "", false
		}
		return "true", true
	case float64:
		if v == 0 || math.IsNaN(v) {
			return "", false
		}
		return fmt.Sprint(v), true
	case int:
		if v == 0 {
			return "", false
		}
		return fmt.Sprint(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return "", false
		}
		return v.String(), true
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), true
		}
		return string(b), true
	}
}
