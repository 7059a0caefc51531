package loadgen

import (
	"fmt"
	"maps"
	"slices"

	"github.com/nextwave678/launchit/internal/domain/analytics"
	"github.com/nextwave678/launchit/internal/domain/model"
)

// Expected summarizes the traffic the server accepted, the way the
// analytics endpoint should report it.
func Expected(t Traffic, beaconOutcomes, leadOutcomes []Outcome) analytics.Summary {
	events := make([]model.AnalyticsEvent, 0, len(t.Beacons)+len(t.Leads))
	for i, b := range t.Beacons {
		if beaconOutcomes[i] != Accepted {
			continue
		}
		events = append(events, model.AnalyticsEvent{
			EventType: model.EventType(b.EventType),
			SessionID: b.SessionID,
			Metadata:  b.Metadata,
		})
	}
	for i, l := range t.Leads {
		if leadOutcomes[i] != Accepted {
			continue
		}
		e := model.AnalyticsEvent{EventType: model.EventLeadCaptured}
		if l.Source != "" {
			e.Metadata = map[string]any{"source": l.Source}
		}
		events = append(events, e)
	}
	return analytics.Summarize(events)
}

// Compare lists every difference between want and got. Sources are
// compared by count only; equal counts may be ordered either way.
func Compare(want, got analytics.Summary) []string {
	var diffs []string
	if want.Metrics != got.Metrics {
		diffs = append(diffs, fmt.Sprintf("metrics: want %+v, got %+v", want.Metrics, got.Metrics))
	}
	if !maps.Equal(want.EventsByType, got.EventsByType) {
		diffs = append(diffs, fmt.Sprintf("eventsByType: want %v, got %v", want.EventsByType, got.EventsByType))
	}

	if len(want.TopSources) != len(got.TopSources) {
		diffs = append(diffs, fmt.Sprintf("topSources: want %d entries, got %d",
			len(want.TopSources), len(got.TopSources)))
		return diffs
	}
	counts := func(s []analytics.SourceCount) []int {
		out := make([]int, len(s))
		for i := range s {
			out[i] = s[i].Count
		}
		return out
	}
	if !slices.Equal(counts(want.TopSources), counts(got.TopSources)) {
		diffs = append(diffs, fmt.Sprintf("topSources: want %v, got %v", want.TopSources, got.TopSources))
	}
	return diffs
}
