package loadgen

import (
	"fmt"
	"math/rand/v2"
)

// weighted event mix for a typical landing page; weights sum to 100.
var eventMix = []struct { //nolint:gochecknoglobals // read-only table
	eventType string
	weight    int
}{
	{"page_view", 60},
	{"button_click", 15},
	{"form_submit", 10},
	{"form_abandon", 8},
	{"conversion", 7},
}

// sources visitors arrive from. The empty entry is direct traffic and
// carries no source metadata.
var sources = []string{ //nolint:gochecknoglobals // read-only table
	"twitter", "twitter", "twitter", "google", "google", "reddit",
	"producthunt", "newsletter", "linkedin", "hackernews", "", "",
}

var (
	firstNames = []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Margaret", ""} //nolint:gochecknoglobals // read-only table
	companies  = []string{"Acme", "Initech", "Globex", "Hooli", "", ""}              //nolint:gochecknoglobals // read-only table
	domains    = []string{"example.com", "mail.test", "acme.io"}                     //nolint:gochecknoglobals // read-only table
)

// Generate builds deterministic traffic for projectID from seed.
func Generate(projectID string, events, leads, sessions int, seed uint64) Traffic {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if sessions <= 0 {
		sessions = max(1, events/4)
	}

	ids := make([]string, sessions)
	for i := range ids {
		ids[i] = fmt.Sprintf("sess-%04d-%08x", i, rng.Uint32())
	}
	// each session keeps one source for all its events
	sessionSource := make([]string, sessions)
	for i := range sessionSource {
		sessionSource[i] = sources[rng.IntN(len(sources))]
	}

	t := Traffic{
		Beacons: make([]Beacon, 0, events),
		Leads:   make([]LeadForm, 0, leads),
	}
	for range events {
		s := rng.IntN(sessions)
		b := Beacon{
			ProjectID: projectID,
			EventType: pickEventType(rng),
			SessionID: ids[s],
		}
		if src := sessionSource[s]; src != "" {
			b.Metadata = map[string]any{"source": src}
		}
		t.Beacons = append(t.Beacons, b)
	}
	for i := range leads {
		l := LeadForm{
			ProjectID: projectID,
			Email:     fmt.Sprintf("visitor%d@%s", i, domains[rng.IntN(len(domains))]),
			Name:      firstNames[rng.IntN(len(firstNames))],
			Company:   companies[rng.IntN(len(companies))],
			Source:    sources[rng.IntN(len(sources))],
		}
		if rng.IntN(3) == 0 {
			l.Phone = fmt.Sprintf("+1555%07d", rng.IntN(10_000_000))
		}
		t.Leads = append(t.Leads, l)
	}
	return t
}

func pickEventType(rng *rand.Rand) string {
	n := rng.IntN(100)
	for _, m := range eventMix {
		if n < m.weight {
			return m.eventType
		}
		n -= m.weight
	}
	return eventMix[0].eventType
}
