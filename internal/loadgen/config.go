// Package loadgen drives a running LaunchIt server with synthetic landing
// page traffic and checks the analytics report against a local summary of
// what was accepted.
package loadgen

import (
	"errors"
	"time"
)

// Config holds configuration for one load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Secret     string        // JWT secret shared with the service
	Events     int           // Beacon events to submit
	Leads      int           // Leads to capture
	Sessions   int           // Distinct visitor sessions
	Workers    int           // Concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Traffic generator seed
	OutputFile string        // Optional JSON dump of the generated traffic
	Verbose    bool
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url is required")
	case c.Secret == "":
		return errors.New("jwt secret is required")
	case c.Events < 0 || c.Leads < 0:
		return errors.New("events and leads must not be negative")
	case c.Events+c.Leads == 0:
		return errors.New("nothing to send")
	case c.Workers <= 0:
		return errors.New("workers must be positive")
	}
	return nil
}

// Beacon is the body of POST /api/analytics/track.
type Beacon struct {
	ProjectID string         `json:"projectId"`
	EventType string         `json:"event_type"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// LeadForm is the body of POST /api/leads/capture.
type LeadForm struct {
	ProjectID string `json:"project_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Traffic is everything one run sends.
type Traffic struct {
	Beacons []Beacon   `json:"beacons"`
	Leads   []LeadForm `json:"leads"`
}

// Outcome classifies one submission.
type Outcome int

const (
	Accepted Outcome = iota
	Limited
	Rejected
	Failed
)

// Stats tracks run progress and results.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	EventsAccepted int
	EventsLimited  int
	EventsRejected int
	EventsFailed   int

	LeadsAccepted int
	LeadsLimited  int
	LeadsRejected int
	LeadsFailed   int

	Mismatches []string
}

func (s *Stats) count(o Outcome, lead bool) {
	if lead {
		switch o {
		case Accepted:
			s.LeadsAccepted++
		case Limited:
			s.LeadsLimited++
		case Rejected:
			s.LeadsRejected++
		default:
			s.LeadsFailed++
		}
		return
	}
	switch o {
	case Accepted:
		s.EventsAccepted++
	case Limited:
		s.EventsLimited++
	case Rejected:
		s.EventsRejected++
	default:
		s.EventsFailed++
	}
}
