package model

import "time"

// LeadStatus tracks a lead through the owner's pipeline.
type LeadStatus string

// Lead statuses.
const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost:
		return true
	}
	return false
}

// Lead is a contact captured from a landing page form.
type Lead struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	Email        string         `json:"email"`
	Name         string         `json:"name,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Company      string         `json:"company,omitempty"`
	Message      string         `json:"message,omitempty"`
	Source       string         `json:"source"`
	Status       LeadStatus     `json:"status"`
	QualityScore int            `json:"quality_score"`
	Notes        string         `json:"notes,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
