package model

import "time"

// ProjectStatus is where a project stands in its launch.
type ProjectStatus string

// Project statuses. New projects start out researching.
const (
	ProjectResearching ProjectStatus = "researching"
	ProjectBuilding    ProjectStatus = "building"
	ProjectLaunched    ProjectStatus = "launched"
	ProjectIterating   ProjectStatus = "iterating"
	ProjectPaused      ProjectStatus = "paused"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectResearching, ProjectBuilding, ProjectLaunched, ProjectIterating, ProjectPaused:
		return true
	}
	return false
}

// Project is one startup idea owned by a user.
type Project struct {
	ID     string        `json:"id"`
	UserID string        `json:"user_id"`
	Name   string        `json:"name"`
	Niche  string        `json:"niche,omitempty"`
	Status ProjectStatus `json:"status"`
	// OwnerEmail receives lead notifications; empty disables them.
	OwnerEmail string    `json:"owner_email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProjectStats are the headline numbers shown next to a project.
type ProjectStats struct {
	LeadCount int `json:"leadCount"`
	PageViews int `json:"pageViews"`
}

// AgentRun records one completed agent step.
type AgentRun struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification tells a project owner about a new lead.
type Notification struct {
	ID          string
	To          string
	ProjectName string
	Lead        Lead
	CreatedAt   time.Time
}
