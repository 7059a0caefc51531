// Package repository persists projects and everything generated or
// collected for them.
package repository

import (
	"context"
	"time"

	"github.com/nextwave678/launchit/internal/domain/model"
)

// EventFilter selects analytics events for one project.
type EventFilter struct {
	ProjectID string          // required
	Start     time.Time       // inclusive; zero means unbounded
	End       time.Time       // inclusive; zero means unbounded
	EventType model.EventType // empty means any
	Limit     int             // <= 0 uses the store maximum
}

// LeadFilter selects leads visible to one owner.
type LeadFilter struct {
	UserID    string // required; only leads on this user's projects are returned
	ProjectID string
	Status    model.LeadStatus
	Page      int // 1-based
	Limit     int
}

// LeadPatch holds the mutable lead fields; nil leaves a field unchanged.
type LeadPatch struct {
	Status *model.LeadStatus
	Notes  *string
}

// ProjectPatch holds the mutable project fields; nil leaves a field unchanged.
type ProjectPatch struct {
	Name   *string
	Niche  *string
	Status *model.ProjectStatus
}

// CampaignPatch holds the mutable campaign fields; nil leaves a field unchanged.
type CampaignPatch struct {
	Content        *string
	Status         *model.CampaignStatus
	ApprovalStatus *model.ApprovalStatus
	ScheduledFor   *time.Time
}

// Store provides read/write access to the datastore.
type Store interface {
	CreateProject(ctx context.Context, p *model.Project) error
	// GetProject returns ErrNotFound when id is unknown.
	GetProject(ctx context.Context, id string) (model.Project, error)
	// ProjectOwnedBy reports whether userID owns projectID.
	ProjectOwnedBy(ctx context.Context, projectID, userID string) (bool, error)
	// ListProjects returns userID's projects newest first.
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	// UpdateProject applies patch to a project owned by userID and returns it.
	UpdateProject(ctx context.Context, userID, projectID string, patch ProjectPatch) (model.Project, error)
	// DeleteProject removes a project owned by userID with all its data.
	DeleteProject(ctx context.Context, userID, projectID string) error
	ProjectStats(ctx context.Context, projectID string) (model.ProjectStats, error)

	InsertEvent(ctx context.Context, e *model.AnalyticsEvent) error
	// ListEvents returns matching events newest first.
	ListEvents(ctx context.Context, f EventFilter) ([]model.AnalyticsEvent, error)

	InsertLead(ctx context.Context, l *model.Lead) error
	// ListLeads returns one page of leads newest first and the total match count.
	ListLeads(ctx context.Context, f LeadFilter) ([]model.Lead, int, error)
	// UpdateLead applies patch to a lead owned by userID.
	UpdateLead(ctx context.Context, userID, leadID string, patch LeadPatch) (model.Lead, error)
	// DeleteLead removes a lead owned by userID.
	DeleteLead(ctx context.Context, userID, leadID string) error
	// ExportLeads returns every lead of a project owned by userID, newest first.
	ExportLeads(ctx context.Context, userID, projectID string) ([]model.Lead, error)

	InsertAgentRun(ctx context.Context, r *model.AgentRun) error
	// LatestAgentRun returns ErrNotFound when the project has no run of kind.
	LatestAgentRun(ctx context.Context, projectID, kind string) (model.AgentRun, error)
	ListAgentRuns(ctx context.Context, projectID string) ([]model.AgentRun, error)

	InsertCampaign(ctx context.Context, c *model.Campaign) error
	// ListCampaigns returns the project's campaigns newest first.
	ListCampaigns(ctx context.Context, projectID string) ([]model.Campaign, error)
	GetCampaign(ctx context.Context, userID, campaignID string) (model.Campaign, error)
	UpdateCampaign(ctx context.Context, userID, campaignID string, patch CampaignPatch) error
	DeleteCampaign(ctx context.Context, userID, campaignID string) error

	InsertLandingPage(ctx context.Context, p *model.LandingPage) error
	ListLandingPages(ctx context.Context, projectID string) ([]model.LandingPage, error)
	// SetLandingPageActive publishes or unpublishes a page owned by userID.
	SetLandingPageActive(ctx context.Context, userID, pageID string, active bool) error
	DeleteLandingPage(ctx context.Context, userID, pageID string) error
	// ViewLandingPage counts a view of the active page at slug and returns it.
	// Inactive or unknown slugs return ErrNotFound.
	ViewLandingPage(ctx context.Context, slug string) (model.LandingPage, error)

	Close() error
}
