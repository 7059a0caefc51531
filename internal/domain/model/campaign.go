package model

import "time"

// CampaignStatus tracks a campaign from draft to publication.
type CampaignStatus string

// Campaign statuses.
const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignPublished CampaignStatus = "published"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignScheduled, CampaignPublished:
		return true
	}
	return false
}

// ApprovalStatus is the owner's review decision on generated copy.
type ApprovalStatus string

// Approval statuses.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Campaign is marketing copy for one platform.
type Campaign struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"project_id"`
	Platform       string         `json:"platform"`
	Content        string         `json:"content"`
	Status         CampaignStatus `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ScheduledFor   *time.Time     `json:"scheduled_for"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// LandingPage is a generated HTML page served publicly under /l/{slug}
// while active.
type LandingPage struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	Slug            string     `json:"slug"`
	HTML            string     `json:"html_content"`
	MetaDescription string     `json:"meta_description"`
	IsActive        bool       `json:"is_active"`
	DeployedAt      *time.Time `json:"deployed_at"`
	ViewCount       int        `json:"view_count"`
	CreatedAt       time.Time  `json:"created_at"`
}
