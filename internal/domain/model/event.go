// Package model contains domain models passed between layers.
package model

import "time"

// EventType names an analytics event.
type EventType string

// Known event types. lead_captured is written server side only.
const (
	EventPageView     EventType = "page_view"
	EventButtonClick  EventType = "button_click"
	EventFormSubmit   EventType = "form_submit"
	EventFormAbandon  EventType = "form_abandon"
	EventConversion   EventType = "conversion"
	EventLeadCaptured EventType = "lead_captured"
)

// AnalyticsEvent is one tracked interaction on a project's landing page.
type AnalyticsEvent struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	EventType EventType      `json:"event_type"`
	SessionID string         `json:"session_id,omitempty"` // empty when the beacon sent none
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
