package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nextwave678/launchit/internal/adapters/repository"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/analytics"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

const dateOnly = "2006-01-02"

// trackRequest is the beacon payload.
type trackRequest struct {
	ProjectID string         `json:"projectId"`
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata"`
	SessionID string         `json:"session_id"`
}

func (t trackRequest) validate() error {
	if strings.TrimSpace(t.ProjectID) == "" || strings.TrimSpace(t.EventType) == "" {
		return errors.New("projectId and event_type are required")
	}
	if !analytics.ValidTrackType(t.EventType) {
		return errors.New("invalid event_type")
	}
	return nil
}

type trackHandler struct {
	s *Server
}

// HandleTrack handles POST /api/analytics/track.
func (h *trackHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	const op = "api.track"
	ctx := r.Context()

	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if _, err := h.s.store.GetProject(ctx, req.ProjectID); err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "project not found"))
		return
	}

	e := &model.AnalyticsEvent{
		ProjectID: req.ProjectID,
		EventType: model.EventType(req.EventType),
		SessionID: req.SessionID,
		Metadata:  req.Metadata,
	}
	if err := h.s.store.InsertEvent(ctx, e); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	metrics.RecordEventTracked(req.EventType)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// reportResponse is the analytics report. Truncated is set when the event
// read hit the per-report maximum, so older events in range were left out.
type reportResponse struct {
	analytics.Report
	Truncated bool `json:"truncated,omitempty"`
}

type analyticsHandler struct {
	s *Server
}

// HandleReport handles GET /api/analytics.
func (h *analyticsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.analytics"
	ctx := r.Context()
	q := r.URL.Query()

	f := repository.EventFilter{
		ProjectID: q.Get("projectId"),
		EventType: model.EventType(q.Get("event_type")),
		Limit:     h.s.maxEvents,
	}
	if f.ProjectID == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("projectId is required")))
		return
	}
	var err error
	if f.Start, err = parseBound(q.Get("startDate"), false); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if f.End, err = parseBound(q.Get("endDate"), true); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	owned, err := h.s.store.ProjectOwnedBy(ctx, f.ProjectID, auth.UserID(ctx))
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	if !owned {
		h.s.fail(w, r, WrapKind(op, ErrNotFound, errors.New("project not found")))
		return
	}

	events, err := h.s.store.ListEvents(ctx, f)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	truncated := len(events) >= h.s.maxEvents
	if truncated {
		h.s.logger.Warn(ctx, "analytics report truncated",
			logger.String("project_id", f.ProjectID),
			logger.Int("max_events", h.s.maxEvents),
		)
	}

	report := analytics.BuildReport(events)
	metrics.RecordSummary(len(events))
	writeJSON(w, http.StatusOK, reportResponse{Report: report, Truncated: truncated})
}

// parseBound accepts RFC3339 or YYYY-MM-DD. A date-only end bound covers
// the whole day.
func parseBound(v string, end bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return time.Time{}, errors.New("invalid date; use RFC3339 or YYYY-MM-DD")
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
