package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nextwave678/launchit/internal/adapters/mq/queue"
	"github.com/nextwave678/launchit/internal/adapters/repository"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/leads"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

// captureRequest is the public lead form payload.
type captureRequest struct {
	ProjectID string `json:"project_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

func (c *captureRequest) validate() error {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || strings.TrimSpace(c.ProjectID) == "" {
		return errors.New("email and project_id are required")
	}
	if !leads.ValidEmail(c.Email) {
		return errors.New("invalid email format")
	}
	return nil
}

type updateLeadRequest struct {
	LeadID string  `json:"leadId"`
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type listLeadsResponse struct {
	Leads []model.Lead `json:"leads"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
}

type updateLeadResponse struct {
	Success bool       `json:"success"`
	Lead    model.Lead `json:"lead"`
}

type leadsHandler struct {
	s *Server
}

// HandleCapture handles POST /api/leads/capture.
func (h *leadsHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	const op = "api.leads_capture"
	ctx := r.Context()

	var req captureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	project, err := h.s.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "project not found"))
		return
	}

	lead := &model.Lead{
		ProjectID:    req.ProjectID,
		Email:        req.Email,
		Name:         req.Name,
		Phone:        req.Phone,
		Company:      req.Company,
		Message:      req.Message,
		Source:       leads.SourceOrDefault(req.Source),
		Status:       model.LeadNew,
		QualityScore: leads.QualityScore(req.Email, req.Name, req.Phone),
	}
	if err := h.s.store.InsertLead(ctx, lead); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	metrics.RecordLeadCaptured()

	meta := map[string]any{"lead_id": lead.ID}
	if req.Source != "" {
		meta["source"] = req.Source
	}
	if err := h.s.store.InsertEvent(ctx, &model.AnalyticsEvent{
		ProjectID: req.ProjectID,
		EventType: model.EventLeadCaptured,
		Metadata:  meta,
	}); err != nil {
		h.s.logger.Warn(ctx, "lead_captured event not recorded",
			logger.String("lead_id", lead.ID), logger.Error(err))
	}

	h.notifyOwner(r, &project, lead)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// notifyOwner queues the owner email. A full or missing queue never fails
// the capture.
func (h *leadsHandler) notifyOwner(r *http.Request, p *model.Project, lead *model.Lead) {
	if h.s.notifications == nil || p.OwnerEmail == "" {
		return
	}
	err := h.s.notifications.Enqueue(r.Context(), queue.Item{
		ID:          uuid.NewString(),
		To:          p.OwnerEmail,
		ProjectName: p.Name,
		Lead:        *lead,
		CreatedAt:   h.s.now(),
	})
	if err != nil {
		h.s.logger.Warn(r.Context(), "lead notification dropped",
			logger.String("lead_id", lead.ID),
			logger.String("project_id", p.ID),
			logger.Error(err),
		)
	}
}

// HandleList handles GET /api/leads.
func (h *leadsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.leads_list"
	ctx := r.Context()
	q := r.URL.Query()

	page, err := intParam(q.Get("page"))
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("page must be an integer")))
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("limit must be an integer")))
		return
	}
	status := model.LeadStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("invalid status")))
		return
	}
	page, limit = repository.NormalizePage(page, limit)

	list, total, err := h.s.store.ListLeads(ctx, repository.LeadFilter{
		UserID:    auth.UserID(ctx),
		ProjectID: q.Get("projectId"),
		Status:    status,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	if list == nil {
		list = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, listLeadsResponse{
		Leads: list,
		Total: total,
		Page:  page,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	})
}

// HandleUpdate handles PATCH /api/leads.
func (h *leadsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.leads_update"
	ctx := r.Context()

	var req updateLeadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.LeadID == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("leadId is required")))
		return
	}

	var patch repository.LeadPatch
	if req.Status != "" {
		st := model.LeadStatus(req.Status)
		if !st.Valid() {
			h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("invalid status")))
			return
		}
		patch.Status = &st
	}
	patch.Notes = req.Notes

	lead, err := h.s.store.UpdateLead(ctx, auth.UserID(ctx), req.LeadID, patch)
	if err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "lead not found"))
		return
	}
	writeJSON(w, http.StatusOK, updateLeadResponse{Success: true, Lead: lead})
}

// HandleDelete handles DELETE /api/leads?leadId=.
func (h *leadsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.leads_delete"
	ctx := r.Context()

	id := r.URL.Query().Get("leadId")
	if id == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("leadId is required")))
		return
	}
	if err := h.s.store.DeleteLead(ctx, auth.UserID(ctx), id); err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "lead not found"))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

var exportHeader = []string{ //nolint:gochecknoglobals // read-only
	"Name", "Email", "Phone", "Source", "Status", "Quality Score", "Created At", "Notes",
}

// HandleExport handles GET /api/leads/export?projectId=, a CSV download of
// every lead on the project, newest first. Every cell is quoted.
func (h *leadsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.leads_export"
	ctx := r.Context()

	id := r.URL.Query().Get("projectId")
	if id == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("projectId is required")))
		return
	}
	project, err := h.s.ownedProject(ctx, id)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrNotFound, err))
		return
	}
	list, err := h.s.store.ExportLeads(ctx, auth.UserID(ctx), project.ID)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}

	var b strings.Builder
	writeCSVRow(&b, exportHeader)
	for i := range list {
		l := &list[i]
		writeCSVRow(&b, []string{
			l.Name, l.Email, l.Phone, l.Source, string(l.Status),
			strconv.Itoa(l.QualityScore), l.CreatedAt.Format(dateOnly), l.Notes,
		})
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads-`+project.ID+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

// writeCSVRow writes cells as one CSV record, quoting every cell.
func writeCSVRow(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

// intParam parses an optional integer query value; empty yields 0.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
