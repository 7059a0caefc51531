package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nextwave678/launchit/internal/adapters/repository"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/model"
)

type createCampaignRequest struct {
	ProjectID string `json:"projectId"`
	// Type is the platform the copy is written for.
	Type    string `json:"type"`
	Content string `json:"content"`
}

type updateCampaignRequest struct {
	CampaignID     string  `json:"campaignId"`
	Content        *string `json:"content"`
	Status         *string `json:"status"`
	ApprovalStatus *string `json:"approval_status"`
	ScheduledFor   *string `json:"scheduled_for"`
}

// patch validates the request into a repository patch.
func (u *updateCampaignRequest) patch() (repository.CampaignPatch, error) {
	var p repository.CampaignPatch
	p.Content = u.Content
	if u.Status != nil {
		st := model.CampaignStatus(*u.Status)
		if !st.Valid() {
			return p, errors.New("invalid status")
		}
		p.Status = &st
	}
	if u.ApprovalStatus != nil {
		st := model.ApprovalStatus(*u.ApprovalStatus)
		if !st.Valid() {
			return p, errors.New("invalid approval_status")
		}
		p.ApprovalStatus = &st
	}
	if u.ScheduledFor != nil {
		t, err := time.Parse(time.RFC3339, *u.ScheduledFor)
		if err != nil {
			return p, errors.New("scheduled_for must be RFC3339")
		}
		t = t.UTC()
		p.ScheduledFor = &t
	}
	return p, nil
}

type listCampaignsResponse struct {
	Campaigns []model.Campaign `json:"campaigns"`
}

type campaignResponse struct {
	Campaign model.Campaign `json:"campaign"`
}

type campaignsHandler struct {
	s *Server
}

// HandleList handles GET /api/campaigns?projectId=.
func (h *campaignsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.campaigns_list"
	ctx := r.Context()

	id := r.URL.Query().Get("projectId")
	if id == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("projectId is required")))
		return
	}
	if _, err := h.s.ownedProject(ctx, id); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrNotFound, err))
		return
	}
	list, err := h.s.store.ListCampaigns(ctx, id)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	if list == nil {
		list = []model.Campaign{}
	}
	writeJSON(w, http.StatusOK, listCampaignsResponse{Campaigns: list})
}

// HandleCreate handles POST /api/campaigns. New campaigns are pending drafts.
func (h *campaignsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.campaigns_create"
	ctx := r.Context()

	var req createCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.ProjectID == "" || req.Type == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("projectId and type are required")))
		return
	}
	if _, err := h.s.ownedProject(ctx, req.ProjectID); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrNotFound, err))
		return
	}

	c := model.Campaign{
		ProjectID:      req.ProjectID,
		Platform:       req.Type,
		Content:        req.Content,
		Status:         model.CampaignDraft,
		ApprovalStatus: model.ApprovalPending,
	}
	if err := h.s.store.InsertCampaign(ctx, &c); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, campaignResponse{Campaign: c})
}

// HandleUpdate handles PATCH /api/campaigns. Absent fields are unchanged.
func (h *campaignsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.campaigns_update"
	ctx := r.Context()

	var req updateCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.CampaignID == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("campaignId is required")))
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.s.store.UpdateCampaign(ctx, auth.UserID(ctx), req.CampaignID, patch); err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "campaign not found"))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleDelete handles DELETE /api/campaigns?campaignId=.
func (h *campaignsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.campaigns_delete"
	ctx := r.Context()

	id := r.URL.Query().Get("campaignId")
	if id == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("campaignId is required")))
		return
	}
	if err := h.s.store.DeleteCampaign(ctx, auth.UserID(ctx), id); err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "campaign not found"))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
