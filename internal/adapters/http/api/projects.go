package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nextwave678/launchit/internal/adapters/repository"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/leads"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/logger"
)

type createProjectRequest struct {
	Name       string `json:"name"`
	Niche      string `json:"niche"`
	OwnerEmail string `json:"owner_email"`
}

type updateProjectRequest struct {
	Name   *string `json:"name"`
	Niche  *string `json:"niche"`
	Status *string `json:"status"`
}

type listProjectsResponse struct {
	Projects []model.Project `json:"projects"`
}

type projectWithStatsResponse struct {
	Project model.Project      `json:"project"`
	Stats   model.ProjectStats `json:"stats"`
}

type updateProjectResponse struct {
	Success bool          `json:"success"`
	Project model.Project `json:"project"`
}

type projectsHandler struct {
	s *Server
}

// HandleCreate handles POST /api/projects. The owner email defaults to the
// token's email claim.
func (h *projectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.projects_create"
	ctx := r.Context()

	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("name is required")))
		return
	}
	if req.OwnerEmail == "" {
		req.OwnerEmail = auth.Email(ctx)
	}
	if req.OwnerEmail != "" && !leads.ValidEmail(req.OwnerEmail) {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("invalid owner_email")))
		return
	}

	p := &model.Project{
		UserID:     auth.UserID(ctx),
		Name:       req.Name,
		Niche:      strings.TrimSpace(req.Niche),
		Status:     model.ProjectResearching,
		OwnerEmail: req.OwnerEmail,
	}
	if err := h.s.store.CreateProject(ctx, p); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /api/projects.
func (h *projectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.projects_list"
	ctx := r.Context()

	list, err := h.s.store.ListProjects(ctx, auth.UserID(ctx))
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	if list == nil {
		list = []model.Project{}
	}
	writeJSON(w, http.StatusOK, listProjectsResponse{Projects: list})
}

// HandleGet handles GET /api/projects/{id}: the project with its lead and
// page view counts.
func (h *projectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.projects_get"
	ctx := r.Context()

	p, err := h.s.ownedProject(ctx, r.PathValue("id"))
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrNotFound, err))
		return
	}
	stats, err := h.s.store.ProjectStats(ctx, p.ID)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, projectWithStatsResponse{Project: p, Stats: stats})
}

// HandleUpdate handles PATCH /api/projects/{id}.
func (h *projectsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.projects_update"
	ctx := r.Context()

	var req updateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	var patch repository.ProjectPatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("name cannot be empty")))
			return
		}
		patch.Name = &name
	}
	if req.Niche != nil {
		niche := strings.TrimSpace(*req.Niche)
		patch.Niche = &niche
	}
	if req.Status != nil {
		st := model.ProjectStatus(*req.Status)
		if !st.Valid() {
			h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("invalid status")))
			return
		}
		patch.Status = &st
	}

	p, err := h.s.store.UpdateProject(ctx, auth.UserID(ctx), r.PathValue("id"), patch)
	if err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "project not found"))
		return
	}
	writeJSON(w, http.StatusOK, updateProjectResponse{Success: true, Project: p})
}

// HandleDelete handles DELETE /api/projects/{id}.
func (h *projectsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.projects_delete"
	ctx := r.Context()

	id := r.PathValue("id")
	if err := h.s.store.DeleteProject(ctx, auth.UserID(ctx), id); err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "project not found"))
		return
	}
	h.s.logger.Info(ctx, "project deleted", logger.String("project_id", id))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
