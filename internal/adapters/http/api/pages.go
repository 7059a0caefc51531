package api

import (
	"errors"
	"net/http"

	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/logger"
)

type listPagesResponse struct {
	Pages []model.LandingPage `json:"landing_pages"`
}

type pagesHandler struct {
	s *Server
}

// HandleList handles GET /api/landing-pages?projectId=.
func (h *pagesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.pages_list"
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
	list, err := h.s.store.ListLandingPages(ctx, id)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	if list == nil {
		list = []model.LandingPage{}
	}
	writeJSON(w, http.StatusOK, listPagesResponse{Pages: list})
}

// HandlePublish handles POST /api/landing-pages/{id}/publish.
func (h *pagesHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, "api.pages_publish", true)
}

// HandleUnpublish handles POST /api/landing-pages/{id}/unpublish.
func (h *pagesHandler) HandleUnpublish(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, "api.pages_unpublish", false)
}

func (h *pagesHandler) setActive(w http.ResponseWriter, r *http.Request, op string, active bool) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := h.s.store.SetLandingPageActive(ctx, auth.UserID(ctx), id, active); err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "landing page not found"))
		return
	}
	h.s.logger.Info(ctx, "landing page visibility changed",
		logger.String("page_id", id), logger.Bool("active", active))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleDelete handles DELETE /api/landing-pages/{id}.
func (h *pagesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.pages_delete"
	ctx := r.Context()

	if err := h.s.store.DeleteLandingPage(ctx, auth.UserID(ctx), r.PathValue("id")); err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "landing page not found"))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleServe handles GET /l/{slug}, the public view of an active page.
// Every served page counts one view.
func (h *pagesHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	const op = "api.pages_serve"

	page, err := h.s.store.ViewLandingPage(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.s.fail(w, r, notFoundAs(op, err, "landing page not found"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page.HTML))
}
