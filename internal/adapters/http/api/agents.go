package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nextwave678/launchit/internal/adapters/jsonhttp"
	"github.com/nextwave678/launchit/internal/adapters/repository"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/agent"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/logger"
	"github.com/nextwave678/launchit/pkg/metrics"
)

type runAgentRequest struct {
	ProjectID string `json:"projectId"`
	Platform  string `json:"platform"`
	// Type is accepted as an alias of Platform for campaigns.
	Type string `json:"type"`
}

type runAgentResponse struct {
	RunID  string `json:"run_id"`
	Kind   string `json:"kind"`
	Output string `json:"output"`
	// Campaign is set by campaign runs.
	Campaign *model.Campaign `json:"campaign,omitempty"`
	// Page and URL are set by landing page runs.
	Page *model.LandingPage `json:"landing_page,omitempty"`
	URL  string             `json:"url,omitempty"`
}

type listRunsResponse struct {
	Runs []model.AgentRun `json:"runs"`
}

type agentsHandler struct {
	s *Server
}

// HandleRun handles POST /api/agents/{kind}. Only requests that reach the
// model count against the agent limit.
func (h *agentsHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.agents_run"
	ctx := r.Context()

	kind, err := agent.ParseKind(r.PathValue("kind"))
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrNotFound, err))
		return
	}
	var req runAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.ProjectID == "" {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("projectId is required")))
		return
	}
	if req.Platform == "" {
		req.Platform = req.Type
	}

	project, err := h.s.ownedProject(ctx, req.ProjectID)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrNotFound, err))
		return
	}

	in := agent.Input{
		ProjectID: project.ID,
		Name:      project.Name,
		Niche:     project.Niche,
		Platform:  req.Platform,
		SiteURL:   h.s.siteURL,
	}
	if dep, ok := kind.DependsOn(); ok {
		prior, err := h.s.store.LatestAgentRun(ctx, project.ID, string(dep))
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.s.fail(w, r, WrapKind(op, ErrPrecondition, fmt.Errorf("%s required; run it first", dep)))
			return
		case err != nil:
			h.s.fail(w, r, WrapKind(op, ErrInternal, err))
			return
		}
		in.Prior = prior.Output
	}

	prompt, err := agent.Build(kind, in)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if h.s.completer == nil {
		h.s.fail(w, r, NewKind(op, ErrLLMDown))
		return
	}
	if !h.s.allow(w, r, h.s.policies.Agent, auth.UserID(ctx)) {
		return
	}

	start := time.Now()
	text, err := h.s.completer.Complete(ctx, prompt)
	if err != nil {
		metrics.RecordAgentRun(string(kind), "error", time.Since(start).Seconds())
		kindErr := ErrUpstream
		if errors.Is(err, jsonhttp.ErrCircuitOpen) {
			kindErr = ErrLLMDown
		}
		h.s.logger.Warn(ctx, "agent completion failed",
			logger.String("kind", string(kind)),
			logger.String("project_id", project.ID),
			logger.Error(err),
		)
		h.s.fail(w, r, WrapKind(op, kindErr, err))
		return
	}
	metrics.RecordAgentRun(string(kind), "ok", time.Since(start).Seconds())

	run := &model.AgentRun{
		ProjectID: project.ID,
		UserID:    auth.UserID(ctx),
		Kind:      string(kind),
		Output:    agent.StripFences(text),
	}
	if err := h.s.store.InsertAgentRun(ctx, run); err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	resp := runAgentResponse{RunID: run.ID, Kind: run.Kind, Output: run.Output}

	switch kind {
	case agent.KindCampaign:
		c := &model.Campaign{
			ProjectID:      project.ID,
			Platform:       req.Platform,
			Content:        run.Output,
			Status:         model.CampaignDraft,
			ApprovalStatus: model.ApprovalPending,
		}
		if err := h.s.store.InsertCampaign(ctx, c); err != nil {
			h.s.fail(w, r, WrapKind(op, ErrInternal, err))
			return
		}
		resp.Campaign = c
	case agent.KindLandingPage:
		page := &model.LandingPage{
			ProjectID:       project.ID,
			Slug:            agent.Slug(project.Name, slugSuffix()),
			HTML:            run.Output,
			MetaDescription: agent.Tagline(in.Prior),
		}
		if err := h.s.store.InsertLandingPage(ctx, page); err != nil {
			h.s.fail(w, r, WrapKind(op, ErrInternal, err))
			return
		}
		resp.Page = page
		resp.URL = strings.TrimRight(h.s.siteURL, "/") + "/l/" + page.Slug
	}
	writeJSON(w, http.StatusOK, resp)
}

// slugSuffix returns six random hex characters.
func slugSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// HandleListRuns handles GET /api/agents/runs?projectId=.
func (h *agentsHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.agents_runs"
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
	runs, err := h.s.store.ListAgentRuns(ctx, id)
	if err != nil {
		h.s.fail(w, r, WrapKind(op, ErrInternal, err))
		return
	}
	if runs == nil {
		runs = []model.AgentRun{}
	}
	writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs})
}
