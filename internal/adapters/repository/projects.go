package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/metrics"
)

// ListProjects implements Store.
func (s *SQLiteStore) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject implements Store.
func (s *SQLiteStore) UpdateProject(ctx context.Context, userID, projectID string, patch ProjectPatch) (model.Project, error) {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Niche != nil {
		sets = append(sets, "niche = ?")
		args = append(args, *patch.Niche)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, s.now().UTC().UnixNano(), projectID, userID)

		res, err := s.db.ExecContext(ctx,
			`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
		if err != nil {
			metrics.RecordRepositoryError("projects", "update")
			return model.Project{}, fmt.Errorf("update project: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.Project{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
	}

	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return model.Project{}, err
	}
	if p.UserID != userID {
		return model.Project{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return p, nil
}

// DeleteProject implements Store. Events, leads, runs, campaigns and pages
// go with it.
func (s *SQLiteStore) DeleteProject(ctx context.Context, userID, projectID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		metrics.RecordRepositoryError("projects", "delete")
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}

// ProjectStats implements Store.
func (s *SQLiteStore) ProjectStats(ctx context.Context, projectID string) (model.ProjectStats, error) {
	var st model.ProjectStats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM leads WHERE project_id = ?),
			(SELECT COUNT(*) FROM analytics_events WHERE project_id = ? AND event_type = ?)`,
		projectID, projectID, string(model.EventPageView)).Scan(&st.LeadCount, &st.PageViews)
	if err != nil {
		return model.ProjectStats{}, fmt.Errorf("project stats: %w", err)
	}
	return st, nil
}
