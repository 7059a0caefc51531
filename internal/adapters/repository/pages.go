package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/metrics"
)

const pageColumns = `id, project_id, slug, html_content, meta_description, is_active, deployed_at, view_count, created_at`

// InsertLandingPage implements Store.
func (s *SQLiteStore) InsertLandingPage(ctx context.Context, p *model.LandingPage) error {
	s.stamp(&p.ID, &p.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO landing_pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProjectID, p.Slug, p.HTML, p.MetaDescription, p.IsActive,
		nullableTime(p.DeployedAt), p.ViewCount, p.CreatedAt.UnixNano())
	if err != nil {
		metrics.RecordRepositoryError("landing_pages", "insert")
		return fmt.Errorf("insert landing page: %w", err)
	}
	return nil
}

func scanPage(sc scanner) (model.LandingPage, error) {
	var p model.LandingPage
	var deployed sql.NullInt64
	var created int64
	err := sc.Scan(&p.ID, &p.ProjectID, &p.Slug, &p.HTML, &p.MetaDescription, &p.IsActive,
		&deployed, &p.ViewCount, &created)
	if err != nil {
		return model.LandingPage{}, err
	}
	p.DeployedAt = timeOrNil(deployed)
	p.CreatedAt = time.Unix(0, created).UTC()
	return p, nil
}

// ListLandingPages implements Store.
func (s *SQLiteStore) ListLandingPages(ctx context.Context, projectID string) ([]model.LandingPage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM landing_pages WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list landing pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pages := make([]model.LandingPage, 0)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan landing page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// SetLandingPageActive implements Store. Publishing stamps deployed_at;
// unpublishing keeps the last deployment time.
func (s *SQLiteStore) SetLandingPageActive(ctx context.Context, userID, pageID string, active bool) error {
	query := `UPDATE landing_pages SET is_active = 0`
	args := []any{}
	if active {
		query = `UPDATE landing_pages SET is_active = 1, deployed_at = ?`
		args = append(args, s.now().UTC().UnixNano())
	}
	args = append(args, pageID, userID)

	res, err := s.db.ExecContext(ctx,
		query+` WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`, args...)
	if err != nil {
		metrics.RecordRepositoryError("landing_pages", "update")
		return fmt.Errorf("update landing page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("landing page %s: %w", pageID, ErrNotFound)
	}
	return nil
}

// DeleteLandingPage implements Store.
func (s *SQLiteStore) DeleteLandingPage(ctx context.Context, userID, pageID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM landing_pages WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
		pageID, userID)
	if err != nil {
		return fmt.Errorf("delete landing page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("landing page %s: %w", pageID, ErrNotFound)
	}
	return nil
}

// ViewLandingPage implements Store. The returned page carries the
// incremented view count.
func (s *SQLiteStore) ViewLandingPage(ctx context.Context, slug string) (model.LandingPage, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE landing_pages SET view_count = view_count + 1 WHERE slug = ? AND is_active = 1`, slug)
	if err != nil {
		metrics.RecordRepositoryError("landing_pages", "update")
		return model.LandingPage{}, fmt.Errorf("count landing page view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.LandingPage{}, fmt.Errorf("landing page %s: %w", slug, ErrNotFound)
	}

	p, err := scanPage(s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM landing_pages WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.LandingPage{}, fmt.Errorf("landing page %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return model.LandingPage{}, fmt.Errorf("get landing page: %w", err)
	}
	return p, nil
}
