package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/metrics"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	defaultMaxEvents = 10_000
	defaultLeadLimit = 50
	maxLeadLimit     = 100
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db        *sql.DB
	maxEvents int
	now       func() time.Time
	newID     func() string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &SQLiteStore{
		db:        db,
		maxEvents: defaultMaxEvents,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			niche TEXT NOT NULL DEFAULT '',
			owner_email TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'researching',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id, created_at);

		CREATE TABLE IF NOT EXISTS analytics_events (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			event_type TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_project_time ON analytics_events(project_id, created_at);

		CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			email TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			quality_score INTEGER NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_leads_project_time ON leads(project_id, created_at);

		CREATE TABLE IF NOT EXISTS agent_runs (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			output TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_agent_runs_project ON agent_runs(project_id, kind, created_at);

		CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			platform TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			approval_status TEXT NOT NULL,
			scheduled_for INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_campaigns_project ON campaigns(project_id, created_at);

		CREATE TABLE IF NOT EXISTS landing_pages (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			slug TEXT NOT NULL UNIQUE,
			html_content TEXT NOT NULL,
			meta_description TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 0,
			deployed_at INTEGER,
			view_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_landing_pages_project ON landing_pages(project_id, created_at);
	`)
	return err
}

// stamp fills id and creation time when the caller left them empty.
func (s *SQLiteStore) stamp(id *string, created *time.Time) {
	if *id == "" {
		*id = s.newID()
	}
	if created.IsZero() {
		*created = s.now().UTC()
	}
}

// CreateProject inserts p, assigning ID and CreatedAt when empty. Status
// defaults to researching.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) error {
	s.stamp(&p.ID, &p.CreatedAt)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Status == "" {
		p.Status = model.ProjectResearching
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, name, niche, owner_email, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Niche, p.OwnerEmail, string(p.Status), p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano())
	if err != nil {
		metrics.RecordRepositoryError("projects", "insert")
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

const projectColumns = `id, user_id, name, niche, owner_email, status, created_at, updated_at`

func scanProject(sc scanner) (model.Project, error) {
	var p model.Project
	var status string
	var created, updated int64
	if err := sc.Scan(&p.ID, &p.UserID, &p.Name, &p.Niche, &p.OwnerEmail, &status, &created, &updated); err != nil {
		return model.Project{}, err
	}
	p.Status = model.ProjectStatus(status)
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return p, nil
}

// GetProject implements Store.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (model.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ProjectOwnedBy implements Store.
func (s *SQLiteStore) ProjectOwnedBy(ctx context.Context, projectID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM projects WHERE id = ? AND user_id = ?`, projectID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check project owner: %w", err)
	}
	return true, nil
}

// InsertEvent implements Store.
func (s *SQLiteStore) InsertEvent(ctx context.Context, e *model.AnalyticsEvent) error {
	s.stamp(&e.ID, &e.CreatedAt)
	meta, err := encodeMeta(e.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analytics_events (id, project_id, event_type, session_id, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, string(e.EventType), e.SessionID, meta, e.CreatedAt.UnixNano())
	if err != nil {
		metrics.RecordRepositoryError("analytics_events", "insert")
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents implements Store. Results never exceed the configured maximum.
func (s *SQLiteStore) ListEvents(ctx context.Context, f EventFilter) ([]model.AnalyticsEvent, error) {
	if f.ProjectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidFilter)
	}

	where := []string{"project_id = ?"}
	args := []any{f.ProjectID}
	if !f.Start.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Start.UnixNano())
	}
	if !f.End.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, f.End.UnixNano())
	}
	if f.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, string(f.EventType))
	}

	limit := f.Limit
	if limit <= 0 || limit > s.maxEvents {
		limit = s.maxEvents
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, event_type, session_id, metadata, created_at FROM analytics_events
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]model.AnalyticsEvent, 0)
	for rows.Next() {
		var e model.AnalyticsEvent
		var typ, meta string
		var created int64
		if err := rows.Scan(&e.ID, &e.ProjectID, &typ, &e.SessionID, &meta, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.EventType = model.EventType(typ)
		e.CreatedAt = time.Unix(0, created).UTC()
		if e.Metadata, err = decodeMeta(meta); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// InsertLead implements Store.
func (s *SQLiteStore) InsertLead(ctx context.Context, l *model.Lead) error {
	s.stamp(&l.ID, &l.CreatedAt)
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	meta, err := encodeMeta(l.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, project_id, email, name, phone, company, message, source, status, quality_score, notes, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ProjectID, l.Email, l.Name, l.Phone, l.Company, l.Message, l.Source, string(l.Status),
		l.QualityScore, l.Notes, meta, l.CreatedAt.UnixNano(), l.UpdatedAt.UnixNano())
	if err != nil {
		metrics.RecordRepositoryError("leads", "insert")
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

const leadColumns = `l.id, l.project_id, l.email, l.name, l.phone, l.company, l.message, l.source,
	l.status, l.quality_score, l.notes, l.metadata, l.created_at, l.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(sc scanner) (model.Lead, error) {
	var l model.Lead
	var status, meta string
	var created, updated int64
	err := sc.Scan(&l.ID, &l.ProjectID, &l.Email, &l.Name, &l.Phone, &l.Company, &l.Message, &l.Source,
		&status, &l.QualityScore, &l.Notes, &meta, &created, &updated)
	if err != nil {
		return model.Lead{}, err
	}
	l.Status = model.LeadStatus(status)
	l.CreatedAt = time.Unix(0, created).UTC()
	l.UpdatedAt = time.Unix(0, updated).UTC()
	if l.Metadata, err = decodeMeta(meta); err != nil {
		return model.Lead{}, err
	}
	return l, nil
}

// ListLeads implements Store. Page defaults to 1 and Limit to 50, capped at 100.
func (s *SQLiteStore) ListLeads(ctx context.Context, f LeadFilter) ([]model.Lead, int, error) {
	if f.UserID == "" {
		return nil, 0, fmt.Errorf("%w: user id is required", ErrInvalidFilter)
	}
	page, limit := NormalizePage(f.Page, f.Limit)

	where := []string{"p.user_id = ?"}
	args := []any{f.UserID}
	if f.ProjectID != "" {
		where = append(where, "l.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		where = append(where, "l.status = ?")
		args = append(args, string(f.Status))
	}
	from := ` FROM leads l JOIN projects p ON p.id = l.project_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+from+` ORDER BY l.created_at DESC, l.rowid DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	leads := make([]model.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, total, rows.Err()
}

// ExportLeads implements Store.
func (s *SQLiteStore) ExportLeads(ctx context.Context, userID, projectID string) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads l JOIN projects p ON p.id = l.project_id
		 WHERE l.project_id = ? AND p.user_id = ? ORDER BY l.created_at DESC, l.rowid DESC`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("export leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	leads := make([]model.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// NormalizePage applies the lead paging defaults and bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLeadLimit
	}
	if limit > maxLeadLimit {
		limit = maxLeadLimit
	}
	return page, limit
}

func (s *SQLiteStore) ownedLead(ctx context.Context, userID, leadID string) (model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads l JOIN projects p ON p.id = l.project_id WHERE l.id = ? AND p.user_id = ?`,
		leadID, userID)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lead{}, fmt.Errorf("lead %s: %w", leadID, ErrNotFound)
	}
	if err != nil {
		return model.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

// UpdateLead implements Store.
func (s *SQLiteStore) UpdateLead(ctx context.Context, userID, leadID string, patch LeadPatch) (model.Lead, error) {
	var sets []string
	var args []any
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if len(sets) == 0 {
		return s.ownedLead(ctx, userID, leadID)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UTC().UnixNano(), leadID, userID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET `+strings.Join(sets, ", ")+
			` WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`, args...)
	if err != nil {
		return model.Lead{}, fmt.Errorf("update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Lead{}, fmt.Errorf("lead %s: %w", leadID, ErrNotFound)
	}
	return s.ownedLead(ctx, userID, leadID)
}

// DeleteLead implements Store.
func (s *SQLiteStore) DeleteLead(ctx context.Context, userID, leadID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM leads WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
		leadID, userID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %s: %w", leadID, ErrNotFound)
	}
	return nil
}

// InsertAgentRun implements Store.
func (s *SQLiteStore) InsertAgentRun(ctx context.Context, r *model.AgentRun) error {
	s.stamp(&r.ID, &r.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_runs (id, project_id, user_id, kind, output, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProjectID, r.UserID, r.Kind, r.Output, r.CreatedAt.UnixNano())
	if err != nil {
		metrics.RecordRepositoryError("agent_runs", "insert")
		return fmt.Errorf("insert agent run: %w", err)
	}
	return nil
}

func scanRun(sc scanner) (model.AgentRun, error) {
	var r model.AgentRun
	var created int64
	if err := sc.Scan(&r.ID, &r.ProjectID, &r.UserID, &r.Kind, &r.Output, &created); err != nil {
		return model.AgentRun{}, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

// LatestAgentRun implements Store.
func (s *SQLiteStore) LatestAgentRun(ctx context.Context, projectID, kind string) (model.AgentRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, user_id, kind, output, created_at FROM agent_runs
		 WHERE project_id = ? AND kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, projectID, kind)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AgentRun{}, fmt.Errorf("%s run for %s: %w", kind, projectID, ErrNotFound)
	}
	if err != nil {
		return model.AgentRun{}, fmt.Errorf("get agent run: %w", err)
	}
	return r, nil
}

// ListAgentRuns implements Store.
func (s *SQLiteStore) ListAgentRuns(ctx context.Context, projectID string) ([]model.AgentRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, user_id, kind, output, created_at FROM agent_runs
		 WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list agent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]model.AgentRun, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func encodeMeta(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

func decodeMeta(s string) (map[string]any, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
