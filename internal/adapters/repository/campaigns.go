package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/metrics"
)

const campaignColumns = `id, project_id, platform, content, status, approval_status, scheduled_for, created_at, updated_at`

// InsertCampaign implements Store. Status and approval default to draft and
// pending.
func (s *SQLiteStore) InsertCampaign(ctx context.Context, c *model.Campaign) error {
	s.stamp(&c.ID, &c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	if c.ApprovalStatus == "" {
		c.ApprovalStatus = model.ApprovalPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Platform, c.Content, string(c.Status), string(c.ApprovalStatus),
		nullableTime(c.ScheduledFor), c.CreatedAt.UnixNano(), c.UpdatedAt.UnixNano())
	if err != nil {
		metrics.RecordRepositoryError("campaigns", "insert")
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func scanCampaign(sc scanner) (model.Campaign, error) {
	var c model.Campaign
	var status, approval string
	var scheduled sql.NullInt64
	var created, updated int64
	err := sc.Scan(&c.ID, &c.ProjectID, &c.Platform, &c.Content, &status, &approval, &scheduled, &created, &updated)
	if err != nil {
		return model.Campaign{}, err
	}
	c.Status = model.CampaignStatus(status)
	c.ApprovalStatus = model.ApprovalStatus(approval)
	c.ScheduledFor = timeOrNil(scheduled)
	c.CreatedAt = time.Unix(0, created).UTC()
	c.UpdatedAt = time.Unix(0, updated).UTC()
	return c, nil
}

// ListCampaigns implements Store.
func (s *SQLiteStore) ListCampaigns(ctx context.Context, projectID string) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	campaigns := make([]model.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// GetCampaign implements Store.
func (s *SQLiteStore) GetCampaign(ctx context.Context, userID, campaignID string) (model.Campaign, error) {
	c, err := scanCampaign(s.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns
		 WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`, campaignID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Campaign{}, fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
	}
	if err != nil {
		return model.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// UpdateCampaign implements Store.
func (s *SQLiteStore) UpdateCampaign(ctx context.Context, userID, campaignID string, patch CampaignPatch) error {
	var sets []string
	var args []any
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.ApprovalStatus != nil {
		sets = append(sets, "approval_status = ?")
		args = append(args, string(*patch.ApprovalStatus))
	}
	if patch.ScheduledFor != nil {
		sets = append(sets, "scheduled_for = ?")
		args = append(args, patch.ScheduledFor.UnixNano())
	}
	if len(sets) == 0 {
		_, err := s.GetCampaign(ctx, userID, campaignID)
		return err
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UTC().UnixNano(), campaignID, userID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET `+strings.Join(sets, ", ")+
			` WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`, args...)
	if err != nil {
		metrics.RecordRepositoryError("campaigns", "update")
		return fmt.Errorf("update campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
	}
	return nil
}

// DeleteCampaign implements Store.
func (s *SQLiteStore) DeleteCampaign(ctx context.Context, userID, campaignID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM campaigns WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
		campaignID, userID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}
