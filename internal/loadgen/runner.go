package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nextwave678/launchit/internal/auth"
	"github.com/nextwave678/launchit/internal/domain/analytics"
	"github.com/nextwave678/launchit/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	tokenTTL            = time.Hour
)

// ErrMismatch is returned when the server report disagrees with the
// accepted traffic.
var ErrMismatch = errors.New("analytics report mismatch")

// Run executes one load run and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting launchit load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.Events),
		logger.Int("leads", cfg.Leads),
		logger.Int("workers", cfg.Workers))

	client := newHTTPClient(strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Act as a fresh owner
	owner := "loadgen-" + uuid.NewString()
	token, err := auth.NewVerifier(cfg.Secret).Issue(owner, owner+"@loadgen.test", tokenTTL)
	if err != nil {
		return stats, fmt.Errorf("issue token: %w", err)
	}
	client.token = token

	projectID, err := createProject(ctx, client, owner)
	if err != nil {
		return stats, fmt.Errorf("create project: %w", err)
	}
	log.Info(ctx, "project created", logger.String("project_id", projectID))

	// Step 3: Generate and submit traffic
	traffic := Generate(projectID, cfg.Events, cfg.Leads, cfg.Sessions, cfg.Seed)
	beaconOutcomes := submitAll(ctx, client, cfg, "/api/analytics/track", traffic.Beacons)
	leadOutcomes := submitAll(ctx, client, cfg, "/api/leads/capture", traffic.Leads)
	for _, o := range beaconOutcomes {
		stats.count(o, false)
	}
	for _, o := range leadOutcomes {
		stats.count(o, true)
	}
	if ctx.Err() != nil {
		return stats, ctx.Err()
	}

	// Step 4: Compare the report with what was accepted
	var got analytics.Report
	status, err := client.do(ctx, http.MethodGet, "/api/analytics?projectId="+url.QueryEscape(projectID), nil, &got)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("unexpected status %d", status)
	}
	if err != nil {
		return stats, fmt.Errorf("fetch report: %w", err)
	}
	stats.Mismatches = Compare(Expected(traffic, beaconOutcomes, leadOutcomes), got.Summary)

	if cfg.OutputFile != "" {
		if err := saveTraffic(cfg.OutputFile, traffic); err != nil {
			log.Warn(ctx, "failed to save traffic to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(stats.Mismatches) > 0 {
		for _, m := range stats.Mismatches {
			log.Error(ctx, "report mismatch", logger.String("detail", m))
		}
		return stats, fmt.Errorf("%w: %d difference(s)", ErrMismatch, len(stats.Mismatches))
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func checkServiceHealth(ctx context.Context, c *HTTPClient) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned status %d", status)
	}
	return nil
}

func createProject(ctx context.Context, c *HTTPClient, owner string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	status, err := c.do(ctx, http.MethodPost, "/api/projects",
		map[string]string{"name": "Load run " + owner, "niche": "load testing"}, &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated || out.ID == "" {
		return "", fmt.Errorf("unexpected status %d", status)
	}
	return out.ID, nil
}

func saveTraffic(filename string, t Traffic) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, filePermission)
}

func displayFinalStats(ctx context.Context, s *Stats) {
	var perSecond float64
	if s.Duration > 0 {
		sent := s.EventsAccepted + s.EventsLimited + s.EventsRejected + s.EventsFailed +
			s.LeadsAccepted + s.LeadsLimited + s.LeadsRejected + s.LeadsFailed
		perSecond = float64(sent) / s.Duration.Seconds()
	}
	logger.Get().Named("loadgen").Info(ctx, "final statistics",
		logger.Int("eventsAccepted", s.EventsAccepted),
		logger.Int("eventsLimited", s.EventsLimited),
		logger.Int("eventsRejected", s.EventsRejected),
		logger.Int("eventsFailed", s.EventsFailed),
		logger.Int("leadsAccepted", s.LeadsAccepted),
		logger.Int("leadsLimited", s.LeadsLimited),
		logger.Int("leadsRejected", s.LeadsRejected),
		logger.Int("leadsFailed", s.LeadsFailed),
		logger.Int("mismatches", len(s.Mismatches)),
		logger.Duration("duration", s.Duration),
		logger.Float64("requestsPerSecond", perSecond))
}
