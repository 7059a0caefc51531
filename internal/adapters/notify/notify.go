// Package notify delivers lead notifications to project owners.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/nextwave678/launchit/internal/adapters/jsonhttp"
	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/logger"
)

// ErrNoRecipient is returned for a notification without an address.
var ErrNoRecipient = errors.New("notification has no recipient")

const notProvided = "Not provided"

// LogNotifier writes notifications to the log. It is the default when no
// email API key is configured.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Get().Named("notify")
	}
	return &LogNotifier{logger: l}
}

// Notify logs n.
func (n *LogNotifier) Notify(ctx context.Context, note model.Notification) error { //nolint:gocritic // hugeParam
	if note.To == "" {
		return ErrNoRecipient
	}
	n.logger.Info(ctx, "new lead",
		logger.String("to", note.To),
		logger.String("project", note.ProjectName),
		logger.String("lead_id", note.Lead.ID),
		logger.String("lead_email", note.Lead.Email),
		logger.Int("quality_score", note.Lead.QualityScore),
	)
	return nil
}

// EmailNotifier sends notifications through a Resend-compatible email API.
type EmailNotifier struct {
	client  *jsonhttp.Client
	url     string
	apiKey  string
	from    string
	siteURL string
}

// EmailOption configures an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithClient replaces the HTTP client.
func WithClient(c *jsonhttp.Client) EmailOption {
	return func(e *EmailNotifier) {
		if c != nil {
			e.client = c
		}
	}
}

// WithSiteURL sets the dashboard link base.
func WithSiteURL(u string) EmailOption {
	return func(e *EmailNotifier) { e.siteURL = u }
}

// NewEmailNotifier creates an EmailNotifier posting to url.
func NewEmailNotifier(url, apiKey, from string, opts ...EmailOption) *EmailNotifier {
	e := &EmailNotifier{url: url, apiKey: apiKey, from: from}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = jsonhttp.New("email")
	}
	return e
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// Notify sends one email.
func (e *EmailNotifier) Notify(ctx context.Context, note model.Notification) error { //nolint:gocritic // hugeParam
	if note.To == "" {
		return ErrNoRecipient
	}
	body, err := renderLeadEmail(note, e.siteURL)
	if err != nil {
		return err
	}

	var out emailResponse
	err = e.client.Post(ctx, e.url,
		map[string]string{"Authorization": "Bearer " + e.apiKey},
		emailRequest{From: e.from, To: []string{note.To}, Subject: "New Lead Captured!", HTML: body},
		&out,
	)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

var leadEmail = template.Must(template.New("lead").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>New lead for {{.Project}}</h2>
<p>You've got a new lead from your landing page:</p>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Source:</strong> {{.Source}}</p>
<p><strong>Quality score:</strong> {{.Score}}</p>
{{if .Dashboard}}<p><a href="{{.Dashboard}}">View lead in dashboard</a></p>{{end}}
</div>`))

func renderLeadEmail(note model.Notification, siteURL string) (string, error) { //nolint:gocritic // hugeParam
	data := struct {
		Project, Name, Email, Phone, Source, Dashboard string
		Score                                         int
	}{
		Project: note.ProjectName,
		Name:    orNotProvided(note.Lead.Name),
		Email:   note.Lead.Email,
		Phone:   orNotProvided(note.Lead.Phone),
		Source:  orNotProvided(note.Lead.Source),
		Score:   note.Lead.QualityScore,
	}
	if siteURL != "" {
		data.Dashboard = siteURL + "/dashboard"
	}

	var buf bytes.Buffer
	if err := leadEmail.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func orNotProvided(s string) string {
	if s == "" {
		return notProvided
	}
	return s
}
