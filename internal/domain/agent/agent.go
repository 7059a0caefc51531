// Package agent builds the LLM prompts behind each launch step.
package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind names an agent step.
type Kind string

// Agent steps, in the order a project usually runs them.
const (
	KindResearch    Kind = "research"
	KindProductSpec Kind = "product-spec"
	KindLandingPage Kind = "landing-page"
	KindCampaign    Kind = "campaign"
)

// Campaign platforms.
const (
	PlatformTwitter = "twitter"
	PlatformEmail   = "email"
	PlatformMeta    = "meta"
)

// Sentinel errors.
var (
	ErrUnknownKind     = errors.New("unknown agent kind")
	ErrUnknownPlatform = errors.New("unknown campaign platform")
	ErrMissingInput    = errors.New("missing agent input")
)

// ParseKind validates s as an agent kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindResearch, KindProductSpec, KindLandingPage, KindCampaign:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DependsOn returns the step whose output feeds k, if any.
func (k Kind) DependsOn() (Kind, bool) {
	switch k {
	case KindProductSpec:
		return KindResearch, true
	case KindLandingPage, KindCampaign:
		return KindProductSpec, true
	}
	return "", false
}

// Prompt is one completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer turns a prompt into text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Input is what a step knows about the project.
type Input struct {
	ProjectID string
	Name      string
	Niche     string
	// Prior is the output of the step this one depends on; may be empty.
	Prior string
	// Platform is required for campaigns.
	Platform string
	// SiteURL is where generated landing pages post leads and load the beacon.
	SiteURL string
}

var platformBriefs = map[string]string{ //nolint:gochecknoglobals // read-only
	PlatformTwitter: `Create a Twitter/X thread with 5-8 tweets.
- Open with a bold hook
- One benefit per tweet, each under 280 characters
- Close with a clear call to action`,
	PlatformEmail: `Create a cold outreach email.
- Curiosity-driven subject line
- Brief value proposition, under 150 words in total
- One clear call to action and a P.S. line`,
	PlatformMeta: `Create Facebook/Instagram ad copy.
- Benefit-focused headline of at most 40 characters
- Problem, solution, result in three sentences
- Call-to-action button text`,
}

// Build returns the prompt for kind.
func Build(kind Kind, in Input) (Prompt, error) {
	if in.Niche == "" && in.Name == "" {
		return Prompt{}, fmt.Errorf("%w: project name or niche", ErrMissingInput)
	}
	subject := in.Niche
	if subject == "" {
		subject = in.Name
	}

	switch kind {
	case KindResearch:
		return Prompt{
			System:      "You are an expert market researcher. Provide accurate, actionable research. Return only valid JSON.",
			User:        researchPrompt(subject),
			MaxTokens:   2000,
			Temperature: 0.3,
		}, nil
	case KindProductSpec:
		return Prompt{
			System:      "You are a product expert. Return only valid JSON.",
			User:        productSpecPrompt(subject, in),
			MaxTokens:   1000,
			Temperature: 0.7,
		}, nil
	case KindLandingPage:
		if in.ProjectID == "" {
			return Prompt{}, fmt.Errorf("%w: project id", ErrMissingInput)
		}
		return Prompt{
			System:      "You are an expert web designer. Return only valid, complete HTML with embedded CSS.",
			User:        landingPagePrompt(in),
			MaxTokens:   4000,
			Temperature: 0.7,
		}, nil
	case KindCampaign:
		brief, ok := platformBriefs[in.Platform]
		if !ok {
			return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, in.Platform)
		}
		return Prompt{
			System:      "You are a growth marketer writing high-converting, non-salesy campaign copy.",
			User:        campaignPrompt(brief, subject, in),
			MaxTokens:   1000,
			Temperature: 0.8,
		}, nil
	}
	return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func researchPrompt(niche string) string {
	return fmt.Sprintf(`Conduct market research for the %q niche.

Cover industry trends, common pain points, existing competitors with their
pricing, market gaps and social sentiment.

Return JSON:
{
  "pain_points": [{"pain": "...", "frequency": "high|med|low"}],
  "competitors": [{"name": "...", "pricing": "...", "url": "..."}],
  "opportunity_score": 0-100,
  "social_sentiment": "...",
  "recommended_offers": ["..."]
}`, niche)
}

func productSpecPrompt(niche string, in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Act as a product strategist for a %q product named %q.\n\n", niche, in.Name)
	if in.Prior != "" {
		fmt.Fprintf(&b, "Research:\n%s\n\n", in.Prior)
	}
	b.WriteString(`Create a high-converting product specification.

Return JSON:
{
  "hero_offer": "one sentence value proposition",
  "tagline": "5-7 word slogan",
  "pain_solution_map": [{"pain": "...", "solution": "..."}],
  "pricing": {"price": 29, "currency": "$", "billing_cycle": "month"},
  "features": ["..."],
  "differentiation": "...",
  "cta_text": "..."
}`)
	return b.String()
}

func landingPagePrompt(in Input) string {
	site := strings.TrimRight(in.SiteURL, "/")
	var b strings.Builder
	b.WriteString("Create a modern, high-converting landing page for this product.\n\n")
	if in.Prior != "" {
		fmt.Fprintf(&b, "Product spec:\n%s\n\n", in.Prior)
	} else {
		fmt.Fprintf(&b, "Product: %s (%s)\n\n", in.Name, in.Niche)
	}
	fmt.Fprintf(&b, `Requirements:
1. A complete HTML document with embedded CSS and no external files.
2. Mobile responsive, with hero, features, pricing and a lead form (name, email, optional phone).
3. The form POSTs JSON {name, email, phone, project_id: %q, source: "landing_page"} to %s/api/leads/capture.
4. Show a hidden success message after submit.
5. Before </body> add <script src="%s/analytics.js" data-project-id=%q></script>.
6. After a successful submit call window.trackEvent('conversion', {lead_id: email}).

Return only the HTML.`, in.ProjectID, site, site, in.ProjectID)
	return b.String()
}

func campaignPrompt(brief, niche string, in Input) string {
	var b strings.Builder
	b.WriteString(brief)
	fmt.Fprintf(&b, "\n\nTarget niche: %s\n", niche)
	if in.Prior != "" {
		fmt.Fprintf(&b, "Product spec:\n%s\n", in.Prior)
	}
	fmt.Fprintf(&b, "\nGenerate the %s content. Return only the content, no commentary.", in.Platform)
	return b.String()
}

var fenceRe = regexp.MustCompile("```(?:json|html)?\\n?") //nolint:gochecknoglobals // compiled once

// StripFences removes markdown code fences models sometimes wrap output in.
func StripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}
