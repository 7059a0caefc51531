package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

const maxSlugBase = 50

var slugRe = regexp.MustCompile(`[^a-z0-9]+`) //nolint:gochecknoglobals // compiled once

// Slug derives a landing page slug from a project name. suffix keeps
// slugs of same-named projects apart.
func Slug(name, suffix string) string {
	base := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	if base == "" {
		base = "page"
	}
	return base + "-" + suffix
}

// Tagline extracts the tagline from product spec output, or "" when the
// output is not a spec.
func Tagline(spec string) string {
	var v struct {
		Tagline string `json:"tagline"`
	}
	if err := json.Unmarshal([]byte(spec), &v); err != nil {
		return ""
	}
	return strings.TrimSpace(v.Tagline)
}
