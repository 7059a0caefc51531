// Package leads scores and validates contacts captured from landing pages.
package leads

import (
	"regexp"
	"strings"
)

// DefaultSource is recorded when the form does not say where the lead came from.
const DefaultSource = "unknown"

const (
	baseScore     = 50
	freeMailBonus = 10
	workMailBonus = 20
	noAtPenalty   = 20
	fullNameBonus = 15
	phoneBonus    = 15
	minPhoneLen   = 10
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`) //nolint:gochecknoglobals // compiled once

	freeMailDomains = []string{"@gmail.com", "@yahoo.com", "@hotmail.com"} //nolint:gochecknoglobals // read-only
)

// ValidEmail reports whether email looks deliverable: something@something.tld
// with no whitespace.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// QualityScore rates a lead from 0 to 100. Work addresses outrank free mail,
// and a full name or a phone number each add to the score.
func QualityScore(email, name, phone string) int {
	score := baseScore

	switch {
	case isFreeMail(email):
		score += freeMailBonus
	case !strings.Contains(email, "@"):
		score -= noAtPenalty
	default:
		score += workMailBonus
	}

	if name != "" && len(strings.Split(name, " ")) > 1 {
		score += fullNameBonus
	}

	if len(phone) >= minPhoneLen {
		score += phoneBonus
	}

	return max(0, min(100, score))
}

func isFreeMail(email string) bool {
	for _, d := range freeMailDomains {
		if strings.Contains(email, d) {
			return true
		}
	}
	return false
}

// SourceOrDefault returns source, or DefaultSource when it is blank.
func SourceOrDefault(source string) string {
	if strings.TrimSpace(source) == "" {
		return DefaultSource
	}
	return source
}
