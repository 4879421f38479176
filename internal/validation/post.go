// Package validation checks user input at the HTTP boundary.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits, measured in runes after trimming.
const (
	MaxTitleLength    = 16
	MaxContentLength  = 240
	MaxUsernameLength = 16
	MaxCommentLength  = 80
)

// ValidateText trims s and checks that it is non-empty and at most max runes.
// It returns the trimmed value.
func ValidateText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return s, nil
}

// ValidatePost returns the trimmed title and content.
func ValidatePost(title, content string) (string, string, error) {
	t, err := ValidateText("Title", title, MaxTitleLength)
	if err != nil {
		return "", "", err
	}
	c, err := ValidateText("Content", content, MaxContentLength)
	if err != nil {
		return "", "", err
	}
	return t, c, nil
}

// ValidateComment returns the trimmed username and comment text.
func ValidateComment(username, comment string) (string, string, error) {
	u, err := ValidateText("Username", username, MaxUsernameLength)
	if err != nil {
		return "", "", err
	}
	c, err := ValidateText("Comment", comment, MaxCommentLength)
	if err != nil {
		return "", "", err
	}
	return u, c, nil
}

// ParseID parses a positive integer identifier.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISODate parses an ISO-8601 timestamp. Offsets are honored; values
// without one are taken as UTC. The result is normalized to UTC.
func ParseISODate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 date %q", raw)
}
