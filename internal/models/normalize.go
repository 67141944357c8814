package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// NameMaxLength bounds item and location names, in characters.
	NameMaxLength = 120
	// LocationGuardMaxSteps caps parent-chain walks; exceeding it means a corrupt graph.
	LocationGuardMaxSteps = 10_000

	TimestampLayout = "2006-01-02T15:04:05Z"
	DateLayout      = "2006-01-02"
)

// NormalizeName trims a name and enforces the non-empty and length rules.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", NewValidationError("name is required and must be a non-empty string")
	}
	if utf8.RuneCountInString(name) > NameMaxLength {
		return "", NewValidationError("name must be at most %d characters", NameMaxLength)
	}
	return name, nil
}

// NormalizeTags lowercases, trims and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

// FoldTextForSort returns an accent-free, case-folded, whitespace-collapsed key.
func FoldTextForSort(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// ParseUUIDv4 accepts only canonical hyphenated version 4 UUIDs.
func ParseUUIDv4(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, NewValidationError("%s must be a UUID v4 string", field)
	}
	if id.Version() != 4 {
		return uuid.Nil, NewValidationError("%s must be a UUID v4 string", field)
	}
	if id.String() != strings.ToLower(value) {
		return uuid.Nil, NewValidationError("%s must be a hyphenated UUID v4 string", field)
	}
	return id, nil
}

// ParseDate validates a YYYY-MM-DD calendar date and returns it unchanged.
func ParseDate(value, field string) (string, error) {
	if len(value) != len(DateLayout) {
		return "", NewValidationError("%s must be in 'YYYY-MM-DD' format", field)
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return "", NewValidationError("%s must be a valid calendar date (YYYY-MM-DD)", field)
	}
	return value, nil
}

// ParseTimestamp parses a second-precision UTC timestamp with a literal Z suffix.
func ParseTimestamp(value, field string) (time.Time, error) {
	ts, err := time.Parse(TimestampLayout, value)
	if err != nil {
		return time.Time{}, NewValidationError("%s must be an ISO-8601 UTC timestamp with 'Z'", field)
	}
	return ts, nil
}

// FormatTimestamp renders ts in the canonical stored form.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimestampLayout)
}

// Now truncates to the stored precision.
func Now(clock func() time.Time) time.Time {
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Second)
}

// NextStrictlyIncreasingTimestamp returns now, or prev+1s when now has not moved past prev.
func NextStrictlyIncreasingTimestamp(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Second)
	if prev.IsZero() {
		return now
	}
	prev = prev.UTC().Truncate(time.Second)
	if !now.After(prev) {
		return prev.Add(time.Second)
	}
	return now
}
