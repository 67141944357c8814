package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  Toolbox \t")
	require.NoError(t, err)
	assert.Equal(t, "Toolbox", name)

	_, err = NormalizeName("   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NormalizeName(strings.Repeat("ü", NameMaxLength))
	assert.NoError(t, err)
	_, err = NormalizeName(strings.Repeat("x", NameMaxLength+1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeTagsIsIdempotent(t *testing.T) {
	in := []string{" Garden", "garden", "", "TOOLS", "  ", "tools", "Seeds"}
	once := NormalizeTags(in)

	assert.Equal(t, []string{"garden", "tools", "seeds"}, once)
	assert.Equal(t, once, NormalizeTags(once))
	assert.Empty(t, NormalizeTags(nil))
}

func TestFoldTextForSort(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"Crème  Brûlée":   "creme brulee",
		"  ÄRMEL\tSchrank": "armel schrank",
		"Garage / Shelf":  "garage / shelf",
	}
	for in, want := range cases {
		assert.Equal(t, want, FoldTextForSort(in), "input %q", in)
	}
}

func TestParseUUIDv4(t *testing.T) {
	id := uuid.New()
	got, err := ParseUUIDv4(id.String(), "item_id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, bad := range []string{
		"",
		"not-a-uuid",
		strings.ReplaceAll(id.String(), "-", ""),
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8", // version 1
	} {
		_, err := ParseUUIDv4(bad, "item_id")
		assert.ErrorIs(t, err, ErrValidation, "input %q", bad)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29", "due_date")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)

	for _, bad := range []string{"2023-02-29", "2024-2-01", "2024-02-01T00:00:00Z", "tomorrow"} {
		_, err := ParseDate(bad, "due_date")
		assert.ErrorIs(t, err, ErrValidation, "input %q", bad)
	}
}

func TestParseAndFormatTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-03-04T05:06:07Z", "updated_after")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04T05:06:07Z", FormatTimestamp(ts))

	_, err = ParseTimestamp("2024-03-04T05:06:07+01:00", "updated_after")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNextStrictlyIncreasingTimestamp(t *testing.T) {
	prev := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, prev.Add(time.Second), NextStrictlyIncreasingTimestamp(prev, prev))
	assert.Equal(t, prev.Add(time.Second), NextStrictlyIncreasingTimestamp(prev, prev.Add(-time.Hour)))
	assert.Equal(t, prev.Add(time.Minute), NextStrictlyIncreasingTimestamp(prev, prev.Add(time.Minute+300*time.Millisecond)))
	assert.Equal(t, prev, NextStrictlyIncreasingTimestamp(time.Time{}, prev))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeValidation, ErrorCode(NewValidationError("bad")))
	assert.Equal(t, CodeNotFound, ErrorCode(&NotFoundError{Resource: "item"}))
	assert.Equal(t, CodeConflict, ErrorCode(&ConflictError{Expected: 2, Actual: 3}))
	assert.Equal(t, CodeStorage, ErrorCode(NewStorageError("save", assert.AnError)))
	assert.Equal(t, CodeInternal, ErrorCode(assert.AnError))
	assert.Equal(t, "version conflict: expected 2, actual 3", (&ConflictError{Expected: 2, Actual: 3}).Error())
}
