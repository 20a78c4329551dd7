package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsername(t *testing.T) {
	valid := []string{"alice", "bob_99", "first.last", "user@host", "a+b", "x-y", "Игрок", "mee", "meme", "M"}
	for _, name := range valid {
		t.Run("valid "+name, func(t *testing.T) {
			assert.NoError(t, Username(name))
		})
	}

	invalid := []string{"me", "Me", "ME", "mE", "with space", "", "semi;colon", "tab\there", "slash/no", "trailing\n"}
	for _, name := range invalid {
		t.Run("invalid "+name, func(t *testing.T) {
			assert.ErrorIs(t, Username(name), ErrInvalidUsername)
		})
	}
}

func TestYearAt(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	rule := YearAt(now)

	for _, year := range []int{-500, 0, 1006, 2023, 2024} {
		assert.NoError(t, rule(year), "year %d", year)
	}
	for _, year := range []int{2025, 3006} {
		assert.ErrorIs(t, rule(year), ErrFutureYear, "year %d", year)
	}
}

func TestYear_UsesCurrentYear(t *testing.T) {
	current := time.Now().Year()
	assert.NoError(t, Year(current))
	assert.ErrorIs(t, Year(current+1), ErrFutureYear)
}

func TestScore(t *testing.T) {
	for s := -1; s <= 12; s++ {
		err := Score(s)
		if s >= 1 && s <= 10 {
			assert.NoError(t, err, "score %d", s)
		} else {
			assert.ErrorIs(t, err, ErrOutOfRange, "score %d", s)
		}
	}
}

func TestMaxLen_CountsCharacters(t *testing.T) {
	rule := MaxLen(4)
	assert.NoError(t, rule("Игры"))
	err := rule("Игры!")
	assert.ErrorIs(t, err, ErrTooLong)
	assert.Contains(t, err.Error(), "at most 4")
}

func TestSlugAndEmail(t *testing.T) {
	assert.NoError(t, Slug("sci-fi_2"))
	assert.ErrorIs(t, Slug("sci fi"), ErrInvalidSlug)
	assert.ErrorIs(t, Slug(""), ErrInvalidSlug)

	assert.NoError(t, Email("user@example.com"))
	assert.ErrorIs(t, Email("user@"), ErrInvalidEmail)
}

func TestOneOf(t *testing.T) {
	rule := OneOf("user", "admin")
	assert.NoError(t, rule("admin"))
	assert.ErrorIs(t, rule("root"), ErrInvalidChoice)
}

func TestCheck_StopsAtFirstFailure(t *testing.T) {
	errs := Errors{}
	calls := 0
	counting := func(string) error {
		calls++
		return nil
	}

	ok := Check(errs, "username", "", Required, counting, Username)

	assert.False(t, ok)
	assert.Equal(t, 0, calls, "rules after the failing one must not run")
	assert.Equal(t, []string{ErrRequired.Error()}, errs["username"])
}

func TestErrors_Err(t *testing.T) {
	errs := Errors{}
	require.NoError(t, errs.Err())

	Check(errs, "year", 3006, YearAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	Check(errs, "name", strings.Repeat("x", 300), MaxLen(256))

	err := errs.Err()
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, err.Error(), "name:")
	assert.Contains(t, err.Error(), "year:")
}
