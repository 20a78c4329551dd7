package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodeGenerator_MakeAndCheck(t *testing.T) {
	gen := NewCodeGenerator(jwtSecret, 72*time.Hour)
	user := reviewer(models.RoleUser)

	code := gen.Make(user)

	require.True(t, strings.Contains(code, "-"), "code should carry a timestamp part")
	assert.True(t, gen.Check(user, code))
}

func TestCodeGenerator_InvalidatedByStateChange(t *testing.T) {
	gen := NewCodeGenerator(jwtSecret, 72*time.Hour)
	user := reviewer(models.RoleUser)
	code := gen.Make(user)

	login := time.Now()
	user.LastLogin = &login
	assert.False(t, gen.Check(user, code), "code must not survive a login")

	user.LastLogin = nil
	user.Email = "changed@example.com"
	assert.False(t, gen.Check(user, code), "code must not survive an email change")
}

func TestCodeGenerator_Expiry(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewCodeGenerator(jwtSecret, time.Hour).WithClock(fixedClock(issued))
	user := reviewer(models.RoleUser)
	code := gen.Make(user)

	assert.True(t, gen.WithClock(fixedClock(issued.Add(59*time.Minute))).Check(user, code))
	assert.False(t, gen.WithClock(fixedClock(issued.Add(61*time.Minute))).Check(user, code))
}

func TestCodeGenerator_RejectsGarbage(t *testing.T) {
	gen := NewCodeGenerator(jwtSecret, time.Hour)
	user := reviewer(models.RoleUser)
	code := gen.Make(user)

	for _, bad := range []string{"", "nodash", "zz-", "!!-abc", code + "0", code[:len(code)-1]} {
		assert.False(t, gen.Check(user, bad), "code %q", bad)
	}
	assert.False(t, gen.Check(nil, code))
}

func TestCodeGenerator_SecretMatters(t *testing.T) {
	user := reviewer(models.RoleUser)
	code := NewCodeGenerator(jwtSecret, time.Hour).Make(user)

	assert.False(t, NewCodeGenerator("someone-else", time.Hour).Check(user, code))
	long := strings.Repeat("k", 100)
	assert.True(t, NewCodeGenerator(long, time.Hour).Check(user, NewCodeGenerator(long, time.Hour).Make(user)))
}

func TestCheck_SubSecondLoginChangeInvalidates(t *testing.T) {
	gen := NewCodeGenerator(jwtSecret, time.Hour)
	user := reviewer(models.RoleUser)

	first := time.Date(2026, 10, 18, 12, 0, 0, 100_000, time.UTC)
	user.LastLogin = &first
	code := gen.Make(user)
	require.True(t, gen.Check(user, code))

	second := first.Add(time.Microsecond)
	user.LastLogin = &second
	assert.False(t, gen.Check(user, code), "code must not survive a login in the same second")
}
