// Package validation holds the field rules shared by services. A rule is a pure
// function of the value; callers compose rules per field in the order they
// should run, and the first failing rule is the one reported for that field.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrInvalidUsername = errors.New("enter a valid username: letters, digits and @/./+/-/_ only, \"me\" is reserved")
	ErrFutureYear      = errors.New("year cannot be in the future")
	ErrOutOfRange      = errors.New("score must be between 1 and 10")
	ErrRequired        = errors.New("this field is required")
	ErrTooLong         = errors.New("value is too long")
	ErrInvalidSlug     = errors.New("enter a valid slug: letters, numbers, underscores or hyphens")
	ErrInvalidEmail    = errors.New("enter a valid email address")
	ErrInvalidChoice   = errors.New("value is not a valid choice")

	usernameRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

const (
	MinScore = 1
	MaxScore = 10
)

// Rule checks one value and returns nil or the reason it is rejected.
type Rule[T any] func(T) error

// Errors collects messages keyed by field name.
type Errors map[string][]string

// Add records a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Empty reports whether no field failed.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Err returns nil when nothing failed, otherwise an *Error carrying the fields.
func (e Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return &Error{Fields: e}
}

// Check runs rules against value in order and records the first failure under field.
func Check[T any](errs Errors, field string, value T, rules ...Rule[T]) bool {
	for _, rule := range rules {
		if err := rule(value); err != nil {
			errs.Add(field, err.Error())
			return false
		}
	}
	return true
}

// Error is returned by services when one or more fields are invalid.
type Error struct {
	Fields Errors
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// FieldError builds an *Error for a single field.
func FieldError(field, message string) error {
	return &Error{Fields: Errors{field: {message}}}
}

// Username accepts letters, digits and @.+-_ and rejects "me" in any case.
func Username(name string) error {
	if !usernameRegex.MatchString(name) || strings.EqualFold(name, "me") {
		return ErrInvalidUsername
	}
	return nil
}

// Year rejects years after the current calendar year.
func Year(year int) error {
	return YearAt(time.Now())(year)
}

// YearAt is Year with an explicit clock.
func YearAt(now time.Time) Rule[int] {
	return func(year int) error {
		if year > now.Year() {
			return ErrFutureYear
		}
		return nil
	}
}

// Score accepts 1..10 inclusive.
func Score(value int) error {
	if value < MinScore || value > MaxScore {
		return ErrOutOfRange
	}
	return nil
}

// Required rejects empty and whitespace-only strings.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrRequired
	}
	return nil
}

// MaxLen limits the length in characters, not bytes.
func MaxLen(n int) Rule[string] {
	return func(value string) error {
		if utf8.RuneCountInString(value) > n {
			return fmt.Errorf("%w: at most %d characters", ErrTooLong, n)
		}
		return nil
	}
}

func Slug(value string) error {
	if !slugRegex.MatchString(value) {
		return ErrInvalidSlug
	}
	return nil
}

func Email(value string) error {
	if !emailRegex.MatchString(value) {
		return ErrInvalidEmail
	}
	return nil
}

// OneOf accepts only the listed values.
func OneOf[T comparable](allowed ...T) Rule[T] {
	return func(value T) error {
		for _, candidate := range allowed {
			if value == candidate {
				return nil
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidChoice, value)
	}
}
