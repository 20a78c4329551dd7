package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authentication credentials were not provided")
	ErrForbidden    = errors.New("you do not have permission to perform this action")
	ErrInvalidCode  = errors.New("invalid confirmation code")

	// ErrDuplicateReview is returned when an author reviews the same title twice.
	ErrDuplicateReview error = &ConflictError{
		Reason:  "duplicate_review",
		Field:   "non_field_errors",
		Message: "you can leave only one review per title",
	}
)

// ConflictError reports a uniqueness violation on a single field.
type ConflictError struct {
	Reason  string
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Field + ": " + e.Message
}

func conflict(field, message string) error {
	return &ConflictError{Reason: "conflict", Field: field, Message: message}
}

func notFound(resource string, key interface{}) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, resource, key)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
