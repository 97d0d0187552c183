package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hospitalhub/profile-intake/internal/config"
	"github.com/hospitalhub/profile-intake/internal/database"
	"github.com/hospitalhub/profile-intake/pkg/validator"
)

var (
	// ErrNotFound indicates the requested profile does not exist
	ErrNotFound = database.ErrNotFound

	// ErrUnauthorized indicates a review action without an authenticated admin
	ErrUnauthorized = errors.New("administrator authentication required")

	// ErrUnknownAction indicates a review action outside approve/reject/pending/delete
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidCredentials indicates a failed admin login
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries every field failure found in a submission
type ValidationError struct {
	Failures []validator.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, " ")
}

// Messages returns the human readable failure messages in order
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

// PersistenceError wraps a storage failure. Only Op is safe to show to callers.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConfigurationError lists required settings that are not set
type ConfigurationError = config.ConfigurationError
