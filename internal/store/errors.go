package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/prices/internal/result"
)

// Error is a failure that escaped a unit of work: an escalated timeout or
// deadlock, or a failure outside the status taxonomy (Status Unknown).
type Error struct {
	Op     string
	Status result.Status
	Err    error
}

func (e *Error) Error() string {
	msg := e.Status.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Fail returns an error carrying status. Returned from a unit of work, it
// rolls the transaction back and becomes the Result status.
func Fail(status result.Status, format string, args ...any) error {
	return &Error{Status: status, Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err carries a timeout or deadlock status.
func IsFatal(err error) bool {
	return StatusOf(err).IsFatal()
}

// StatusOf returns the status carried by err, Success for nil, and Unknown
// when err carries none.
func StatusOf(err error) result.Status {
	if err == nil {
		return result.Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return result.Unknown
}

// Classify maps err onto the status taxonomy. ok is false for failures
// outside it.
func (s *Store) Classify(err error) (result.Status, bool) {
	var e *Error
	if errors.As(err, &e) && e.Status != result.Unknown {
		return e.Status, true
	}
	if status, ok := s.dialect.Classify(err); ok {
		return status, true
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return result.MissingEntry, true
	case errors.Is(err, context.DeadlineExceeded):
		return result.CommandTimeout, true
	}
	return result.Unknown, false
}
