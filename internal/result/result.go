// Package result defines the closed outcome taxonomy returned by every
// engine operation.
package result

import "fmt"

// Status is the outcome of an engine operation.
type Status int

const (
	Success Status = iota
	Unknown
	MissingEntry
	DuplicateEntry
	CommandTimeout
	VersionMismatch
	ForeignKeyConstraintFails
	DeadlockFound
	DataTooLong
)

var statusNames = [...]string{
	Success:                   "Success",
	Unknown:                   "Unknown",
	MissingEntry:              "MissingEntry",
	DuplicateEntry:            "DuplicateEntry",
	CommandTimeout:            "CommandTimeout",
	VersionMismatch:           "VersionMismatch",
	ForeignKeyConstraintFails: "ForeignKeyConstraintFails",
	DeadlockFound:             "DeadlockFound",
	DataTooLong:               "DataTooLong",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus returns the Status with the given name.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown status %q", name)
}

// IsFatal reports whether the status is environmental (timeout or deadlock).
// Fatal statuses are escalated as errors and never absorbed into a Result.
func (s Status) IsFatal() bool {
	return s == CommandTimeout || s == DeadlockFound
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Result tags a value with the Status of the operation that produced it.
type Result[T any] struct {
	Status Status
	Value  T
}

// Ok returns a successful Result holding v.
func Ok[T any](v T) Result[T] {
	return Result[T]{Status: Success, Value: v}
}

// Fail returns a Result with the given status and value.
func Fail[T any](s Status, v T) Result[T] {
	return Result[T]{Status: s, Value: v}
}

func (r Result[T]) IsSuccess() bool { return r.Status == Success }
func (r Result[T]) IsFailure() bool { return r.Status != Success }
func (r Result[T]) IsFatal() bool   { return r.Status.IsFatal() }

func (r Result[T]) String() string {
	return fmt.Sprintf("{%s %v}", r.Status, r.Value)
}
