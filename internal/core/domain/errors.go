package domain

import "fmt"

// ValidationReason classifies a rejected stage change.
type ValidationReason string

const (
	ReasonUnrecognized ValidationReason = "unrecognized"
	ReasonRegression   ValidationReason = "regression"
	ReasonSkip         ValidationReason = "skip"
)

// ValidationError is returned when a requested stage change breaks the trip
// progression. Its message names stages by label.
type ValidationError struct {
	Reason    ValidationReason
	Current   TripStatus
	Requested TripStatus
	Expected  TripStatus
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonUnrecognized:
		return fmt.Sprintf("unrecognized status %q", string(e.Requested))
	case ReasonRegression:
		return fmt.Sprintf("status regression not allowed: cannot go back from %q to %q",
			e.Current.Label(), e.Requested.Label())
	case ReasonSkip:
		return fmt.Sprintf("cannot skip stages: from %q the next stage must be %q (requested %q)",
			e.Current.Label(), e.Expected.Label(), e.Requested.Label())
	}
	return ErrInvalidTransition.Error()
}

func (e *ValidationError) Unwrap() error { return ErrInvalidTransition }

// PersistenceError wraps a failed store write. Op names the write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
