package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failed call to an external collaborator.
type FailureKind string

const (
	FailureTimeout     FailureKind = "timeout"
	FailureBadStatus   FailureKind = "bad_status"
	FailureEmptyBody   FailureKind = "empty_body"
	FailureTransport   FailureKind = "transport"
	FailureEmptyOutput FailureKind = "empty_output"
)

// Failure is returned by fetchers, translators and notifiers.
type Failure struct {
	Kind   FailureKind
	Op     string
	Status int
	Err    error
}

func (f *Failure) Error() string {
	switch {
	case f.Status != 0 && f.Err != nil:
		return fmt.Sprintf("%s: %s (status %d): %v", f.Op, f.Kind, f.Status, f.Err)
	case f.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", f.Op, f.Kind, f.Status)
	case f.Err != nil:
		return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
	default:
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a Failure without an HTTP status.
func NewFailure(op string, kind FailureKind, err error) *Failure {
	return &Failure{Op: op, Kind: kind, Err: err}
}

// StatusFailure builds a bad_status Failure.
func StatusFailure(op string, status int, err error) *Failure {
	return &Failure{Op: op, Kind: FailureBadStatus, Status: status, Err: err}
}

// KindOf extracts the FailureKind from err, or "" when err is not a Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
