package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionBusy    = errors.New("session busy")
	ErrResultBusy     = errors.New("result busy")
	ErrNoSelection    = errors.New("no result selected")
	ErrResultNotReady = errors.New("selected result not ready")
	ErrNotFound       = errors.New("not found")
)

// PreconditionError reports a missing required input detected before any
// remote call is made. It is never retried automatically.
type PreconditionError struct {
	Missing string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: missing " + e.Missing
}

// RemoteKind classifies which collaborator operation a remote failure came
// from.
type RemoteKind string

const (
	RemoteAnalysis   RemoteKind = "analysis"
	RemoteProcessing RemoteKind = "processing"
	RemoteGeneration RemoteKind = "generation"
	RemoteEdit       RemoteKind = "edit"
)

// RemoteError wraps a collaborator failure. Remote failures are surfaced
// verbatim with a retry affordance that re-invokes the same operation.
type RemoteError struct {
	Kind RemoteKind
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Retryable reports whether the UI should render a retry affordance.
func (e *RemoteError) Retryable() bool { return true }

// ParseError reports a malformed structured response from a text-generation
// call. Not auto-retried: a non-deterministic generator may or may not
// produce valid output on the next attempt, so re-requesting is left to the
// user.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s returned malformed output: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
