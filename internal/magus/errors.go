package magus

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions the pipeline classifies explicitly.
var (
	// errProbeUnavailable marks a compiler probe that could not run or
	// could not be parsed. Non-fatal: the caller assumes major version 0.
	errProbeUnavailable = errors.New("compiler probe unavailable")

	// ErrUnknownRevision marks a checkout of a revision the remote does
	// not know about. Fatal, and deliberately distinct from ordinary
	// network/auth failures so the operator knows the request itself
	// was wrong.
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrVerifierNotFound marks the advisory post-install check failing
	// to find the installed binary on PATH. Never fatal.
	ErrVerifierNotFound = errors.New("installed binary not found on PATH")
)

// FetchError wraps a version-control failure (clone, fetch, pull,
// checkout) that is not an unknown-revision condition.
type FetchError struct {
	Op  string // git operation that failed
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed during git %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PatchError is a fatal patch-engine condition: either persisting a
// transformed file failed, or a target matched both the already-applied
// and the still-applies detectors (a partially hand-edited file we
// refuse to guess about). Always tagged with the patch id.
type PatchError struct {
	ID  string
	Err error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %s: %v", e.ID, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

// PhaseError tags a build failure with the phase (configure, build,
// install) that produced it. Later phases are never attempted.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// PipelineError is the terminal failure of a run: the stage that was
// executing plus the underlying cause. Already-completed stages are
// never rolled back.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
