package provision

import (
	"errors"
	"fmt"
)

// Every pipeline failure is fatal at this layer: no retry, no partial
// continuation, no rollback. Re-running the pipeline from the top is the
// recovery strategy; idempotent steps substitute for transactions.
var (
	// ErrPathConflict: the target path exists but is not a directory.
	ErrPathConflict = errors.New("target path exists and is not a directory")
	// ErrCloneFailure: the initial acquisition of the repository failed.
	ErrCloneFailure = errors.New("clone failed")
	// ErrConfigWrite: the trust registration could not be persisted.
	ErrConfigWrite = errors.New("trust registration failed")
	// ErrRevisionNotFound: the base or overlay revision does not resolve.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrSubmoduleFailure: a nested repository could not be synchronized.
	ErrSubmoduleFailure = errors.New("submodule sync failed")
	// ErrOverlayPathNotFound: a requested overlay path has no blob at the
	// overlay revision.
	ErrOverlayPathNotFound = errors.New("overlay path not found")
)

// StepError identifies which pipeline step failed, for diagnostics.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepError(step string, sentinel, cause error) error {
	if cause == nil {
		return &StepError{Step: step, Err: sentinel}
	}
	return &StepError{Step: step, Err: fmt.Errorf("%w: %w", sentinel, cause)}
}

// stepFailure wraps a cause that matches no taxonomy sentinel, such as a
// local filesystem error. The step name still identifies the phase.
func stepFailure(step string, cause error) error {
	return &StepError{Step: step, Err: cause}
}
