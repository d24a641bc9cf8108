// Package model defines the core data types used throughout testbed.
package model

// Head represents the current HEAD state of a working copy.
type Head struct {
	// Revision is the full commit hash HEAD resolves to.
	Revision string `json:"revision" yaml:"revision"`
	// Detached reports whether HEAD is detached.
	Detached bool `json:"detached" yaml:"detached"`
}

// Submodule is one nested working copy binding recorded in the parent tree.
type Submodule struct {
	// Path is the submodule path relative to the superproject root.
	// Nested submodules carry their full relative path.
	Path string `json:"path" yaml:"path"`
	// Revision is the submodule commit reported by status: the recorded
	// commit when the working copy is absent or in sync, the currently
	// checked-out commit when it has drifted.
	Revision string `json:"revision" yaml:"revision"`
	// Initialized reports whether a working copy is present at Path.
	Initialized bool `json:"initialized" yaml:"initialized"`
	// AtRecordedRevision reports whether the working copy is checked out
	// to the commit the superproject records. False for absent, drifted,
	// or conflicted submodules.
	AtRecordedRevision bool `json:"at_recorded_revision" yaml:"at_recorded_revision"`
}

// CheckKind enumerates the aspects a verify pass inspects.
type CheckKind string

const (
	CheckRevision  CheckKind = "revision"
	CheckOverlay   CheckKind = "overlay"
	CheckSubmodule CheckKind = "submodule"
)

// Check is the outcome of one verify comparison between the on-disk
// working copy and the blueprint.
type Check struct {
	Kind    CheckKind `json:"kind" yaml:"kind"`
	Subject string    `json:"subject" yaml:"subject"`
	Want    string    `json:"want,omitempty" yaml:"want,omitempty"`
	Got     string    `json:"got,omitempty" yaml:"got,omitempty"`
	OK      bool      `json:"ok" yaml:"ok"`
}
