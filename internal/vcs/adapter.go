// Package vcs abstracts the version-control operations the provisioning
// pipeline relies on, so the pipeline can be tested against a fake
// without invoking a real git binary.
package vcs

import (
	"context"

	"github.com/skaphos/testbed/internal/gitx"
	"github.com/skaphos/testbed/internal/model"
)

// Adapter defines the VCS operations testbed relies on.
type Adapter interface {
	Name() string
	// IsRepo reports whether dir is a working copy.
	IsRepo(ctx context.Context, dir string) (bool, error)
	// Clone performs a full clone of url into dir.
	Clone(ctx context.Context, url, dir string) error
	// TrustedDirs lists directories exempted from ownership safety checks.
	TrustedDirs(ctx context.Context) ([]string, error)
	// MarkTrusted exempts dir from ownership safety checks.
	MarkTrusted(ctx context.Context, dir string) error
	// ResolveRevision resolves rev to a full commit hash.
	ResolveRevision(ctx context.Context, dir, rev string) (string, error)
	// RevisionExists reports whether rev resolves to a commit in dir.
	RevisionExists(ctx context.Context, dir, rev string) (bool, error)
	// ResetHard forces tracked files in dir to exactly match rev.
	ResetHard(ctx context.Context, dir, rev string) error
	// Clean removes untracked files and directories from dir.
	Clean(ctx context.Context, dir string) error
	// SubmoduleUpdate recursively initializes and updates submodules.
	SubmoduleUpdate(ctx context.Context, dir string) error
	// Submodules lists submodule bindings recursively, in recorded order.
	Submodules(ctx context.Context, dir string) ([]model.Submodule, error)
	// ListTree lists all blob paths in the tree at rev.
	ListTree(ctx context.Context, dir, rev string) ([]string, error)
	// BlobExists reports whether relPath is a blob at rev.
	BlobExists(ctx context.Context, dir, rev, relPath string) (bool, error)
	// ShowBlob reads the exact blob content of relPath at rev.
	ShowBlob(ctx context.Context, dir, rev, relPath string) ([]byte, error)
	// Head returns the commit dir's HEAD resolves to.
	Head(ctx context.Context, dir string) (model.Head, error)
}

// GitAdapter implements Adapter using the git CLI via gitx.
type GitAdapter struct {
	Runner gitx.Runner
}

func NewGitAdapter(runner gitx.Runner) *GitAdapter {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	return &GitAdapter{Runner: runner}
}

func (g *GitAdapter) Name() string { return "git" }

func (g *GitAdapter) IsRepo(ctx context.Context, dir string) (bool, error) {
	return gitx.IsRepo(ctx, g.Runner, dir)
}

func (g *GitAdapter) Clone(ctx context.Context, url, dir string) error {
	return gitx.Clone(ctx, g.Runner, url, dir)
}

func (g *GitAdapter) TrustedDirs(ctx context.Context) ([]string, error) {
	return gitx.TrustedDirs(ctx, g.Runner)
}

func (g *GitAdapter) MarkTrusted(ctx context.Context, dir string) error {
	return gitx.AddTrustedDir(ctx, g.Runner, dir)
}

func (g *GitAdapter) ResolveRevision(ctx context.Context, dir, rev string) (string, error) {
	return gitx.ResolveRevision(ctx, g.Runner, dir, rev)
}

func (g *GitAdapter) RevisionExists(ctx context.Context, dir, rev string) (bool, error) {
	return gitx.RevisionExists(ctx, g.Runner, dir, rev)
}

func (g *GitAdapter) ResetHard(ctx context.Context, dir, rev string) error {
	return gitx.ResetHard(ctx, g.Runner, dir, rev)
}

func (g *GitAdapter) Clean(ctx context.Context, dir string) error {
	return gitx.Clean(ctx, g.Runner, dir)
}

func (g *GitAdapter) SubmoduleUpdate(ctx context.Context, dir string) error {
	return gitx.SubmoduleUpdate(ctx, g.Runner, dir)
}

func (g *GitAdapter) Submodules(ctx context.Context, dir string) ([]model.Submodule, error) {
	return gitx.Submodules(ctx, g.Runner, dir)
}

func (g *GitAdapter) ListTree(ctx context.Context, dir, rev string) ([]string, error) {
	return gitx.ListTree(ctx, g.Runner, dir, rev)
}

func (g *GitAdapter) BlobExists(ctx context.Context, dir, rev, relPath string) (bool, error) {
	return gitx.BlobExists(ctx, g.Runner, dir, rev, relPath)
}

func (g *GitAdapter) ShowBlob(ctx context.Context, dir, rev, relPath string) ([]byte, error) {
	return gitx.ShowBlob(ctx, g.Runner, dir, rev, relPath)
}

func (g *GitAdapter) Head(ctx context.Context, dir string) (model.Head, error) {
	return gitx.Head(ctx, g.Runner, dir)
}
