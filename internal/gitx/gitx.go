// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary.
package gitx

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/skaphos/testbed/internal/logging"
	"github.com/skaphos/testbed/internal/model"
)

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests.
type Runner interface {
	// Run executes a git command in the given directory and returns
	// combined stdout/stderr output, trimmed.
	Run(ctx context.Context, dir string, args ...string) (string, error)
	// Output executes a git command and returns raw stdout bytes.
	// Used where output is content, not text to parse (blob reads).
	Output(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// GitRunner is the default Runner implementation that shells out to git.
type GitRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
}

func (g *GitRunner) bin() string {
	if g.GitBin == "" {
		return "git"
	}
	return g.GitBin
}

// Run executes a git command.
func (g *GitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.bin(), args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	lg := logging.GetLogger("gitx")
	lg.Trace().Str("dir", dir).Strs("args", args).Err(err).Msg("git")
	return strings.TrimSpace(string(out)), err
}

// Output executes a git command and returns stdout exactly as produced.
// Stderr is folded into the returned error on failure.
func (g *GitRunner) Output(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.bin(), args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	lg := logging.GetLogger("gitx")
	lg.Trace().Str("dir", dir).Strs("args", args).Err(err).Msg("git")
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// IsRepo checks whether the given path is inside a git working tree.
func IsRepo(ctx context.Context, r Runner, dir string) (bool, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

// Clone performs a full clone of url into dir, fetching all history so
// any revision reachable from the remote can be resolved later.
func Clone(ctx context.Context, r Runner, url, dir string) error {
	out, err := r.Run(ctx, "", "clone", url, dir)
	if err != nil {
		return fmt.Errorf("git clone: %w: %s", err, out)
	}
	return nil
}

// ResolveRevision resolves rev to a full commit hash.
func ResolveRevision(ctx context.Context, r Runner, dir, rev string) (string, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--quiet", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("git rev-parse --verify %s: %w", rev, err)
	}
	return strings.TrimSpace(out), nil
}

// RevisionExists reports whether rev resolves to a commit in the repo.
func RevisionExists(ctx context.Context, r Runner, dir, rev string) (bool, error) {
	_, err := ResolveRevision(ctx, r, dir, rev)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// ResetHard forces tracked files to exactly match rev, discarding any
// local modifications.
func ResetHard(ctx context.Context, r Runner, dir, rev string) error {
	out, err := r.Run(ctx, dir, "reset", "--hard", rev)
	if err != nil {
		return fmt.Errorf("git reset --hard %s: %w: %s", rev, err, out)
	}
	return nil
}

// Clean removes untracked files and directories. Paths matched by ignore
// rules survive.
func Clean(ctx context.Context, r Runner, dir string) error {
	out, err := r.Run(ctx, dir, "clean", "-fd")
	if err != nil {
		return fmt.Errorf("git clean -fd: %w: %s", err, out)
	}
	return nil
}

// SubmoduleUpdate recursively initializes and updates all submodules to
// the revisions recorded in the checked-out tree.
func SubmoduleUpdate(ctx context.Context, r Runner, dir string) error {
	out, err := r.Run(ctx, dir, "submodule", "update", "--init", "--recursive")
	if err != nil {
		return fmt.Errorf("git submodule update: %w: %s", err, out)
	}
	return nil
}

// Submodules lists all submodule bindings, recursively, in the order git
// reports them. Paths are relative to the superproject root.
func Submodules(ctx context.Context, r Runner, dir string) ([]model.Submodule, error) {
	out, err := r.Run(ctx, dir, "submodule", "status", "--recursive")
	if err != nil {
		return nil, fmt.Errorf("git submodule status: %w: %s", err, out)
	}
	return ParseSubmoduleStatus(out), nil
}

// ListTree returns all blob paths in the tree at rev.
func ListTree(ctx context.Context, r Runner, dir, rev string) ([]string, error) {
	out, err := r.Run(ctx, dir, "ls-tree", "-r", "--name-only", rev)
	if err != nil {
		return nil, fmt.Errorf("git ls-tree %s: %w: %s", rev, err, out)
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// BlobExists reports whether relPath exists as a blob at rev.
func BlobExists(ctx context.Context, r Runner, dir, rev, relPath string) (bool, error) {
	_, err := r.Run(ctx, dir, "cat-file", "-e", rev+":"+relPath)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// ShowBlob reads the exact content of relPath as recorded at rev.
func ShowBlob(ctx context.Context, r Runner, dir, rev, relPath string) ([]byte, error) {
	// Forward slashes regardless of host platform; git addresses tree
	// entries with slash-separated paths.
	content, err := r.Output(ctx, dir, "show", rev+":"+path.Clean(relPath))
	if err != nil {
		return nil, fmt.Errorf("git show %s:%s: %w", rev, relPath, err)
	}
	return content, nil
}

// Head returns the commit HEAD resolves to and whether it is detached.
func Head(ctx context.Context, r Runner, dir string) (model.Head, error) {
	rev, err := r.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return model.Head{}, fmt.Errorf("git rev-parse HEAD: %w: %s", err, rev)
	}
	_, symErr := r.Run(ctx, dir, "symbolic-ref", "--quiet", "HEAD")
	return model.Head{
		Revision: strings.TrimSpace(rev),
		Detached: symErr != nil,
	}, nil
}

// TrustedDirs returns the safe.directory entries from the global git
// configuration. A missing key is not an error.
func TrustedDirs(ctx context.Context, r Runner) ([]string, error) {
	out, err := r.Run(ctx, "", "config", "--global", "--get-all", "safe.directory")
	if err != nil {
		return nil, nil
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// AddTrustedDir appends dir to the global safe.directory allow-list,
// permitting operations on checkouts owned by a different principal.
func AddTrustedDir(ctx context.Context, r Runner, dir string) error {
	out, err := r.Run(ctx, "", "config", "--global", "--add", "safe.directory", dir)
	if err != nil {
		return fmt.Errorf("git config --global --add safe.directory: %w: %s", err, out)
	}
	return nil
}
