// Package provision implements the testbed pipeline: bring a target
// directory to an exact, reproducible checkout of the base revision,
// synchronize nested submodules, overlay selected files from the overlay
// revision, and publish the resulting search path.
//
// The pipeline is strictly sequential and every step is idempotent, so a
// failed run is recovered by re-running from the top. One invocation owns
// the target directory exclusively; concurrent invocations against the
// same path are not coordinated here.
package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/skaphos/testbed/internal/config"
	"github.com/skaphos/testbed/internal/gitx"
	"github.com/skaphos/testbed/internal/logging"
	"github.com/skaphos/testbed/internal/model"
	"github.com/skaphos/testbed/internal/pathenv"
	"github.com/skaphos/testbed/internal/registry"
	"github.com/skaphos/testbed/internal/vcs"
)

// Engine runs the provisioning pipeline for one blueprint.
type Engine struct {
	bp      config.Blueprint
	adapter vcs.Adapter
	log     zerolog.Logger
}

// New creates an Engine. A nil adapter selects the real git CLI.
func New(bp config.Blueprint, adapter vcs.Adapter) *Engine {
	if adapter == nil {
		adapter = vcs.NewGitAdapter(nil)
	}
	return &Engine{
		bp:      bp,
		adapter: adapter,
		log:     logging.GetLogger("provision"),
	}
}

// Blueprint returns the engine's blueprint.
func (e *Engine) Blueprint() config.Blueprint { return e.bp }

// Adapter returns the engine's VCS adapter.
func (e *Engine) Adapter() vcs.Adapter { return e.adapter }

// Result summarizes a completed pipeline run.
type Result struct {
	// Cloned reports whether this run performed the initial clone.
	Cloned bool
	// Trusted reports whether this run added a new trust exemption.
	Trusted bool
	// Revision is the commit HEAD resolves to after the reset.
	Revision string
	// Submodules are the bindings synchronized, in recorded order.
	Submodules []model.Submodule
	// Overlaid are the expanded overlay paths written, in blueprint order.
	Overlaid []string
	// SearchPath is the published search-path value.
	SearchPath string
}

// Step is one entry of the pipeline plan.
type Step struct {
	Name        string
	Description string
}

// Plan describes the pipeline for a blueprint without executing anything.
func Plan(bp config.Blueprint) []Step {
	return []Step{
		{"reconcile-dir", fmt.Sprintf("ensure %s exists as a directory", bp.TargetPath)},
		{"acquire", fmt.Sprintf("clone %s unless version-control metadata is present", bp.SourceURL)},
		{"trust", fmt.Sprintf("register %s as a trusted location", bp.TargetPath)},
		{"reset", fmt.Sprintf("hard-reset to %s and remove untracked files", bp.BaseRevision)},
		{"submodules", "initialize and update nested submodules recursively"},
		{"overlay", fmt.Sprintf("write %s from %s", strings.Join(bp.OverlayPaths, ", "), bp.OverlayRevision)},
		{"publish-env", fmt.Sprintf("export %s with checkout and submodule paths", bp.EnvVar)},
	}
}

// Run executes the pipeline. The first failing step aborts the run; the
// returned error unwraps to one of the package sentinels and to a
// StepError naming the step.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	started := time.Now()

	type step struct {
		name string
		fn   func(context.Context, *Result) error
	}
	steps := []step{
		{"reconcile-dir", e.ensureTargetDir},
		{"acquire", e.ensureRepository},
		{"trust", e.registerTrust},
		{"reset", e.resetState},
		{"submodules", e.syncSubmodules},
		{"overlay", e.overlayFiles},
		{"publish-env", e.publishEnv},
	}
	for _, s := range steps {
		stepStart := time.Now()
		if err := s.fn(ctx, res); err != nil {
			e.log.Error().
				Str("step", s.name).
				Str("class", gitx.ClassifyError(err)).
				Err(err).
				Msg("pipeline step failed")
			return nil, err
		}
		e.log.Debug().Str("step", s.name).Dur("took", time.Since(stepStart)).Msg("pipeline step complete")
	}

	e.log.Info().
		Str("target", e.bp.TargetPath).
		Str("revision", res.Revision).
		Int("submodules", len(res.Submodules)).
		Int("overlaid", len(res.Overlaid)).
		Dur("took", time.Since(started)).
		Msg("testbed provisioned")
	return res, nil
}

// ensureTargetDir creates the target directory if absent, accepts an
// existing directory, and rejects anything else.
func (e *Engine) ensureTargetDir(_ context.Context, _ *Result) error {
	info, err := os.Stat(e.bp.TargetPath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(e.bp.TargetPath, 0o755); mkErr != nil {
			return stepError("reconcile-dir", ErrPathConflict, mkErr)
		}
		return nil
	}
	if err != nil {
		return stepError("reconcile-dir", ErrPathConflict, err)
	}
	if !info.IsDir() {
		return stepError("reconcile-dir", ErrPathConflict,
			fmt.Errorf("%s is a %s", e.bp.TargetPath, info.Mode().Type()))
	}
	return nil
}

// ensureRepository clones the source when no version-control metadata is
// present. Existing metadata is trusted as-is: this system never verifies
// it originated from the configured source; mismatched origins are the
// caller's responsibility.
func (e *Engine) ensureRepository(ctx context.Context, res *Result) error {
	marker := filepath.Join(e.bp.TargetPath, ".git")
	if _, err := os.Stat(marker); err == nil {
		e.log.Debug().Str("target", e.bp.TargetPath).Msg("working copy already present, skipping clone")
		return nil
	}
	if err := e.adapter.Clone(ctx, e.bp.SourceURL, e.bp.TargetPath); err != nil {
		return stepError("acquire", ErrCloneFailure, err)
	}
	res.Cloned = true
	return nil
}

// registerTrust exempts the target from the ownership safety check. The
// exemption is global persisted state; registering twice is a no-op.
func (e *Engine) registerTrust(ctx context.Context, res *Result) error {
	trusted, err := e.adapter.TrustedDirs(ctx)
	if err != nil {
		return stepError("trust", ErrConfigWrite, err)
	}
	target := filepath.Clean(e.bp.TargetPath)
	for _, dir := range trusted {
		if filepath.Clean(dir) == target {
			return nil
		}
	}
	if err := e.adapter.MarkTrusted(ctx, target); err != nil {
		return stepError("trust", ErrConfigWrite, err)
	}
	res.Trusted = true
	return nil
}

// resetState forces tracked files to exactly match the base revision and
// removes untracked files and directories.
func (e *Engine) resetState(ctx context.Context, res *Result) error {
	rev, err := e.adapter.ResolveRevision(ctx, e.bp.TargetPath, e.bp.BaseRevision)
	if err != nil {
		return stepError("reset", ErrRevisionNotFound,
			fmt.Errorf("base revision %s: %w", e.bp.BaseRevision, err))
	}
	if err := e.adapter.ResetHard(ctx, e.bp.TargetPath, e.bp.BaseRevision); err != nil {
		return stepFailure("reset", err)
	}
	if err := e.adapter.Clean(ctx, e.bp.TargetPath); err != nil {
		return stepFailure("reset", err)
	}
	res.Revision = rev
	return nil
}

// syncSubmodules initializes and updates every nested submodule to the
// revision recorded in the freshly reset tree.
func (e *Engine) syncSubmodules(ctx context.Context, res *Result) error {
	if err := e.adapter.SubmoduleUpdate(ctx, e.bp.TargetPath); err != nil {
		return stepError("submodules", ErrSubmoduleFailure, err)
	}
	subs, err := e.adapter.Submodules(ctx, e.bp.TargetPath)
	if err != nil {
		return stepError("submodules", ErrSubmoduleFailure, err)
	}
	res.Submodules = subs
	return nil
}

// overlayFiles writes the selected blobs from the overlay revision into
// the working copy. HEAD never moves and nothing is staged: tracked files
// outside the overlay set keep their base-revision content.
func (e *Engine) overlayFiles(ctx context.Context, res *Result) error {
	if _, err := e.adapter.ResolveRevision(ctx, e.bp.TargetPath, e.bp.OverlayRevision); err != nil {
		return stepError("overlay", ErrRevisionNotFound,
			fmt.Errorf("overlay revision %s: %w", e.bp.OverlayRevision, err))
	}
	paths, err := e.expandOverlayPaths(ctx)
	if err != nil {
		return err
	}
	for _, rel := range paths {
		content, err := e.adapter.ShowBlob(ctx, e.bp.TargetPath, e.bp.OverlayRevision, rel)
		if err != nil {
			return stepError("overlay", ErrOverlayPathNotFound, err)
		}
		dst := filepath.Join(e.bp.TargetPath, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return stepFailure("overlay", err)
		}
		if err := os.WriteFile(dst, content, 0o644); err != nil {
			return stepFailure("overlay", err)
		}
		e.log.Debug().Str("path", rel).Str("revision", e.bp.OverlayRevision).Msg("overlaid file")
	}
	res.Overlaid = paths
	return nil
}

// expandOverlayPaths resolves the blueprint's overlay entries against the
// overlay revision's tree: literal paths are checked for existence, glob
// patterns are expanded. A literal with no blob, or a pattern with no
// match, is a malformed blueprint.
func (e *Engine) expandOverlayPaths(ctx context.Context) ([]string, error) {
	var tree []string
	var expanded []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		expanded = append(expanded, p)
	}

	for _, entry := range e.bp.OverlayPaths {
		entry = filepath.ToSlash(entry)
		if !isGlobPattern(entry) {
			ok, err := e.adapter.BlobExists(ctx, e.bp.TargetPath, e.bp.OverlayRevision, entry)
			if err != nil {
				return nil, stepError("overlay", ErrOverlayPathNotFound, err)
			}
			if !ok {
				return nil, stepError("overlay", ErrOverlayPathNotFound,
					fmt.Errorf("%s has no blob at %s", entry, e.bp.OverlayRevision))
			}
			add(entry)
			continue
		}

		if tree == nil {
			var err error
			tree, err = e.adapter.ListTree(ctx, e.bp.TargetPath, e.bp.OverlayRevision)
			if err != nil {
				return nil, stepError("overlay", ErrOverlayPathNotFound, err)
			}
		}
		matched := false
		for _, candidate := range tree {
			ok, err := doublestar.Match(entry, candidate)
			if err != nil {
				return nil, stepError("overlay", ErrOverlayPathNotFound,
					fmt.Errorf("bad overlay pattern %q: %w", entry, err))
			}
			if ok {
				add(candidate)
				matched = true
			}
		}
		if !matched {
			return nil, stepError("overlay", ErrOverlayPathNotFound,
				fmt.Errorf("pattern %q matches nothing at %s", entry, e.bp.OverlayRevision))
		}
	}
	return expanded, nil
}

func isGlobPattern(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// publishEnv computes and exports the search-path value: the checkout
// first, then each initialized submodule in recorded order, then whatever
// the invoking process already carried.
func (e *Engine) publishEnv(_ context.Context, res *Result) error {
	subPaths := make([]string, 0, len(res.Submodules))
	for _, sub := range res.Submodules {
		if sub.Initialized {
			subPaths = append(subPaths, sub.Path)
		}
	}
	value, err := pathenv.Publish(e.bp.EnvVar, e.bp.TargetPath, subPaths)
	if err != nil {
		return stepError("publish-env", ErrConfigWrite, err)
	}
	res.SearchPath = value
	return nil
}

// RegistryEntry converts a run result into a registry record.
func (e *Engine) RegistryEntry(res *Result) registry.Entry {
	return registry.Entry{
		Path:            e.bp.TargetPath,
		SourceURL:       e.bp.SourceURL,
		BaseRevision:    res.Revision,
		OverlayRevision: e.bp.OverlayRevision,
		OverlayPaths:    res.Overlaid,
		LastProvisioned: time.Now(),
		Status:          registry.StatusProvisioned,
	}
}
