package provision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skaphos/testbed/internal/model"
)

// Verify compares an existing working copy against the blueprint without
// mutating anything: the checked-out revision, the overlay contents, and
// submodule initialization. It reports drift; it does not fix it.
func (e *Engine) Verify(ctx context.Context) ([]model.Check, error) {
	ok, err := e.adapter.IsRepo(ctx, e.bp.TargetPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s is not a working copy", e.bp.TargetPath)
	}

	var checks []model.Check

	wantRev, err := e.adapter.ResolveRevision(ctx, e.bp.TargetPath, e.bp.BaseRevision)
	if err != nil {
		return nil, stepError("verify", ErrRevisionNotFound,
			fmt.Errorf("base revision %s: %w", e.bp.BaseRevision, err))
	}
	head, err := e.adapter.Head(ctx, e.bp.TargetPath)
	if err != nil {
		return nil, err
	}
	checks = append(checks, model.Check{
		Kind:    model.CheckRevision,
		Subject: e.bp.TargetPath,
		Want:    wantRev,
		Got:     head.Revision,
		OK:      head.Revision == wantRev,
	})

	overlayPaths, err := e.expandOverlayPaths(ctx)
	if err != nil {
		return nil, err
	}
	for _, rel := range overlayPaths {
		want, err := e.adapter.ShowBlob(ctx, e.bp.TargetPath, e.bp.OverlayRevision, rel)
		if err != nil {
			return nil, stepError("verify", ErrOverlayPathNotFound, err)
		}
		check := model.Check{
			Kind:    model.CheckOverlay,
			Subject: rel,
			Want:    "blob@" + e.bp.OverlayRevision,
		}
		got, readErr := os.ReadFile(filepath.Join(e.bp.TargetPath, filepath.FromSlash(rel)))
		switch {
		case readErr != nil:
			check.Got = "missing"
		case bytes.Equal(got, want):
			check.Got = "match"
			check.OK = true
		default:
			check.Got = "differs"
		}
		checks = append(checks, check)
	}

	subs, err := e.adapter.Submodules(ctx, e.bp.TargetPath)
	if err != nil {
		return nil, stepError("verify", ErrSubmoduleFailure, err)
	}
	for _, sub := range subs {
		check := model.Check{
			Kind:    model.CheckSubmodule,
			Subject: sub.Path,
		}
		switch {
		case !sub.Initialized:
			check.Want = sub.Revision
			check.Got = "missing"
		case sub.AtRecordedRevision:
			check.Want = sub.Revision
			check.Got = sub.Revision
			check.OK = true
		default:
			// Status reports only the drifted checkout's commit.
			check.Want = "recorded revision"
			check.Got = sub.Revision
		}
		checks = append(checks, check)
	}

	return checks, nil
}
