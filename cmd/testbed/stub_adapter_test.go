// SPDX-License-Identifier: MIT
package testbed

import (
	"context"
	"fmt"
	"sort"

	"github.com/skaphos/testbed/internal/model"
	"github.com/skaphos/testbed/internal/vcs"
)

// stubAdapter serves command-layer tests that must not shell out to git.
type stubAdapter struct {
	head     string
	subs     []model.Submodule
	blobs    map[string][]byte
	notRepo  bool
	cloneErr error
}

var _ vcs.Adapter = (*stubAdapter)(nil)

func (s *stubAdapter) Name() string { return "stub" }

func (s *stubAdapter) IsRepo(context.Context, string) (bool, error) { return !s.notRepo, nil }

func (s *stubAdapter) Clone(context.Context, string, string) error { return s.cloneErr }

func (s *stubAdapter) TrustedDirs(context.Context) ([]string, error) { return nil, nil }

func (s *stubAdapter) MarkTrusted(context.Context, string) error { return nil }

func (s *stubAdapter) ResolveRevision(_ context.Context, _ string, rev string) (string, error) {
	return rev, nil
}

func (s *stubAdapter) RevisionExists(context.Context, string, string) (bool, error) {
	return true, nil
}

func (s *stubAdapter) ResetHard(context.Context, string, string) error { return nil }

func (s *stubAdapter) Clean(context.Context, string) error { return nil }

func (s *stubAdapter) SubmoduleUpdate(context.Context, string) error { return nil }

func (s *stubAdapter) Submodules(context.Context, string) ([]model.Submodule, error) {
	return s.subs, nil
}

func (s *stubAdapter) ListTree(context.Context, string, string) ([]string, error) {
	paths := make([]string, 0, len(s.blobs))
	for p := range s.blobs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *stubAdapter) BlobExists(_ context.Context, _ string, _ string, relPath string) (bool, error) {
	_, ok := s.blobs[relPath]
	return ok, nil
}

func (s *stubAdapter) ShowBlob(_ context.Context, _ string, _ string, relPath string) ([]byte, error) {
	content, ok := s.blobs[relPath]
	if !ok {
		return nil, fmt.Errorf("no blob at %s", relPath)
	}
	return content, nil
}

func (s *stubAdapter) Head(context.Context, string) (model.Head, error) {
	return model.Head{Revision: s.head, Detached: true}, nil
}

// withStubAdapter swaps the command adapter factory for the test's duration.
func withStubAdapter(stub *stubAdapter) func() {
	prev := newAdapter
	newAdapter = func() vcs.Adapter { return stub }
	return func() { newAdapter = prev }
}
