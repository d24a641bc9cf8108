// SPDX-License-Identifier: MIT
// Package registry persists per-machine records of provisioned testbeds.
// It is observational only: the pipeline never consults it for
// idempotence decisions, which always come from on-disk state.
package registry

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// EntryStatus represents whether a recorded testbed is still on disk.
type EntryStatus string

const (
	StatusProvisioned EntryStatus = "provisioned"
	StatusMissing     EntryStatus = "missing"
)

// Entry records one provisioned testbed.
type Entry struct {
	Path            string      `json:"path" yaml:"path"`
	SourceURL       string      `json:"source_url" yaml:"source_url"`
	BaseRevision    string      `json:"base_revision" yaml:"base_revision"`
	OverlayRevision string      `json:"overlay_revision" yaml:"overlay_revision"`
	OverlayPaths    []string    `json:"overlay_paths,omitempty" yaml:"overlay_paths,omitempty"`
	LastProvisioned time.Time   `json:"last_provisioned,omitempty" yaml:"last_provisioned,omitempty"`
	Status          EntryStatus `json:"status" yaml:"status"`
}

// Registry is the per-machine record of provisioned testbeds.
type Registry struct {
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Entries   []Entry   `json:"testbeds" yaml:"testbeds"`
}

// DefaultPath returns the registry file location under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "testbed", "registry.yaml"), nil
}

// Load reads a registry file. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Registry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Save writes the registry to the given path.
func Save(reg *Registry, path string) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(reg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Upsert replaces the entry keyed by Path, or appends a new one, and
// stamps UpdatedAt.
func (r *Registry) Upsert(entry Entry) {
	r.UpdatedAt = time.Now()
	for i := range r.Entries {
		if r.Entries[i].Path == entry.Path {
			r.Entries[i] = entry
			return
		}
	}
	r.Entries = append(r.Entries, entry)
}

// Remove deletes the entry keyed by path. Returns false when absent.
func (r *Registry) Remove(path string) bool {
	for i := range r.Entries {
		if r.Entries[i].Path == path {
			r.Entries = append(r.Entries[:i], r.Entries[i+1:]...)
			r.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Refresh marks entries whose working copies disappeared from disk.
func (r *Registry) Refresh() {
	for i := range r.Entries {
		if _, err := os.Stat(r.Entries[i].Path); err != nil {
			r.Entries[i].Status = StatusMissing
		} else {
			r.Entries[i].Status = StatusProvisioned
		}
	}
}
