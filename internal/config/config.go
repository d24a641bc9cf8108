// Package config handles the provisioning blueprint: the fixed coordinates
// of one testbed (source, target, revisions, overlay set).
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

const (
	// LocalBlueprintFilename is the per-directory blueprint file.
	LocalBlueprintFilename = ".testbed.yaml"
	// BlueprintAPIVersion is the current blueprint schema apiVersion.
	BlueprintAPIVersion = "skaphos.io/testbed/v1beta1"
	// BlueprintKind is the current blueprint schema kind.
	BlueprintKind = "TestbedBlueprint"
	// EnvBlueprintPath overrides the blueprint file location.
	EnvBlueprintPath = "TESTBED_BLUEPRINT"

	// DefaultEnvVar is the search-path variable published for consumers.
	DefaultEnvVar = "PYTHONPATH"
)

// Compiled-in coordinates. The tool is designed to run with no arguments
// inside an ephemeral container; a blueprint file only overrides these.
const (
	defaultSourceURL       = "https://github.com/internetarchive/openlibrary.git"
	defaultTargetPath      = "/testbed"
	defaultBaseRevision    = "0e1e49cd1e655a4a06e4a9aafbebd518c39ae8f2"
	defaultOverlayRevision = "b2646a45c1b0d0544ba3fc4885a0fc1d84fc9cd4"
)

// Blueprint holds the fixed coordinates of one provisioning run.
// Immutable for the duration of the run.
type Blueprint struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	// SourceURL is the primary repository to acquire.
	SourceURL string `yaml:"source_url"`
	// TargetPath is the directory the working copy lives in.
	TargetPath string `yaml:"target_path"`
	// BaseRevision is the commit the working copy is reset to.
	BaseRevision string `yaml:"base_revision"`
	// OverlayRevision is the (typically later) commit overlay content is
	// read from. The checkout pointer never moves to it.
	OverlayRevision string `yaml:"overlay_revision"`
	// OverlayPaths are slash-separated paths, or doublestar glob
	// patterns, selecting blobs at OverlayRevision to write into the
	// working copy.
	OverlayPaths []string `yaml:"overlay_paths"`
	// EnvVar is the search-path variable published after provisioning.
	EnvVar string `yaml:"env_var,omitempty"`
}

// DefaultBlueprint returns the compiled-in provisioning coordinates.
func DefaultBlueprint() Blueprint {
	return Blueprint{
		APIVersion:      BlueprintAPIVersion,
		Kind:            BlueprintKind,
		SourceURL:       defaultSourceURL,
		TargetPath:      defaultTargetPath,
		BaseRevision:    defaultBaseRevision,
		OverlayRevision: defaultOverlayRevision,
		OverlayPaths: []string{
			"openlibrary/tests/core/test_imports.py",
		},
		EnvVar: DefaultEnvVar,
	}
}

// ResolveBlueprintPath picks the blueprint file to load, in order:
// the --config override, the TESTBED_BLUEPRINT env var, a .testbed.yaml
// in the working directory. Empty means "use the compiled-in blueprint".
func ResolveBlueprintPath(override, cwd string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(EnvBlueprintPath); env != "" {
		return env
	}
	local := filepath.Join(cwd, LocalBlueprintFilename)
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local
	}
	return ""
}

// Load reads and validates a blueprint. An empty path yields the
// compiled-in blueprint.
func Load(path string) (Blueprint, error) {
	if path == "" {
		return DefaultBlueprint(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Blueprint{}, fmt.Errorf("read blueprint %s: %w", path, err)
	}
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return Blueprint{}, fmt.Errorf("parse blueprint %s: %w", path, err)
	}
	if bp.APIVersion != "" && bp.APIVersion != BlueprintAPIVersion {
		return Blueprint{}, fmt.Errorf("blueprint %s: unsupported apiVersion %q", path, bp.APIVersion)
	}
	if bp.Kind != "" && bp.Kind != BlueprintKind {
		return Blueprint{}, fmt.Errorf("blueprint %s: unsupported kind %q", path, bp.Kind)
	}
	if bp.EnvVar == "" {
		bp.EnvVar = DefaultEnvVar
	}
	if err := bp.Validate(); err != nil {
		return Blueprint{}, fmt.Errorf("blueprint %s: %w", path, err)
	}
	return bp, nil
}

// Save writes a blueprint file.
func Save(bp Blueprint, file string) error {
	bp.APIVersion = BlueprintAPIVersion
	bp.Kind = BlueprintKind
	data, err := yaml.Marshal(bp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}

// Validate checks the blueprint invariants that can be checked without
// touching the repository. Revision reachability is the pipeline's job.
func (bp Blueprint) Validate() error {
	if strings.TrimSpace(bp.SourceURL) == "" {
		return errors.New("source_url is required")
	}
	if strings.TrimSpace(bp.TargetPath) == "" {
		return errors.New("target_path is required")
	}
	if strings.TrimSpace(bp.BaseRevision) == "" {
		return errors.New("base_revision is required")
	}
	if strings.TrimSpace(bp.OverlayRevision) == "" {
		return errors.New("overlay_revision is required")
	}
	if len(bp.OverlayPaths) == 0 {
		return errors.New("at least one overlay path is required")
	}
	for _, p := range bp.OverlayPaths {
		if err := validateOverlayPath(p); err != nil {
			return err
		}
	}
	return nil
}

func validateOverlayPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("overlay path must not be empty")
	}
	if strings.HasPrefix(p, "/") || filepath.IsAbs(p) {
		return fmt.Errorf("overlay path %q must be relative", p)
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("overlay path %q escapes the working copy", p)
	}
	return nil
}
