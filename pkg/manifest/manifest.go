// Package manifest records durable metadata about a generated fixture:
// identifiers, the synthesis settings used, file locations, and the outcome
// of generation or validation runs against it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion captures the manifest version for compatibility checks.
const SchemaVersion = 1

// Fixture states recorded in manifests for downstream tooling.
const (
	StateGenerated = "generated"
	StateValidated = "validated"
	StateFailed    = "failed"
)

// Layout represents the absolute filesystem locations for a fixture.
type Layout struct {
	Root         string
	LogPath      string
	ManifestPath string
}

// Paths holds the relative locations stored in the manifest for portability.
type Paths struct {
	Root     string `json:"root"`
	Log      string `json:"log"`
	Manifest string `json:"manifest"`
}

// GenerateSettings records the synthesis parameters used for the fixture.
type GenerateSettings struct {
	Scenario        string  `json:"scenario"`
	DurationSeconds int     `json:"duration_seconds"`
	SampleRateHz    int     `json:"sample_rate_hz"`
	CaptureWidth    int     `json:"capture_width"`
	CaptureHeight   int     `json:"capture_height"`
	ScaleFactor     float64 `json:"scale_factor"`
}

// Status summarises the fixture's lifecycle.
type Status struct {
	State   string `json:"state"`
	Summary string `json:"summary,omitempty"`
	Verdict string `json:"verdict,omitempty"`
}

// Manifest is the durable metadata describing a generated fixture.
type Manifest struct {
	SchemaVersion int              `json:"schema_version"`
	SessionID     string           `json:"session_id"`
	FixtureID     string           `json:"fixture_id"`
	CreatedAt     time.Time        `json:"created_at"`
	Hostname      string           `json:"hostname"`
	AppVersion    string           `json:"app_version"`
	ConfigSource  string           `json:"config_source"`
	Generate      GenerateSettings `json:"generate"`
	Paths         Paths            `json:"paths"`
	Status        Status           `json:"status"`
}

// Options captures the knobs for creating a new manifest.
type Options struct {
	FixtureID    string
	CreatedAt    time.Time
	Hostname     string
	AppVersion   string
	ConfigSource string
	Generate     GenerateSettings
	Layout       Layout
}

// New constructs a manifest with a fresh session identifier.
func New(opts Options) Manifest {
	return Manifest{
		SchemaVersion: SchemaVersion,
		SessionID:     uuid.NewString(),
		FixtureID:     opts.FixtureID,
		CreatedAt:     opts.CreatedAt.UTC(),
		Hostname:      opts.Hostname,
		AppVersion:    opts.AppVersion,
		ConfigSource:  opts.ConfigSource,
		Generate:      opts.Generate,
		Paths:         opts.Layout.RelativePaths(),
		Status:        Status{State: StateGenerated},
	}
}

// BuildLayout creates an absolute filesystem layout for a fixture.
func BuildLayout(fixturesDir, fixtureID string) Layout {
	root := filepath.Join(fixturesDir, fixtureID)
	return Layout{
		Root:         root,
		LogPath:      filepath.Join(root, "events.jsonl"),
		ManifestPath: filepath.Join(root, "manifest.json"),
	}
}

// RelativePaths exposes the manifest-friendly relative paths for the layout.
func (l Layout) RelativePaths() Paths {
	return Paths{
		Root:     ".",
		Log:      filepath.Base(l.LogPath),
		Manifest: filepath.Base(l.ManifestPath),
	}
}

// EnsureFilesystem prepares the directory tree for a fixture layout.
func EnsureFilesystem(layout Layout) error {
	if err := os.MkdirAll(layout.Root, 0o755); err != nil {
		return fmt.Errorf("create fixture root: %w", err)
	}
	return nil
}

// Save writes the manifest JSON to disk with indentation for readability.
func Save(man Manifest, path string) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest JSON file from disk.
func Load(path string) (Manifest, error) {
	var man Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return man, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &man); err != nil {
		return man, fmt.Errorf("decode manifest: %w", err)
	}
	return man, nil
}

// ResolveFixtureID chooses a fixture identifier derived from the timestamp
// and avoids collisions with existing fixture directories.
func ResolveFixtureID(fixturesDir string, now time.Time) (string, error) {
	if strings.TrimSpace(fixturesDir) == "" {
		return "", errors.New("fixtures directory must not be empty")
	}

	base := now.UTC().Format("20060102_150405")
	candidate := base
	suffix := 1
	for {
		_, err := os.Stat(filepath.Join(fixturesDir, candidate))
		if err == nil {
			candidate = fmt.Sprintf("%s_%02d", base, suffix)
			suffix++
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		return "", fmt.Errorf("inspect fixtures directory: %w", err)
	}
}
