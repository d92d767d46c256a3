// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Format != "text" {
		t.Errorf("expected default format=text, got %q", cfg.Defaults.Format)
	}
	if !cfg.Redaction.TrackChanges || !cfg.Redaction.ClearHyperlinks {
		t.Error("expected tracking and hyperlink clearing on by default")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("unexpected default debounce %v", cfg.Watch.Debounce)
	}
	if _, ok := cfg.Profiles["in-place"]; !ok {
		t.Error("expected 'in-place' profile to exist in defaults")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
defaults:
  format: json
  output_dir: out/safe
redaction:
  track_changes: false
  audit_log: audit.json
server:
  listen: ":9090"
  rate_limit: 0
watch:
  inbox: incoming
  debounce: 2s
profiles:
  archive:
    description: archive copies
    output_dir: archive
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Defaults.Format)
	assert.Equal(t, filepath.FromSlash("out/safe"), cfg.Defaults.OutputDir)
	assert.False(t, cfg.Redaction.TrackChanges, "explicit false wins over the default")
	assert.True(t, cfg.Redaction.ClearHyperlinks, "absent field keeps its default")
	assert.Equal(t, "audit.json", cfg.Redaction.AuditLog)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, []string{"archive", "ci", "in-place"}, cfg.ListProfiles())
}

func TestLoadConfig_RejectsRuleConfiguration(t *testing.T) {
	path := writeConfig(t, `
redaction:
  rules:
    - email
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "fixed")
}

func TestLoadConfig_RejectsMemoryScrub(t *testing.T) {
	path := writeConfig(t, `
redaction:
  memory_scrub: true
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "memory_scrub is not supported")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", ":::invalid yaml:::"},
		{"bad format", "defaults:\n  format: sarif\n"},
		{"bad log level", "defaults:\n  log_level: loud\n"},
		{"negative rate", "server:\n  rate_limit: -1\n"},
		{"zero burst", "server:\n  rate_limit: 1\n  burst: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault("/nonexistent/path/docguard.yaml")
	assert.Error(t, err)
	require.NotNil(t, cfg, "expected defaults on failure")
	assert.Equal(t, "text", cfg.Defaults.Format)
}

func TestApplyProfile(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyProfile("ci"))
	assert.Equal(t, "json", cfg.Defaults.Format)
	assert.True(t, cfg.Defaults.Quiet)
	assert.True(t, cfg.Defaults.NoColor)

	cfg = Default()
	cfg.Profiles["review"] = Profile{DisableTracking: true}
	require.NoError(t, cfg.ApplyProfile("review"))
	assert.False(t, cfg.Redaction.TrackChanges)

	assert.Error(t, Default().ApplyProfile("missing"))
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCGUARD_CONFIG_DIR", filepath.Join(dir, "none"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Equal(t, "", FindConfigFile())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docguard.yaml"), []byte("{}"), 0600))
	assert.Equal(t, ".docguard.yaml", FindConfigFile())
}
