// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestGetConfigDirOverride(t *testing.T) {
	t.Setenv(ConfigDirEnv, "/tmp/docguard-test")
	if got := GetConfigDir(); got != "/tmp/docguard-test" {
		t.Errorf("expected override, got %q", got)
	}
	if got := GetConfigFile(); got != filepath.Join("/tmp/docguard-test", "config.yaml") {
		t.Errorf("unexpected config file %q", got)
	}
}

func TestValidatePath(t *testing.T) {
	if err := ValidatePath(""); err != nil {
		t.Errorf("empty path should be valid: %v", err)
	}
	if err := ValidatePath("./redacted"); err != nil {
		t.Errorf("expected valid path: %v", err)
	}

	err := ValidatePath("bad\x00path")
	var pve *PathValidationError
	if !errors.As(err, &pve) {
		t.Fatalf("expected PathValidationError, got %v", err)
	}
	if pve.Reason != "contains null byte" {
		t.Errorf("unexpected reason %q", pve.Reason)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath("a/b/../c"); got != filepath.FromSlash("a/c") {
		t.Errorf("unexpected normalized path %q", got)
	}
	if NormalizePath("") != "" {
		t.Error("empty path should stay empty")
	}
}
