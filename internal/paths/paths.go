// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ConfigDirEnv overrides the configuration directory
const ConfigDirEnv = "DOCGUARD_CONFIG_DIR"

// GetConfigDir returns the docguard configuration directory: the override
// from DOCGUARD_CONFIG_DIR, else the user config directory
// (XDG_CONFIG_HOME or ~/.config on Unix, %AppData% on Windows).
func GetConfigDir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".docguard")
	}
	return filepath.Join(base, "docguard")
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// NormalizePath cleans a path and converts separators for the current platform
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(filepath.FromSlash(path))
}

// ValidatePath validates a path for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsRune(path, 0) {
		return &PathValidationError{Path: path, Reason: "contains null byte"}
	}
	if runtime.GOOS == "windows" {
		return validateWindowsPath(path)
	}
	return nil
}

func validateWindowsPath(path string) error {
	for i, char := range path {
		if !strings.ContainsRune(`<>:"|?*`, char) {
			continue
		}
		// drive letter colon (C:)
		if char == ':' && i == 1 {
			continue
		}
		return &PathValidationError{Path: path, Reason: "contains invalid character: " + string(char)}
	}
	return nil
}

// PathValidationError represents a path validation error
type PathValidationError struct {
	Path   string
	Reason string
}

func (e *PathValidationError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Reason
}
