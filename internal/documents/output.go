// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docguard/internal/observability"
)

// AuditFileName is the audit trail written next to the redacted files
const AuditFileName = "docguard-audit.json"

// OutputManager decides where redacted copies go. Copies mirror the
// original path under a base directory unless writing in place.
type OutputManager struct {
	baseDir  string
	inPlace  bool
	observer *observability.StandardObserver
}

// NewOutputManager creates an OutputManager. baseDir is ignored in place.
func NewOutputManager(baseDir string, inPlace bool, observer *observability.StandardObserver) (*OutputManager, error) {
	if baseDir == "" && !inPlace {
		return nil, fmt.Errorf("base output directory cannot be empty")
	}
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityMetrics, nil)
	}
	return &OutputManager{baseDir: filepath.Clean(baseDir), inPlace: inPlace, observer: observer}, nil
}

// BaseDir returns the output root
func (m *OutputManager) BaseDir() string { return m.baseDir }

// InPlace reports whether originals are overwritten
func (m *OutputManager) InPlace() bool { return m.inPlace }

// OutputPath returns where the redacted copy of h is written
func (m *OutputManager) OutputPath(h *Handle) (string, error) {
	finishTiming := m.observer.StartTiming("output_manager", "output_path", h.Path)

	original := filepath.Clean(h.Path)
	swapExt := func(p string) string {
		return strings.TrimSuffix(p, filepath.Ext(p)) + h.OutputExt()
	}

	if m.inPlace {
		finishTiming(true, map[string]interface{}{"in_place": true})
		return swapExt(original), nil
	}

	mirrored := filepath.Join(m.baseDir, relativePath(original))
	if rel, err := filepath.Rel(m.baseDir, mirrored); err != nil || strings.HasPrefix(rel, "..") {
		finishTiming(false, map[string]interface{}{"error": "escapes base directory"})
		return "", fmt.Errorf("mirrored path would escape base output directory: %s", mirrored)
	}
	finishTiming(true, map[string]interface{}{"base_output_dir": m.baseDir})
	return swapExt(mirrored), nil
}

// AuditPath returns the audit trail location
func (m *OutputManager) AuditPath() string {
	if m.inPlace {
		return AuditFileName
	}
	return filepath.Join(m.baseDir, AuditFileName)
}

// relativePath turns any path into one that can be joined under the base
// directory: volume names and leading separators are dropped and ".."
// elements renamed.
func relativePath(path string) string {
	if path == "." || path == "" {
		return "current"
	}
	path = strings.TrimPrefix(path, filepath.VolumeName(path))
	path = filepath.ToSlash(path)
	path = strings.TrimLeft(path, "/")

	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == ".." {
			parts[i] = "parent"
		}
	}
	path = strings.Join(parts, "/")
	if path == "" {
		return "current"
	}
	return filepath.FromSlash(path)
}

// EnsureDirectoryExists creates the parent directory of path, owner only
func EnsureDirectoryExists(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", dir)
		}
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Write saves h to its output path and returns that path
func (m *OutputManager) Write(h *Handle) (string, error) {
	out, err := m.OutputPath(h)
	if err != nil {
		return "", err
	}
	if err := EnsureDirectoryExists(out); err != nil {
		return "", err
	}
	if err := h.Save(out); err != nil {
		return "", err
	}
	return out, nil
}
