// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RedactionAuditLog contains audit information about one redacted document
type RedactionAuditLog struct {
	// DocumentID is the run identifier that produced the redacted document
	DocumentID string `json:"document_id"`

	// RedactionTimestamp is when the redaction was performed
	RedactionTimestamp time.Time `json:"redaction_timestamp"`

	// OriginalPath is the path to the original document
	OriginalPath string `json:"original_path"`

	// RedactedPath is the path to the redacted document
	RedactedPath string `json:"redacted_path"`

	// OriginalFileHash is a hash of the original document for integrity verification
	OriginalFileHash string `json:"original_file_hash"`

	// RedactedFileHash is a hash of the redacted document for integrity verification
	RedactedFileHash string `json:"redacted_file_hash"`

	// RedactionSummary contains summary statistics about the redaction
	RedactionSummary RedactionSummary `json:"redaction_summary"`
}

// RedactionSummary contains summary statistics about redactions performed
type RedactionSummary struct {
	TotalRedactions int            `json:"total_redactions"`
	Categories      map[string]int `json:"categories"`
	TrackingEnabled bool           `json:"tracking_enabled"`
	HeaderAdded     bool           `json:"header_added"`
	ProcessingTime  time.Duration  `json:"processing_time"`
}

// NewRedactionAuditLog creates a new RedactionAuditLog
func NewRedactionAuditLog(documentID, originalPath, redactedPath string) *RedactionAuditLog {
	return &RedactionAuditLog{
		DocumentID:         documentID,
		RedactionTimestamp: time.Now(),
		OriginalPath:       originalPath,
		RedactedPath:       redactedPath,
		RedactionSummary: RedactionSummary{
			Categories: map[string]int{},
		},
	}
}

// SetCounts copies per-category counts into the summary
func (ri *RedactionAuditLog) SetCounts(counts *RedactionCounts) {
	ri.RedactionSummary.Categories = counts.ByName()
	ri.RedactionSummary.TotalRedactions = counts.Total()
}

// Validate validates the audit entry for completeness
func (ri *RedactionAuditLog) Validate() error {
	if ri.DocumentID == "" {
		return fmt.Errorf("document_id cannot be empty")
	}
	if ri.OriginalPath == "" {
		return fmt.Errorf("original_path cannot be empty")
	}
	if ri.RedactedPath == "" {
		return fmt.Errorf("redacted_path cannot be empty")
	}
	if ri.RedactionTimestamp.IsZero() {
		return fmt.Errorf("redaction_timestamp cannot be zero")
	}

	sum := 0
	for _, n := range ri.RedactionSummary.Categories {
		sum += n
	}
	if sum != ri.RedactionSummary.TotalRedactions {
		return fmt.Errorf("total_redactions %d does not match category sum %d", ri.RedactionSummary.TotalRedactions, sum)
	}
	return nil
}

// AuditTrail collects audit entries for every document of an invocation.
// It is safe for concurrent use.
type AuditTrail struct {
	mu        sync.Mutex
	Version   string               `json:"docguard_version"`
	Generated time.Time            `json:"generated"`
	Documents []*RedactionAuditLog `json:"documents"`
}

// NewAuditTrail creates an empty trail
func NewAuditTrail(version string) *AuditTrail {
	return &AuditTrail{Version: version, Documents: make([]*RedactionAuditLog, 0)}
}

// Add appends an entry
func (a *AuditTrail) Add(entry *RedactionAuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Documents = append(a.Documents, entry)
}

// ToJSON converts the trail to indented JSON
func (a *AuditTrail) ToJSON() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Generated = time.Now()
	return json.MarshalIndent(a, "", "  ")
}

// WriteFile saves the trail with owner-only permissions
func (a *AuditTrail) WriteFile(path string) error {
	data, err := a.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal audit trail: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write audit trail %s: %w", path, err)
	}
	return nil
}

// AuditTrailFromJSON parses a trail written by WriteFile
func AuditTrailFromJSON(data []byte) (*AuditTrail, error) {
	var trail AuditTrail
	if err := json.Unmarshal(data, &trail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit trail: %w", err)
	}
	return &trail, nil
}

// GenerateDocumentHash generates a hash of document content
func GenerateDocumentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// HashFile hashes the file at path
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return GenerateDocumentHash(data), nil
}
