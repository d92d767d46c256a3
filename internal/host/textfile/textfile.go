// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package textfile loads plain text files into an in-memory host.
//
// A text file has a single section. Its header is the run of lines before a
// line holding only a form feed; files without that line have an empty
// header. Saving writes the header, the form feed line, then the body.
package textfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docguard/internal/host"
	"docguard/internal/host/memory"
)

// HeaderSeparator is the line between header and body
const HeaderSeparator = "\f"

// Extensions lists the file extensions handled as plain text
var Extensions = []string{".txt", ".md", ".log", ".csv"}

// Supports reports whether path has a plain text extension
func Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse splits content into a memory document. Plain text has no
// hyperlinks, so only change tracking is supported.
func Parse(name string, content []byte) *memory.Document {
	text := string(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")))

	var headerLines []string
	body := text
	if head, rest, found := strings.Cut(text, "\n"+HeaderSeparator+"\n"); found {
		headerLines = strings.Split(head, "\n")
		body = rest
	} else if rest, found := strings.CutPrefix(text, HeaderSeparator+"\n"); found {
		body = rest
	}

	return memory.New(name, body,
		memory.WithHeader(0, headerLines...),
		memory.WithFeatures(host.FeatureChangeTracking))
}

// Load reads a text file
func Load(path string) (*memory.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(filepath.Base(path), content), nil
}

// Render serializes a document back to text
func Render(doc *memory.Document) []byte {
	var buf bytes.Buffer
	paragraphs := doc.HeaderParagraphs(0)
	if len(paragraphs) > 0 {
		for _, p := range paragraphs {
			buf.WriteString(p.Text)
			buf.WriteByte('\n')
		}
		buf.WriteString(HeaderSeparator)
		buf.WriteByte('\n')
	}
	buf.WriteString(doc.Text())
	return buf.Bytes()
}

// Save writes a document to path with owner-only permissions
func Save(doc *memory.Document, path string) error {
	if err := os.WriteFile(path, Render(doc), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
