// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package documents opens files with the host that understands them and
// writes the redacted result back out.
package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docguard/internal/host"
	"docguard/internal/host/docx"
	"docguard/internal/host/memory"
	"docguard/internal/host/pdfsource"
	"docguard/internal/host/textfile"
)

// Kind identifies the host backing a document
type Kind int

const (
	KindUnknown Kind = iota
	KindWord
	KindText
	KindPDF
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindWord:
		return "docx"
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// KindOf detects the document kind from the file extension
func KindOf(path string) Kind {
	switch {
	case docx.Supports(path):
		return KindWord
	case textfile.Supports(path):
		return KindText
	case pdfsource.Supports(path):
		return KindPDF
	default:
		return KindUnknown
	}
}

// Supported reports whether path can be opened
func Supported(path string) bool {
	return KindOf(path) != KindUnknown
}

// Handle is an opened document
type Handle struct {
	Path string
	Kind Kind

	word *docx.Document
	text *memory.Document
}

// Document returns the host view of the handle
func (h *Handle) Document() host.Document {
	if h.word != nil {
		return h.word
	}
	return h.text
}

// OutputExt is the extension the redacted copy is written with. PDF sources
// are written as plain text.
func (h *Handle) OutputExt() string {
	if h.Kind == KindPDF {
		return ".txt"
	}
	return filepath.Ext(h.Path)
}

// Bytes serializes the current document state
func (h *Handle) Bytes() ([]byte, error) {
	if h.word != nil {
		return h.word.Bytes()
	}
	return textfile.Render(h.text), nil
}

// Save writes the current document state to path
func (h *Handle) Save(path string) error {
	if h.word != nil {
		return h.word.Save(path)
	}
	return textfile.Save(h.text, path)
}

// Open loads path with the host for its kind
func Open(path string) (*Handle, error) {
	h := &Handle{Path: path, Kind: KindOf(path)}
	var err error
	switch h.Kind {
	case KindWord:
		h.word, err = docx.Open(path)
	case KindText:
		h.text, err = textfile.Load(path)
	case KindPDF:
		h.text, err = pdfsource.Load(path)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// OpenBytes loads an uploaded document. name selects the host; PDF content
// is staged in a temporary file because the PDF readers work on paths.
func OpenBytes(name string, data []byte) (*Handle, error) {
	name = filepath.Base(name)
	h := &Handle{Path: name, Kind: KindOf(name)}
	var err error
	switch h.Kind {
	case KindWord:
		h.word, err = docx.Parse(name, data)
	case KindText:
		h.text = textfile.Parse(name, data)
	case KindPDF:
		h.text, err = loadPDFBytes(data)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func loadPDFBytes(data []byte) (*memory.Document, error) {
	tmp, err := os.CreateTemp("", "docguard-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	return pdfsource.Load(tmp.Name())
}

// OutputName returns the file name of the redacted copy
func OutputName(h *Handle) string {
	base := filepath.Base(h.Path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + h.OutputExt()
}
