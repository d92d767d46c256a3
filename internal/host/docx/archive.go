// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// maxPartSize bounds a single decompressed package part
const maxPartSize = 64 << 20

type entry struct {
	name   string
	method uint16
	header zip.FileHeader
	data   []byte
}

// archive keeps the package parts in their original order
type archive struct {
	entries []*entry
	index   map[string]*entry
}

func readArchive(data []byte) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP file: %w", err)
	}

	a := &archive{index: make(map[string]*entry, len(zr.File))}
	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		if len(content) > maxPartSize {
			return nil, fmt.Errorf("part %s exceeds %d bytes", file.Name, maxPartSize)
		}

		e := &entry{name: file.Name, method: file.Method, header: file.FileHeader, data: content}
		a.entries = append(a.entries, e)
		a.index[file.Name] = e
	}
	return a, nil
}

func (a *archive) get(name string) ([]byte, bool) {
	e, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return e.data, true
}

func (a *archive) has(name string) bool {
	_, ok := a.index[name]
	return ok
}

func (a *archive) put(name string, data []byte) {
	if e, ok := a.index[name]; ok {
		e.data = data
		return
	}
	e := &entry{name: name, method: zip.Deflate, data: data}
	a.entries = append(a.entries, e)
	a.index[name] = e
}

// names returns the part names with the given prefix, sorted
func (a *archive) names(prefix string) []string {
	var out []string
	for name := range a.index {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (a *archive) write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, e := range a.entries {
		fh := &zip.FileHeader{Name: e.name, Method: e.method, Modified: e.header.Modified}
		fw, err := zw.CreateHeader(fh)
		if err != nil {
			return fmt.Errorf("failed to create ZIP entry for %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return fmt.Errorf("failed to write content for %s: %w", e.name, err)
		}
	}
	return zw.Close()
}
