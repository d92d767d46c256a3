// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package textfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"docguard/internal/host"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithHeader(t *testing.T) {
	doc := Parse("a.txt", []byte("Acme\r\nInternal\r\n\f\r\nbody line\r\n"))

	assert.Equal(t, "body line\n", doc.Text())
	paragraphs := doc.HeaderParagraphs(0)
	require.Len(t, paragraphs, 2)
	assert.Equal(t, "Acme", paragraphs[0].Text)
	assert.False(t, doc.Supports(host.FeatureHyperlinks))
	assert.True(t, doc.Supports(host.FeatureChangeTracking))
}

func TestParseWithoutHeader(t *testing.T) {
	doc := Parse("a.txt", []byte("just a body"))
	assert.Equal(t, "just a body", doc.Text())
	assert.Empty(t, doc.HeaderParagraphs(0))
}

func TestRenderRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc := Parse("a.txt", []byte("secret body"))

	sections, err := doc.Sections(ctx)
	require.NoError(t, err)
	h, err := sections[0].PrimaryHeader(ctx)
	require.NoError(t, err)
	h.InsertParagraph("BANNER", host.InsertStart, host.ParagraphFormat{})
	require.NoError(t, doc.Sync(ctx))

	rendered := Render(doc)
	assert.Equal(t, "BANNER\n\f\nsecret body", string(rendered))

	again := Parse("a.txt", rendered)
	assert.Equal(t, "secret body", again.Text())
	assert.Len(t, again.HeaderParagraphs(0), 1)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("hello"), 0600))

	doc, err := Load(in)
	require.NoError(t, err)
	assert.Equal(t, "in.txt", doc.Name())

	out := filepath.Join(dir, "out.txt")
	require.NoError(t, Save(doc, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports("notes.TXT"))
	assert.True(t, Supports("a/b/readme.md"))
	assert.False(t, Supports("a.docx"))
}
