// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package header

import (
	"context"
	"errors"
	"testing"

	"docguard/internal/host"
	"docguard/internal/host/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureHeaderTwiceLeavesOneBanner(t *testing.T) {
	ctx := context.Background()
	doc := memory.New("doc", "body", memory.WithHeader(0, "Acme Corp"))
	s := NewStamper()

	changed, err := s.EnsureHeader(ctx, doc)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.EnsureHeader(ctx, doc)
	require.NoError(t, err)
	assert.False(t, changed)

	paragraphs := doc.HeaderParagraphs(0)
	require.Len(t, paragraphs, 2)
	assert.Equal(t, Banner, paragraphs[0].Text)
	assert.Equal(t, host.ParagraphFormat{Bold: true, Alignment: host.AlignCentered}, paragraphs[0].Format)
	assert.Equal(t, "Acme Corp", paragraphs[1].Text)
}

func TestEnsureHeaderEverySection(t *testing.T) {
	ctx := context.Background()
	doc := memory.New("doc", "body",
		memory.WithSections(3),
		memory.WithHeader(1, "CONFIDENTIAL\t  DOCUMENT"))

	changed, err := NewStamper().EnsureHeader(ctx, doc)
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Len(t, doc.HeaderParagraphs(0), 1)
	assert.Len(t, doc.HeaderParagraphs(1), 1, "banner with irregular spacing is recognised")
	assert.Len(t, doc.HeaderParagraphs(2), 1)
}

func TestEnsureHeaderFailure(t *testing.T) {
	boom := errors.New("boom")
	doc := memory.New("doc", "body", memory.WithFailure("header.text", boom))

	_, err := NewStamper().EnsureHeader(context.Background(), doc)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, doc.HeaderParagraphs(0))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a\n\tb   c "))
	assert.True(t, HasBanner("x\nCONFIDENTIAL\nDOCUMENT"))
	assert.False(t, HasBanner("confidential document"))
}
