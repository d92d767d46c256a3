// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"errors"
	"testing"

	"docguard/internal/host"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAndReplaceCommitOnSync(t *testing.T) {
	ctx := context.Background()
	doc := New("a.txt", "call 555-123-4567 or 555 123 4567")

	ranges, err := doc.Body().Search(ctx, "555-123-4567", host.RedactionSearch)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, "555 123 4567", ranges[1].Text())

	for _, r := range ranges {
		r.Replace("X")
	}
	assert.Equal(t, "call 555-123-4567 or 555 123 4567", doc.Text(), "mutations are queued until sync")

	require.NoError(t, doc.Sync(ctx))
	assert.Equal(t, "call X or X", doc.Text())
	assert.Equal(t, 1, doc.SyncCount())
}

func TestStaleRangeRejected(t *testing.T) {
	ctx := context.Background()
	doc := New("a.txt", "abc abc")

	first, err := doc.Body().Search(ctx, "abc", host.RedactionSearch)
	require.NoError(t, err)
	first[0].Replace("x")
	require.NoError(t, doc.Sync(ctx))

	first[1].Replace("y")
	err = doc.Sync(ctx)
	assert.ErrorIs(t, err, host.ErrStaleRange)
	assert.Equal(t, "x abc", doc.Text())
}

func TestHyperlinks(t *testing.T) {
	ctx := context.Background()
	doc := New("a.txt", "write to a@b.io today", WithHyperlink("a@b.io", "mailto:a@b.io"))

	ranges, err := doc.Body().Search(ctx, "a@b.io", host.RedactionSearch)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, "mailto:a@b.io", ranges[0].Hyperlink())

	ranges[0].ClearHyperlink()
	ranges[0].Replace("[x]")
	require.NoError(t, doc.Sync(ctx))

	assert.Empty(t, doc.Links())
	assert.Equal(t, "write to [x] today", doc.Text())
}

func TestLinksShiftAfterReplacement(t *testing.T) {
	ctx := context.Background()
	doc := New("a.txt", "1234 then link", WithHyperlink("link", "https://example.com"))

	ranges, err := doc.Body().Search(ctx, "1234", host.RedactionSearch)
	require.NoError(t, err)
	ranges[0].Replace("12345678")
	require.NoError(t, doc.Sync(ctx))

	links := doc.Links()
	require.Len(t, links, 1)
	assert.Equal(t, "link", doc.Text()[links[0].Span.Start:links[0].Span.End])
}

func TestTrackingRecordsRevisions(t *testing.T) {
	ctx := context.Background()
	doc := New("a.txt", "secret 1234")

	doc.SetChangeTracking(host.TrackingAll)
	require.NoError(t, doc.Sync(ctx))
	assert.Equal(t, host.TrackingAll, doc.Tracking())

	ranges, err := doc.Body().Search(ctx, "1234", host.RedactionSearch)
	require.NoError(t, err)
	ranges[0].Replace("####")
	require.NoError(t, doc.Sync(ctx))

	assert.Equal(t, []Revision{{Old: "1234", New: "####"}}, doc.Revisions())
}

func TestHeaderInsert(t *testing.T) {
	ctx := context.Background()
	doc := New("a.txt", "body", WithSections(2), WithHeader(1, "Existing"))

	sections, err := doc.Sections(ctx)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	h, err := sections[1].PrimaryHeader(ctx)
	require.NoError(t, err)
	h.InsertParagraph("TOP", host.InsertStart, host.ParagraphFormat{Bold: true, Alignment: host.AlignCentered})
	require.NoError(t, doc.Sync(ctx))

	text, err := h.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TOP\nExisting", text)
	assert.True(t, doc.HeaderParagraphs(1)[0].Format.Bold)
	assert.Empty(t, doc.HeaderParagraphs(0))
}

func TestFeaturesAndFailures(t *testing.T) {
	boom := errors.New("boom")
	doc := New("a.txt", "body", WithFeatures(host.FeatureHyperlinks), WithFailure("body.text", boom))

	assert.True(t, doc.Supports(host.FeatureHyperlinks))
	assert.False(t, doc.Supports(host.FeatureChangeTracking))

	_, err := doc.Body().Text(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := New("a.txt", "body")
	_, err := doc.Body().Search(ctx, "body", host.RedactionSearch)
	assert.ErrorIs(t, err, context.Canceled)
}
