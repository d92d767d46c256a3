// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.Contains(t, info, "docguard "+Version)
	assert.Contains(t, info, Platform)
}

func TestFull(t *testing.T) {
	full := Full()
	assert.Equal(t, Version, full["version"])
	assert.Equal(t, GitCommit, full["commit"])
	assert.Len(t, full, 5)
}
