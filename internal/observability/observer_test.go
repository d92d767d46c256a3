// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartTimingLogsAtDebugLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	o := NewStandardObserver(ObservabilityDebug, zap.New(core))

	finish := o.StartTiming("pipeline", "run", "a.docx")
	finish(true, map[string]interface{}{"total": 3})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "operation completed", entry.Message)
	assert.Equal(t, "pipeline", entry.ContextMap()["component"])
	assert.Equal(t, "a.docx", entry.ContextMap()["document"])
}

func TestFailuresLoggedAtMetricsLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	o := NewStandardObserver(ObservabilityMetrics, zap.New(core))

	o.StartTiming("applicator", "apply", "")(true, nil)
	o.StartTiming("applicator", "apply", "")(false, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
}

func TestObservabilityOff(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	o := NewStandardObserver(ObservabilityOff, zap.New(core))
	o.StartTiming("x", "y", "")(false, nil)
	assert.Zero(t, logs.Len())
}

func TestDebugObserverSteps(t *testing.T) {
	var buf bytes.Buffer
	d := NewDebugObserver(&buf, nil)
	require.Same(t, d, d.StandardObserver.DebugObserver)

	done := d.StartStep("pipeline", "run", "a.txt")
	d.LogDetail("pipeline", "tracking on")
	d.LogMetric("pipeline", "EMAIL", 2)
	done(true, "ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "pipeline: run (a.txt)")
	assert.True(t, strings.HasPrefix(lines[1], "  "))
	assert.Contains(t, lines[2], "EMAIL = 2")
	assert.Contains(t, lines[3], "completed")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggerConfig{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
