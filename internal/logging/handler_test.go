// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/logging"
)

func TestSetup_AddsServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("accountd", "1.2.3", "json", slog.LevelInfo, &buf)

	logger.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "accountd", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("accountd", "dev", "text", slog.LevelInfo, &buf)

	logger.Info("plain message")

	assert.Contains(t, buf.String(), "msg=\"plain message\"")
	assert.Contains(t, buf.String(), "service=accountd")
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("accountd", "dev", "json", slog.LevelInfo, &buf)

	logger.Debug("should be dropped")
	assert.Empty(t, buf.String())

	logger.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetup_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("accountd", "dev", "json", slog.LevelInfo, &buf)

	logger.With("request_id", "abc").WithGroup("http").Info("done", "status", 200)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["request_id"])
	httpGroup, ok := entry["http"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 200, httpGroup["status"])
}

func TestSetup_NoTraceAttrsWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("accountd", "dev", "json", slog.LevelInfo, &buf)

	logger.InfoContext(context.Background(), "no trace")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}
