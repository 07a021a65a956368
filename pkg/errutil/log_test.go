// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TEST_ERROR").
		With("key", "value").
		Errorf("something failed")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.Equal(t, "TEST_ERROR", logEntry["code"])
}

func TestLogError_WithUncodedOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.With("key", "value").Errorf("something failed")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	// No code was set, so no code attr may appear in the entry.
	assert.NotContains(t, logEntry, "code")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := errors.New("standard error")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
}

func TestCode(t *testing.T) {
	t.Run("returns code for oops error", func(t *testing.T) {
		err := oops.Code("SOME_CODE").Errorf("boom")
		assert.Equal(t, "SOME_CODE", errutil.Code(err))
	})

	t.Run("returns empty string for standard error", func(t *testing.T) {
		assert.Equal(t, "", errutil.Code(errors.New("plain")))
	})

	t.Run("returns empty string for uncoded oops error", func(t *testing.T) {
		assert.Equal(t, "", errutil.Code(oops.Errorf("boom")))
	})
}
