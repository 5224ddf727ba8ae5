// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package errutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	assert.Equal(t, "SOME_CODE", Code(oops.Code("SOME_CODE").Errorf("boom")))
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, "", Code(oops.Errorf("codeless")))
}

func TestLogError_OopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("STORE_CONNECT_FAILED").With("operation", "ping").Errorf("connection refused")
	LogError(logger, "database unavailable", err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "database unavailable", record["msg"])
	assert.Equal(t, "STORE_CONNECT_FAILED", record["code"])
	assert.Contains(t, record["error"], "connection refused")

	errCtx, ok := record["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ping", errCtx["operation"])
}

func TestLogError_PlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogError(logger, "something failed", errors.New("plain failure"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "plain failure", record["error"])
	assert.NotContains(t, record, "code")
}

func TestLogWarn_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogWarn(logger, "delivery failed", oops.Errorf("relay down"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
}
