// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package errutil provides structured logging and test helpers for
// code-carrying errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Code extracts the error code from an oops error, or "" for plain errors.
func Code(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Code()
	}
	return ""
}

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code, and context.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error) {
	log(logger, slog.LevelError, msg, err)
}

// LogWarn logs an error at warning level with the same structure as
// LogError. Used for non-fatal failures such as notification dispatch.
func LogWarn(logger *slog.Logger, msg string, err error) {
	log(logger, slog.LevelWarn, msg, err)
}

func log(logger *slog.Logger, level slog.Level, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != "" {
			attrs = append(attrs, "code", code)
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			attrs = append(attrs, "context", errCtx)
		}
		logger.Log(context.Background(), level, msg, attrs...)
	} else {
		logger.Log(context.Background(), level, msg, "error", err)
	}
}
