// Copyright (c) 2025 The layerdb developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a small front over log/slog providing a process-wide root
// logger and context-scoped package loggers.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var root atomic.Pointer[slog.Logger]

func init() {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// SetDefault replaces the handler behind the root logger. Loggers obtained
// from WithContext pick up the new handler on their next call.
func SetDefault(h slog.Handler) {
	root.Store(slog.New(h))
}

// Root returns the process-wide root logger.
func Root() *slog.Logger {
	return root.Load()
}

// Logger writes records through the current root handler, carrying a fixed
// key-value context.
type Logger struct {
	ctx []any
}

// WithContext creates a logger whose records all carry the given key-value
// pairs, e.g. WithContext("pkg", "session").
func WithContext(kv ...any) *Logger {
	return &Logger{ctx: kv}
}

func (l *Logger) write(level slog.Level, msg string, kv []any) {
	logger := root.Load()
	if !logger.Enabled(context.Background(), level) {
		return
	}
	logger.With(l.ctx...).Log(context.Background(), level, msg, kv...)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, kv ...any) {
	l.write(slog.LevelDebug, msg, kv)
}

// Info logs at info level.
func (l *Logger) Info(msg string, kv ...any) {
	l.write(slog.LevelInfo, msg, kv)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, kv ...any) {
	l.write(slog.LevelWarn, msg, kv)
}

// Error logs at error level.
func (l *Logger) Error(msg string, kv ...any) {
	l.write(slog.LevelError, msg, kv)
}

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h *discardHandler) WithGroup(_ string) slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return &discardHandler{}
}
