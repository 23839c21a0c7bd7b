// Package status provides sinks for human-readable request status lines.
package status

//go:generate $MOCKGEN -source=status.go -destination=mocks/status_mock.go

import (
	"context"

	"github.com/oshokin/net-request/internal/logger"
)

// Sink receives status lines. Implementations must not block.
type Sink interface {
	// SendStatus publishes a single status line.
	SendStatus(ctx context.Context, line string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, line string)

// SendStatus calls f(ctx, line).
func (f SinkFunc) SendStatus(ctx context.Context, line string) {
	f(ctx, line)
}

// LoggerSink writes status lines to the context logger at debug level.
type LoggerSink struct{}

// NewLoggerSink creates a sink backed by the logger package.
func NewLoggerSink() Sink {
	return LoggerSink{}
}

// SendStatus logs line at debug level.
func (LoggerSink) SendStatus(ctx context.Context, line string) {
	logger.Debug(ctx, line)
}

// Discard drops every status line.
//
//nolint:gochecknoglobals // Stateless sink shared as a constant.
var Discard Sink = SinkFunc(func(context.Context, string) {})
