package notification

import (
	"context"
	"log/slog"
)

// Sink 外部通知通道, message 为纯文本
type Sink interface {
	Send(ctx context.Context, message string) error
}

// ConsoleSink writes messages to the default logger. Used when no chat is configured.
type ConsoleSink struct{}

func (ConsoleSink) Send(ctx context.Context, message string) error {
	slog.InfoContext(ctx, "notification", "message", message)
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, message string) error

func (f SinkFunc) Send(ctx context.Context, message string) error {
	return f(ctx, message)
}
