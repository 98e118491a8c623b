package logger

import (
	"log/slog"
	"time"
)

// LogSync logs a reconciliation cycle outcome.
func LogSync(negotiationID string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "sync"),
		slog.String("negotiation_id", negotiationID),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Reconciliation cycle failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Reconciliation cycle committed", attrs...)
	}
}

// LogAction logs a user action submission.
func LogAction(name string, negotiationID string, err error) {
	attrs := []any{
		slog.String("type", "action"),
		slog.String("name", name),
		slog.String("negotiation_id", negotiationID),
	}

	if err != nil {
		slog.Error("Action failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Action submitted", attrs...)
	}
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
