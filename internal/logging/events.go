package logging

import (
	"context"
	"log/slog"
)

const (
	CategorySecurity = "security"
	CategoryBusiness = "business"
)

// Security logs an audit event at WARN. These records are also persisted by
// DBHandler.
func Security(ctx context.Context, event string, attrs ...any) {
	args := append([]any{"category", CategorySecurity, "event", event}, attrs...)
	slog.Default().WarnContext(ctx, "security event", args...)
}

// Business logs a domain event at INFO.
func Business(ctx context.Context, event string, attrs ...any) {
	args := append([]any{"category", CategoryBusiness, "event", event}, attrs...)
	slog.Default().InfoContext(ctx, "business event", args...)
}
