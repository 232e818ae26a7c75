package logging

import (
	"context"
	"log/slog"

	"animap/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. provider_search_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType tags decision summaries (strategy choice, merge outcome).
	FieldDecisionType = "decision_type"
	// FieldProvider is the standardized key for provider registry names.
	FieldProvider = "provider"
	// FieldMediaType is the standardized key for ANIME/MANGA.
	FieldMediaType = "media_type"
	// FieldCanonicalID is the standardized key for catalog identifiers.
	FieldCanonicalID = "canonical_id"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if mt, ok := services.MediaTypeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMediaType, mt))
	}
	if p, ok := services.ProviderFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProvider, p))
	}
	if id, ok := services.CanonicalIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldCanonicalID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
