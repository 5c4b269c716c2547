package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// extractorHandler wraps a slog.Handler and injects attributes from
// context. Extraction runs per log call so request-scoped values are
// captured fresh rather than cached.
type extractorHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func newExtractorHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	return &extractorHandler{next: next, extractors: extractors}
}

func (h *extractorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *extractorHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *extractorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &extractorHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *extractorHandler) WithGroup(name string) slog.Handler {
	return &extractorHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
