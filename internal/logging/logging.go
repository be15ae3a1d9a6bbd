// Package logging builds the slog loggers used across alchemy. Records
// pass through a handler that masks credentials before they reach the
// output, so OAuth tokens read by the usage command never end up in logs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Mask replaces every redacted value.
const Mask = "***REDACTED***"

var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"api_key":       true,
	"apikey":        true,
	"access_token":  true,
	"accesstoken":   true,
	"refresh_token": true,
	"credentials":   true,
}

// Substrings that mark a key as sensitive wherever they appear in it.
var sensitiveKeywords = []string{"token", "secret", "password", "auth"}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`^sk-ant-[A-Za-z0-9_-]+$`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
}

// RedactingHandler wraps another handler and masks sensitive attributes.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps h. A nil h wraps the default logger's handler.
func NewRedactingHandler(h slog.Handler) *RedactingHandler {
	if h == nil {
		h = slog.Default().Handler()
	}
	return &RedactingHandler{handler: h}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redact(a))
		return true
	})
	return h.handler.Handle(ctx, clean)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(clean)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

func redact(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]slog.Attr, len(group))
		for i, g := range group {
			clean[i] = redact(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] {
		return slog.String(a.Key, Mask)
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return slog.String(a.Key, Mask)
		}
	}

	if a.Value.Kind() == slog.KindString {
		v := a.Value.String()
		for _, p := range sensitivePatterns {
			if p.MatchString(v) {
				return slog.String(a.Key, Mask)
			}
		}
	}
	return a
}

// New returns a text logger writing to w. verbose lowers the level from
// Info to Debug.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(h))
}
