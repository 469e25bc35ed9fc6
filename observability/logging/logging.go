package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Setup points the default loggers at a structured JSON handler and returns
// the slog.Logger the engine and its callers should use. Every line carries
// the service name, plus the environment when one is configured. The level
// can be lowered to debug with LOG_LEVEL=debug.
func Setup(service, env string) *slog.Logger {
	base, handler := newLogger(os.Stdout, service, env)
	slog.SetDefault(base)

	// Route the standard library logger through the same handler so package
	// code using log.Printf stays structured.
	bridge := slog.NewLogLogger(handler, slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// newLogger builds the JSON handler and the labelled logger on top of it. The
// returned handler already carries the service and env attributes, so the
// standard-log bridge emits the same shape as the slog path.
func newLogger(w io.Writer, service, env string) (*slog.Logger, slog.Handler) {
	level := slog.LevelInfo
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "debug") {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	labelled := handler.WithAttrs(attrs)

	return slog.New(labelled), labelled
}
