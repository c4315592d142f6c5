// Package logger builds the JSON logger the rest of the fleet expects.
package logger

import (
	"log/slog"
	"os"
)

// New returns a slog logger writing JSON to stdout, tagged with the service
// name and hostname.
func New(service string) *slog.Logger {
	hostname, _ := os.Hostname()

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("hostname", hostname),
	)
}
