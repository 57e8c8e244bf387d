// Package logger builds the structured loggers used throughout cinder.
// Every subsystem receives a *zap.SugaredLogger named after the service
// that owns it, so log lines can be filtered by component in production.
package logger

import "go.uber.org/zap"

// New builds a production zap logger named after service and returns its
// sugared form, which is what every cinder subsystem's Config embeds.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder/sink config,
		// which cannot happen with the defaults used here.
		base = zap.NewNop()
	}

	return base.Named(service).Sugar()
}
