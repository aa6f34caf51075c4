package internal

import (
	"log/slog"

	"github.com/starford/ansuz/internal/mirror"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mirror mirror.Mirror
	logger *slog.Logger
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMirror overrides the export mirror implementation.
func WithMirror(m mirror.Mirror) Option {
	return func(a *application) {
		a.mirror = m
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}
