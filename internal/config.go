package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/render"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Export    ExportConfig      `yaml:"export"`
	Cache     CacheConfig       `yaml:"cache"`
	Output    OutputConfig      `yaml:"output"`
	Crosslink CrosslinkConfig   `yaml:"crosslink"`
	Serve     ServeConfig       `yaml:"serve"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Export.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Crosslink.Validate(); err != nil {
		return err
	}
	return c.Serve.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// ExportConfig holds the path to the ENEX export tree.
type ExportConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CacheConfig holds the staging directory the export is mirrored into
// before conversion.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// OutputConfig controls where and how the rendered site is written.
//
// Format selects the output renderer ("html" or "text"; default html).
// Todo selects checkbox rendering: "marker" for plain-text-safe
// "[x] "/"[ ] " markers, "checkbox" for a native disabled control.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Todo   string `yaml:"todo"`
}

// Validate validates the output configuration. Unknown formats are a
// user-facing configuration error and fail before any work is done.
func (c *OutputConfig) Validate() error {
	if c.Format == "" {
		c.Format = render.FormatHTML
	}
	if c.Format != render.FormatHTML && c.Format != render.FormatText {
		return fmt.Errorf("output: format %q: %w", c.Format, apperr.ErrUnsupportedFormat)
	}
	if c.Todo == "" {
		c.Todo = render.TodoMarker
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Todo, validation.In(render.TodoMarker, render.TodoCheckbox)),
	)
}

// CrosslinkConfig holds the crosslink store location.
type CrosslinkConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the crosslink configuration.
func (c *CrosslinkConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ServeConfig holds the preview server configuration.
type ServeConfig struct {
	Port int `yaml:"port"`
}

// Address returns the preview server listen address.
func (c *ServeConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Export: ExportConfig{
			Path: "./export",
		},
		Cache: CacheConfig{
			Path: "./cache",
		},
		Output: OutputConfig{
			Path:   "./site",
			Format: render.FormatHTML,
			Todo:   render.TodoMarker,
		},
		Crosslink: CrosslinkConfig{
			Path: "./crosslinks.db",
		},
		Serve: ServeConfig{
			Port: 8080,
		},
	}
}
