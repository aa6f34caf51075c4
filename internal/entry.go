// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/crosslink"
	"github.com/starford/ansuz/internal/enml"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/mirror"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/storage"
)

// conversion holds the results of a staged corpus: the loaded notebooks
// and the populated crosslink store. The caller owns the store handle.
type conversion struct {
	notebooks []*models.Notebook
	store     *crosslink.Store
}

func (c *conversion) Close() error {
	return c.store.Close()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}

	if app.mirror == nil {
		app.mirror = mirror.NewFS(app.logger)
	}

	return app, nil
}

// Run executes a single conversion: mirror the export into the cache,
// load the corpus, build the crosslink store and write the rendered
// output tree.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("export_path", cfg.Export.Path),
		slog.String("output_path", cfg.Output.Path),
		slog.String("format", cfg.Output.Format),
		slog.String("log_level", cfg.App.LogLevel.String()))

	conv, err := stage(ctx, cfg, app.mirror, logger)
	if err != nil {
		return err
	}
	defer conv.Close()

	return emit(cfg, conv, logger)
}

// RunMCP loads the corpus, builds the crosslink store and serves the
// MCP tools over stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	conv, err := stage(ctx, app.config, app.mirror, app.logger)
	if err != nil {
		return err
	}
	defer conv.Close()

	app.logger.Info("MCP server starting",
		slog.Int("notebooks", len(conv.notebooks)))

	return mcpserver.New(conv.notebooks, conv.store, app.logger).ServeStdio()
}

// stage mirrors the export tree into the cache, loads every archive and
// populates the crosslink store. A store that cannot be opened aborts
// the run; individual archive failures were already skipped by the
// corpus loader.
func stage(ctx context.Context, cfg *Config, syncer mirror.Mirror, logger *slog.Logger) (*conversion, error) {
	if err := syncer.Mirror(ctx, cfg.Export.Path, cfg.Cache.Path); err != nil {
		return nil, fmt.Errorf("mirror export: %w", err)
	}

	notebooks, err := corpus.Load(cfg.Cache.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	store, err := crosslink.Open(cfg.Crosslink.Path)
	if err != nil {
		return nil, fmt.Errorf("open crosslink store: %w", err)
	}

	if err := crosslink.Build(store, notebooks, logger); err != nil {
		store.Close()
		return nil, fmt.Errorf("build crosslinks: %w", err)
	}

	if err := store.Flush(); err != nil {
		logger.Warn("crosslink flush failed", slog.String("error", err.Error()))
	}

	return &conversion{notebooks: notebooks, store: store}, nil
}

// emit rewrites every note's content tree and writes the rendered
// documents plus a per-notebook index into the output directory. A
// note that fails to render or write is logged and skipped; the rest
// of the run continues.
func emit(cfg *Config, conv *conversion, logger *slog.Logger) error {
	ext, err := render.Ext(cfg.Output.Format)
	if err != nil {
		return err
	}

	out, err := storage.NewFS(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}

	indexName, err := render.IndexName(cfg.Output.Format)
	if err != nil {
		return err
	}

	var written int
	for _, nb := range conv.notebooks {
		for _, note := range nb.Notes {
			rules := render.Rules(conv.store, note, ext, cfg.Output.Todo, logger)
			enml.Remap(note.Content, rules, logger)

			doc, renderErr := render.Note(note, cfg.Output.Format)
			if renderErr != nil {
				logger.Warn("render failed, note skipped",
					slog.String("path", note.Path),
					slog.String("error", renderErr.Error()))
				continue
			}

			if writeErr := out.Write(note.OutputPath(ext), []byte(doc)); writeErr != nil {
				logger.Warn("write failed, note skipped",
					slog.String("path", note.Path),
					slog.String("error", writeErr.Error()))
				continue
			}
			written++
		}

		idx, idxErr := render.Index(nb, cfg.Output.Format)
		if idxErr != nil {
			logger.Warn("index failed, notebook skipped",
				slog.String("dir", nb.Dir),
				slog.String("error", idxErr.Error()))
			continue
		}
		if writeErr := out.Write(path.Join(nb.Dir, indexName), []byte(idx)); writeErr != nil {
			logger.Warn("index write failed",
				slog.String("dir", nb.Dir),
				slog.String("error", writeErr.Error()))
		}
	}

	logger.Info("conversion complete",
		slog.Int("notebooks", len(conv.notebooks)),
		slog.Int("notes", written),
		slog.String("output", cfg.Output.Path))
	return nil
}
