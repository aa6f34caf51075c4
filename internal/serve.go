package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/crosslink"
	"github.com/starford/ansuz/internal/enex"
	"github.com/starford/ansuz/internal/mirror"
	"github.com/starford/ansuz/internal/server"
	"github.com/starford/ansuz/internal/sse"
)

// swapResolver hands /api/resolve lookups to the most recent
// conversion's store. The watcher swaps the store after every
// successful reconversion.
type swapResolver struct {
	mu    sync.RWMutex
	store *crosslink.Store
}

func (r *swapResolver) Resolve(ref string) (string, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Resolve(ref)
}

// swap installs the new store and closes the previous one.
func (r *swapResolver) swap(store *crosslink.Store) {
	r.mu.Lock()
	old := r.store
	r.store = store
	r.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RunServe performs an initial conversion, then serves the output tree
// over HTTP and reconverts whenever the export tree changes. Connected
// browsers are notified over SSE after each reconversion.
func RunServe(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	logger := app.logger

	conv, err := stage(ctx, cfg, app.mirror, logger)
	if err != nil {
		return err
	}
	if err := emit(cfg, conv, logger); err != nil {
		conv.Close()
		return err
	}

	resolver := &swapResolver{store: conv.store}
	defer resolver.swap(nil)

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	r := server.NewRouter(cfg.Output.Path, resolver, broker)

	httpServer := &http.Server{
		Addr:    cfg.Serve.Address(),
		Handler: r,
	}

	logger.Info("Server starting...",
		slog.String("address", cfg.Serve.Address()),
		slog.String("output", cfg.Output.Path))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watchExports(gCtx, cfg, app.mirror, resolver, broker, logger)
	})

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped")
	return nil
}

// watchExports watches the export tree and reconverts after changes
// settle. Events for unrelated files are ignored. New directories
// created at runtime are added to the watch list.
func watchExports(ctx context.Context, cfg *Config, syncer mirror.Mirror, resolver *swapResolver, broker *sse.Broker, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("init watcher: %w", err)
	}
	defer w.Close()

	if err := addDirsRecursive(w, cfg.Export.Path); err != nil {
		return fmt.Errorf("watch export: %w", err)
	}

	logger.Info("watcher: started", slog.String("root", cfg.Export.Path))

	// debounce coalesces bursts of events into one reconversion.
	var debounce *time.Timer
	var debounceCh <-chan time.Time
	var pending string

	schedule := func(rel string) {
		pending = rel
		if debounce == nil {
			debounce = time.NewTimer(500 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(500 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			reconvert(ctx, cfg, syncer, resolver, broker, logger, pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule("")
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, enex.Ext) {
				continue
			}

			rel, relErr := filepath.Rel(cfg.Export.Path, ev.Name)
			if relErr != nil {
				continue
			}
			schedule(filepath.ToSlash(rel))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconvert runs the full pipeline again and swaps the live store.
// Failures leave the previous output and store in place.
func reconvert(ctx context.Context, cfg *Config, syncer mirror.Mirror, resolver *swapResolver, broker *sse.Broker, logger *slog.Logger, path string) {
	broker.PublishConvertEvent("started", path)

	conv, err := stage(ctx, cfg, syncer, logger)
	if err != nil {
		logger.Error("reconvert failed", slog.String("error", err.Error()))
		broker.PublishConvertEvent("failed", path)
		return
	}

	if err := emit(cfg, conv, logger); err != nil {
		conv.Close()
		logger.Error("reconvert emit failed", slog.String("error", err.Error()))
		broker.PublishConvertEvent("failed", path)
		return
	}

	resolver.swap(conv.store)
	broker.PublishConvertEvent("completed", path)
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
