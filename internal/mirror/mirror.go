// Package mirror implements the directory sync collaborator: an
// idempotent, deletion-propagating copy of the export tree into the
// conversion cache.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/ansuz/internal/storage"
)

// Mirror copies src to dst so that dst becomes an exact replica:
// changed files are rewritten, files missing from src are removed.
// Implementations must be idempotent.
type Mirror interface {
	Mirror(ctx context.Context, src, dst string) error
}

// FS is the local-filesystem Mirror. Change detection is by content
// checksum, so repeated runs over an unchanged export touch nothing.
type FS struct {
	logger *slog.Logger
}

// NewFS creates a filesystem mirror.
func NewFS(logger *slog.Logger) *FS {
	return &FS{logger: logger}
}

// Mirror synchronizes dst with src.
func (m *FS) Mirror(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("mirror: stat source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mirror: source is not a directory: %s", src)
	}

	srcFS, err := storage.NewFS(src)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	dstFS, err := storage.NewFS(dst)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}

	srcFiles, err := srcFS.List()
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	dstFiles, err := dstFS.List()
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}

	have := make(map[string]string, len(dstFiles))
	for _, fi := range dstFiles {
		have[fi.Path] = fi.Checksum
	}

	keep := make(map[string]struct{}, len(srcFiles))
	for _, fi := range srcFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		keep[fi.Path] = struct{}{}
		if have[fi.Path] == fi.Checksum {
			continue
		}
		data, err := srcFS.Read(fi.Path)
		if err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		if err := dstFS.Write(fi.Path, data); err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		m.logger.Debug("mirror: copied", slog.String("path", fi.Path))
	}

	for _, fi := range dstFiles {
		if _, ok := keep[fi.Path]; ok {
			continue
		}
		if err := dstFS.Delete(fi.Path); err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		m.logger.Debug("mirror: removed stale", slog.String("path", fi.Path))
	}
	return nil
}
