// Package corpus discovers notebooks and loads note archives from an
// export tree.
package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/enex"
	"github.com/starford/ansuz/internal/models"
)

// StackSuffix marks a directory that groups notebooks. Stack
// directories are flattened: their subdirectories become notebooks (or
// nested stacks) and the stack itself is not a notebook.
const StackSuffix = ".stack"

// Load walks the export root and returns one Notebook per non-stack
// subdirectory. A note that fails to parse is logged and skipped; it
// never aborts its notebook or the corpus. Notebook order is not
// significant.
//
// Note paths are corpus-relative with forward slashes, including the
// stack segments, so identities stay stable across platforms.
func Load(root string, logger *slog.Logger) ([]*models.Notebook, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus: root is not a directory: %s", root)
	}
	return loadDir(root, "", logger)
}

func loadDir(absDir, relDir string, logger *slog.Logger) ([]*models.Notebook, error) {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("corpus: read dir %s: %w", absDir, err)
	}

	var notebooks []*models.Notebook
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		childAbs := filepath.Join(absDir, e.Name())
		childRel := path.Join(relDir, e.Name())

		if strings.HasSuffix(e.Name(), StackSuffix) {
			nested, err := loadDir(childAbs, childRel, logger)
			if err != nil {
				return nil, err
			}
			notebooks = append(notebooks, nested...)
			continue
		}

		nb := loadNotebook(childAbs, childRel, logger)
		notebooks = append(notebooks, nb)
	}
	return notebooks, nil
}

// loadNotebook parses every archive directly inside the notebook
// directory. Unreadable or malformed archives are skipped.
func loadNotebook(absDir, relDir string, logger *slog.Logger) *models.Notebook {
	nb := &models.Notebook{Dir: relDir}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		logger.Warn("corpus: read notebook failed",
			slog.String("dir", relDir),
			slog.String("error", err.Error()))
		return nb
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), enex.Ext) {
			continue
		}
		rel := path.Join(relDir, e.Name())
		data, err := os.ReadFile(filepath.Join(absDir, e.Name()))
		if err != nil {
			logger.Warn("corpus: read archive failed",
				slog.String("path", rel),
				slog.String("error", err.Error()))
			continue
		}
		note, err := enex.Parse(data, rel)
		if err != nil {
			logger.Warn("corpus: skipping archive",
				slog.String("path", rel),
				slog.String("error", err.Error()))
			continue
		}
		nb.Notes = append(nb.Notes, note)
		logger.Debug("corpus: loaded note", slog.String("path", rel))
	}
	return nb
}
