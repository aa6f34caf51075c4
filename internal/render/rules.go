// Package render holds the concrete rewrite rules, the per-note
// renderers, and the notebook index builder.
package render

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/crosslink"
	"github.com/starford/ansuz/internal/enml"
	"github.com/starford/ansuz/internal/models"
)

// Todo-rendering styles.
const (
	TodoMarker   = "marker"   // plain-text-safe "[x] " / "[ ] "
	TodoCheckbox = "checkbox" // native <input type="checkbox">
)

// Rules returns the rewrite rules for one note in registration order:
// checkbox normalization first, then internal link rewriting.
func Rules(store *crosslink.Store, note *models.Note, ext, todoStyle string, logger *slog.Logger) []enml.Rule {
	return []enml.Rule{
		CheckboxRule(todoStyle, note.Path, logger),
		LinkRule(store, note, ext, logger),
	}
}

// CheckboxRule normalizes en-todo elements. The checked attribute is a
// literal "true"/"false"; a missing attribute is treated as "false" and
// logged once per element because it usually points at a broken export.
func CheckboxRule(style, notePath string, logger *slog.Logger) enml.Rule {
	fn := func(el, _ *enml.Element) (*enml.Element, error) {
		checked, ok := el.Attr["checked"]
		if !ok {
			logger.Warn("render: en-todo without checked attribute, assuming unchecked",
				slog.String("path", notePath),
				slog.String("element", el.String()))
			checked = "false"
		}
		done := checked == "true"

		if style == TodoCheckbox {
			repl := enml.NewElement("input")
			repl.Attr["type"] = "checkbox"
			repl.Attr["disabled"] = "disabled"
			if done {
				repl.Attr["checked"] = "checked"
			}
			return repl, nil
		}

		repl := enml.NewElement("span")
		if done {
			repl.Text = "[x] "
		} else {
			repl.Text = "[ ] "
		}
		return repl, nil
	}
	return enml.Rule{Tag: "en-todo", Fn: fn}
}

// LinkRule rewrites internal references into hyperlinks relative to the
// consuming note's output file. Anchors without a target pass through
// structurally (logged as a data-quality warning); anchors targeting
// anything outside the internal scheme pass through untouched.
func LinkRule(store *crosslink.Store, note *models.Note, ext string, logger *slog.Logger) enml.Rule {
	fn := func(el, _ *enml.Element) (*enml.Element, error) {
		href, ok := el.Attr["href"]
		if !ok {
			logger.Warn("render: anchor without href",
				slog.String("path", note.Path),
				slog.String("element", el.String()))
			return el, nil
		}
		if !strings.HasPrefix(href, crosslink.SchemePrefix) {
			return el, nil
		}

		key, val, err := store.Resolve(href)
		if err != nil {
			return nil, err
		}
		if val == "" {
			logger.Warn("render: unresolved internal reference",
				slog.String("path", note.Path),
				slog.String("text", crosslink.VisibleText(el)),
				slog.String("ref", href))
			return el, nil
		}

		target := models.StripExt(key) + ext
		rel, err := RelPath(note.OutputPath(ext), target)
		if err != nil {
			return nil, err
		}
		el.Attr["href"] = rel
		return el, nil
	}
	return enml.Rule{Tag: "a", Fn: fn}
}

// RelPath computes the link from one output file to another, both given
// as corpus-relative slash paths.
func RelPath(from, to string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(filepath.FromSlash(from)), filepath.FromSlash(to))
	if err != nil {
		return "", fmt.Errorf("render: relative path %s -> %s: %w", from, to, err)
	}
	return filepath.ToSlash(rel), nil
}
