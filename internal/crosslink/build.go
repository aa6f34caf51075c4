package crosslink

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/ansuz/internal/enml"
	"github.com/starford/ansuz/internal/models"
)

// SchemePrefix marks an internal note-to-note reference.
const SchemePrefix = "evernote://"

// Build populates the store from a fully materialized corpus in two
// passes. Pass one registers every note identity (path without
// extension, empty value) so each valid identity is a key even when
// never referenced. Pass two records, for each note that references
// itself by name, the raw token it used; other notes' references to it
// resolve through that token.
//
// Both passes must finish over the whole corpus before any note is
// rendered: link rewriting depends on complete knowledge of every
// note's self-reference token.
func Build(store *Store, notebooks []*models.Notebook, logger *slog.Logger) error {
	for _, nb := range notebooks {
		for _, n := range nb.Notes {
			if err := store.Set(n.Key(), ""); err != nil {
				return fmt.Errorf("crosslink: register identity %s: %w", n.Path, err)
			}
		}
	}

	for _, nb := range notebooks {
		for _, n := range nb.Notes {
			if err := captureSelfReference(store, n, logger); err != nil {
				return err
			}
		}
	}
	return nil
}

// captureSelfReference scans one note's content for internal references
// whose visible text names the note itself and stores the raw token.
func captureSelfReference(store *Store, n *models.Note, logger *slog.Logger) error {
	for _, a := range n.Content.FindAll("a") {
		href, ok := a.Attr["href"]
		if !ok || !strings.HasPrefix(href, SchemePrefix) {
			continue
		}
		text := VisibleText(a)
		if text == "" {
			continue
		}
		if !strings.HasSuffix(n.Key(), text) {
			continue
		}
		if err := store.Set(n.Path, href); err != nil {
			return fmt.Errorf("crosslink: record token for %s: %w", n.Path, err)
		}
		logger.Debug("crosslink: captured self-reference",
			slog.String("path", n.Path),
			slog.String("token", href))
	}
	return nil
}

// VisibleText returns an anchor's human-visible label: its own text, or
// the concatenated text of its descendants when the anchor wraps nested
// inline markup.
func VisibleText(a *enml.Element) string {
	if t := strings.TrimSpace(a.Text); t != "" {
		return t
	}
	return strings.TrimSpace(a.TextContent())
}
