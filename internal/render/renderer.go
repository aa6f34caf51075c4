package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jaytaylor/html2text"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/enml"
	"github.com/starford/ansuz/internal/models"
)

// Supported output formats.
const (
	FormatHTML = "html"
	FormatText = "text"
)

// Ext maps a format name to its output file extension.
func Ext(format string) (string, error) {
	switch format {
	case FormatHTML:
		return ".html", nil
	case FormatText:
		return ".txt", nil
	default:
		return "", fmt.Errorf("render: %q: %w", format, apperr.ErrUnsupportedFormat)
	}
}

// Note renders a (possibly rewritten) note in the given format.
func Note(note *models.Note, format string) (string, error) {
	switch format {
	case FormatHTML:
		return HTML(note)
	case FormatText:
		return Text(note)
	default:
		return "", fmt.Errorf("render: %q: %w", format, apperr.ErrUnsupportedFormat)
	}
}

// HTML emits a minimal standalone document around the note's content
// tree. Serialization failures (invalid UTF-8) are returned to the
// caller so the single note can be skipped without aborting the batch.
func HTML(note *models.Note) (string, error) {
	body, err := enml.RenderHTML(note.Content)
	if err != nil {
		return "", fmt.Errorf("render: %s: %w", note.Path, err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html>\n<head><meta charset=\"utf-8\"/></head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String(), nil
}

// Text emits the note title, an underline rule of the same visible
// width, a blank line, and the content flattened to readable text.
// Resolved hrefs stay visible next to their anchor text.
func Text(note *models.Note) (string, error) {
	body, err := enml.RenderHTML(note.Content)
	if err != nil {
		return "", fmt.Errorf("render: %s: %w", note.Path, err)
	}
	flat, err := html2text.FromString(body, html2text.Options{})
	if err != nil {
		return "", fmt.Errorf("render: %s: flatten: %w", note.Path, err)
	}

	var b strings.Builder
	b.WriteString(note.Title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(note.Title)))
	b.WriteString("\n\n")
	b.WriteString(flat)
	b.WriteByte('\n')
	return b.String(), nil
}
