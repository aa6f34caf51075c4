package render

import (
	"fmt"
	"html"
	"path"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Opaque placeholder tokens around the listing body. They are left to a
// downstream site template to replace; this stage never resolves them.
const (
	IndexHeader = "{{ header }}"
	IndexFooter = "{{ footer }}"
)

// IndexName returns the listing file name for a format ("index.html" /
// "index.txt").
func IndexName(format string) (string, error) {
	ext, err := Ext(format)
	if err != nil {
		return "", err
	}
	return "index" + ext, nil
}

// Index renders a notebook's listing for one format: every note's title
// mapped to its output path relative to the listing file itself. Titles
// are not unique; a later note with the same title overwrites the
// earlier entry. Output order is sorted by title so runs are
// deterministic. An empty notebook yields an empty list body.
func Index(nb *models.Notebook, format string) (string, error) {
	ext, err := Ext(format)
	if err != nil {
		return "", err
	}
	indexPath := path.Join(nb.Dir, "index"+ext)

	entries := make(map[string]string, len(nb.Notes))
	for _, n := range nb.Notes {
		rel, err := RelPath(indexPath, n.OutputPath(ext))
		if err != nil {
			return "", err
		}
		entries[n.Title] = rel
	}

	titles := make([]string, 0, len(entries))
	for t := range entries {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	var b strings.Builder
	b.WriteString(IndexHeader)
	b.WriteByte('\n')

	switch format {
	case FormatHTML:
		b.WriteString("<ol>\n")
		for _, t := range titles {
			fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n",
				html.EscapeString(entries[t]), html.EscapeString(t))
		}
		b.WriteString("</ol>\n")
	case FormatText:
		for _, t := range titles {
			fmt.Fprintf(&b, "- %s: %s\n", t, entries[t])
		}
	}

	b.WriteString(IndexFooter)
	b.WriteByte('\n')
	return b.String(), nil
}
