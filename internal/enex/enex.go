// Package enex parses single-note ENEX export archives into the domain
// model.
package enex

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/enml"
	"github.com/starford/ansuz/internal/models"
)

// Ext is the recognized archive file extension.
const Ext = ".enex"

// createdLayout is the timestamp format Evernote writes into exports.
const createdLayout = "20060102T150405Z0700"

type exportDoc struct {
	XMLName xml.Name  `xml:"en-export"`
	Notes   []noteDoc `xml:"note"`
}

type noteDoc struct {
	Title      *string        `xml:"title"`
	Content    *string        `xml:"content"`
	Created    *string        `xml:"created"`
	Attributes *attributesDoc `xml:"note-attributes"`
}

type attributesDoc struct {
	Fields []attrField `xml:",any"`
}

type attrField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Parse decodes one ENEX archive into a Note. path becomes the note's
// identity and is stored as-is (corpus-relative).
//
// An archive must contain exactly one note element carrying all four
// required fields: title, content, created, note-attributes. Anything
// less fails the whole archive; the caller decides whether to skip it.
func Parse(data []byte, path string) (*models.Note, error) {
	var doc exportDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("enex: parse %s: %w", path, err)
	}
	if len(doc.Notes) != 1 {
		return nil, fmt.Errorf("enex: parse %s: want exactly 1 note element, got %d", path, len(doc.Notes))
	}
	nd := doc.Notes[0]

	if nd.Title == nil || strings.TrimSpace(*nd.Title) == "" {
		return nil, fmt.Errorf("enex: parse %s: title: %w", path, apperr.ErrMissingField)
	}
	if nd.Content == nil {
		return nil, fmt.Errorf("enex: parse %s: content: %w", path, apperr.ErrMissingField)
	}
	if nd.Created == nil {
		return nil, fmt.Errorf("enex: parse %s: created: %w", path, apperr.ErrMissingField)
	}
	if nd.Attributes == nil {
		return nil, fmt.Errorf("enex: parse %s: note-attributes: %w", path, apperr.ErrMissingField)
	}

	created, err := parseCreated(*nd.Created)
	if err != nil {
		return nil, fmt.Errorf("enex: parse %s: created: %w", path, err)
	}

	content, err := parseContent(*nd.Content)
	if err != nil {
		return nil, fmt.Errorf("enex: parse %s: %w", path, err)
	}

	attrs := make(map[string]string, len(nd.Attributes.Fields))
	for _, f := range nd.Attributes.Fields {
		attrs[f.XMLName.Local] = strings.TrimSpace(f.Value)
	}

	return &models.Note{
		Path:       path,
		Title:      strings.TrimSpace(*nd.Title),
		Content:    content,
		Created:    created,
		Attributes: attrs,
	}, nil
}

// parseContent parses the embedded ENML document (CDATA payload of the
// content field, with its own XML prolog and doctype) into a tree.
func parseContent(raw string) (*enml.Element, error) {
	return enml.Parse(bytes.NewReader([]byte(raw)))
}

// parseCreated accepts the native export layout and falls back to
// RFC 3339 for archives produced by third-party tools.
func parseCreated(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(createdLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return t, nil
}
