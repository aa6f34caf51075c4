// Package testutil provides shared test helpers for building export
// trees and temporary crosslink stores.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/crosslink"
)

// TestStore creates a temporary crosslink store that is automatically
// cleaned up.
func TestStore(t *testing.T) *crosslink.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := crosslink.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Archive renders a minimal single-note ENEX document whose content
// body is the given ENML fragment (wrapped in an en-note root).
func Archive(title, body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export3.dtd">
<en-export export-date="20240105T093000Z" application="Evernote">
  <note>
    <title>%s</title>
    <content><![CDATA[<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">
<en-note>%s</en-note>]]></content>
    <created>20240101T120000Z</created>
    <note-attributes><source>test</source></note-attributes>
  </note>
</en-export>
`, title, body)
}

// WriteArchive writes a single-note archive at rel under root, creating
// parent directories as needed.
func WriteArchive(t *testing.T, root, rel, title, body string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(Archive(title, body)), 0o644); err != nil {
		t.Fatal(err)
	}
}

// SelfLink renders an internal anchor whose label matches the note's
// own name, as exported clients do for note links.
func SelfLink(token, label string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, token, label)
}
