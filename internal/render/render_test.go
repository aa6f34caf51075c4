package render

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/enml"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingHandler counts log records by level for warning assertions.
type recordingHandler struct {
	mu    sync.Mutex
	warns int
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.Level == slog.LevelWarn {
		h.warns++
	}
	return nil
}
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func mustParse(t *testing.T, s string) *enml.Element {
	t.Helper()
	el, err := enml.ParseString(s)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return el
}

func note(t *testing.T, path, title, body string) *models.Note {
	t.Helper()
	return &models.Note{
		Path:       path,
		Title:      title,
		Content:    mustParse(t, "<en-note>"+body+"</en-note>"),
		Created:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Attributes: map[string]string{},
	}
}

func TestCheckboxRule_Markers(t *testing.T) {
	cases := []struct {
		name string
		attr string
		want string
	}{
		{"checked", `<en-todo checked="true"/>`, "[x] "},
		{"unchecked", `<en-todo checked="false"/>`, "[ ] "},
		{"missing attribute", `<en-todo/>`, "[ ] "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := mustParse(t, "<en-note>"+tc.attr+"tail</en-note>")
			enml.Remap(root, []enml.Rule{CheckboxRule(TodoMarker, "x.enex", discardLogger())}, discardLogger())
			got := root.Children[0]
			if got.Tag != "span" || got.Text != tc.want {
				t.Errorf("replacement = %s text=%q, want %q", got.Tag, got.Text, tc.want)
			}
			if got.Tail != "tail" {
				t.Errorf("tail = %q, want %q", got.Tail, "tail")
			}
		})
	}
}

func TestCheckboxRule_MissingAttributeWarnsOnce(t *testing.T) {
	h := &recordingHandler{}
	logger := slog.New(h)
	root := mustParse(t, `<en-note><en-todo/></en-note>`)
	enml.Remap(root, []enml.Rule{CheckboxRule(TodoMarker, "x.enex", logger)}, logger)
	if h.warns != 1 {
		t.Errorf("warnings = %d, want exactly 1", h.warns)
	}
}

func TestCheckboxRule_NativeControl(t *testing.T) {
	root := mustParse(t, `<en-note><en-todo checked="true"/></en-note>`)
	enml.Remap(root, []enml.Rule{CheckboxRule(TodoCheckbox, "x.enex", discardLogger())}, discardLogger())
	got := root.Children[0]
	if got.Tag != "input" || got.Attr["type"] != "checkbox" || got.Attr["checked"] != "checked" {
		t.Errorf("replacement = %s", got)
	}
}

func TestLinkRule_RewritesAcrossNotebooks(t *testing.T) {
	store := testutil.TestStore(t)
	token := "evernote:///view/1/s1/cccc/cccc/"
	if err := store.Set("B/Target.enex", token); err != nil {
		t.Fatal(err)
	}

	n := note(t, "A/Source.enex", "Source", `<a href="`+token+`">Target</a>`)
	enml.Remap(n.Content, []enml.Rule{LinkRule(store, n, ".html", discardLogger())}, discardLogger())

	a := n.Content.Children[0]
	if a.Attr["href"] != "../B/Target.html" {
		t.Errorf("href = %q, want %q", a.Attr["href"], "../B/Target.html")
	}
}

func TestLinkRule_SameNotebook(t *testing.T) {
	store := testutil.TestStore(t)
	token := "evernote:///view/1/s1/dddd/dddd/"
	if err := store.Set("A/Target.enex", token); err != nil {
		t.Fatal(err)
	}

	n := note(t, "A/Source.enex", "Source", `<a href="`+token+`">Target</a>`)
	enml.Remap(n.Content, []enml.Rule{LinkRule(store, n, ".html", discardLogger())}, discardLogger())

	if got := n.Content.Children[0].Attr["href"]; got != "Target.html" {
		t.Errorf("href = %q, want %q", got, "Target.html")
	}
}

func TestLinkRule_ExternalPassthrough(t *testing.T) {
	store := testutil.TestStore(t)
	n := note(t, "A/Source.enex", "Source", `<a href="https://example.com/x">x</a>`)
	enml.Remap(n.Content, []enml.Rule{LinkRule(store, n, ".html", discardLogger())}, discardLogger())
	if got := n.Content.Children[0].Attr["href"]; got != "https://example.com/x" {
		t.Errorf("href = %q, external link must pass through", got)
	}
}

func TestLinkRule_MissingHrefWarns(t *testing.T) {
	store := testutil.TestStore(t)
	h := &recordingHandler{}
	logger := slog.New(h)
	n := note(t, "A/Source.enex", "Source", `<a>dangling</a>`)
	enml.Remap(n.Content, []enml.Rule{LinkRule(store, n, ".html", logger)}, logger)
	if h.warns != 1 {
		t.Errorf("warnings = %d, want 1", h.warns)
	}
	if n.Content.Children[0].Tag != "a" {
		t.Error("anchor should remain a structural pass-through")
	}
}

func TestLinkRule_UnresolvedLeftAlone(t *testing.T) {
	store := testutil.TestStore(t)
	token := "evernote:///view/1/s1/eeee/eeee/"
	n := note(t, "A/Source.enex", "Source", `<a href="`+token+`">gone</a>`)
	enml.Remap(n.Content, []enml.Rule{LinkRule(store, n, ".html", discardLogger())}, discardLogger())
	if got := n.Content.Children[0].Attr["href"]; got != token {
		t.Errorf("href = %q, unresolved reference must stay untouched", got)
	}
}

func TestHTML_MinimalDocument(t *testing.T) {
	n := note(t, "A/N.enex", "N", "<div>hello</div>")
	out, err := HTML(n)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", `<meta charset="utf-8"/>`, "<en-note><div>hello</div></en-note>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestText_TitleUnderline(t *testing.T) {
	n := note(t, "A/N.enex", "Grød", "<div>hello</div>")
	out, err := Text(n)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	lines := strings.SplitN(out, "\n", 4)
	if lines[0] != "Grød" {
		t.Errorf("title line = %q", lines[0])
	}
	if lines[1] != "====" {
		t.Errorf("underline = %q, want rune-width match", lines[1])
	}
	if lines[2] != "" {
		t.Errorf("expected blank separator, got %q", lines[2])
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("body missing: %q", out)
	}
}

func TestText_LinksStayVisible(t *testing.T) {
	n := note(t, "A/N.enex", "N", `<div><a href="Target.html">Target</a></div>`)
	out, err := Text(n)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(out, "Target.html") {
		t.Errorf("resolved href not visible in text output:\n%s", out)
	}
}

func TestExt_Unsupported(t *testing.T) {
	if _, err := Ext("pdf"); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestIndex_EntriesAndOverwrite(t *testing.T) {
	nb := &models.Notebook{Dir: "A", Notes: []*models.Note{
		note(t, "A/B.enex", "Beta", "<div/>"),
		note(t, "A/A.enex", "Alpha", "<div/>"),
		note(t, "A/A2.enex", "Alpha", "<div/>"), // same title overwrites
	}}
	out, err := Index(nb, FormatHTML)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if !strings.HasPrefix(out, IndexHeader+"\n") || !strings.HasSuffix(out, IndexFooter+"\n") {
		t.Errorf("placeholders missing:\n%s", out)
	}
	if n := strings.Count(out, "<li>"); n != 2 {
		t.Errorf("entries = %d, want 2 (duplicate title overwritten)", n)
	}
	if !strings.Contains(out, `<a href="A2.html">Alpha</a>`) {
		t.Errorf("later duplicate should win:\n%s", out)
	}
	if strings.Index(out, "Alpha") > strings.Index(out, "Beta") {
		t.Error("titles not sorted")
	}
}

func TestIndex_EmptyNotebook(t *testing.T) {
	out, err := Index(&models.Notebook{Dir: "Empty"}, FormatText)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	want := IndexHeader + "\n" + IndexFooter + "\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestNote_NoRulesNoMutation(t *testing.T) {
	n := note(t, "A/N.enex", "N", `<div class="k">x<p>y</p>z</div>`)
	before, err := enml.RenderHTML(n.Content)
	if err != nil {
		t.Fatal(err)
	}
	enml.Remap(n.Content, nil, discardLogger())
	after, err := enml.RenderHTML(n.Content)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("empty rule set mutated the tree: %q vs %q", before, after)
	}
}
