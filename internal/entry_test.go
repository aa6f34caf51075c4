package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/testutil"
)

const breadToken = "evernote:///view/9/s9/bread-guid/bread-guid/"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Export.Path = filepath.Join(root, "export")
	cfg.Cache.Path = filepath.Join(root, "cache")
	cfg.Output.Path = filepath.Join(root, "site")
	cfg.Crosslink.Path = filepath.Join(root, "crosslinks.db")
	if err := os.MkdirAll(cfg.Export.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

// writeCorpus builds a small export with a cross-notebook reference:
// Pasta (inside a stack) links to Bread by name, and Bread carries the
// self-link that teaches the converter its address.
func writeCorpus(t *testing.T, exportPath string) {
	t.Helper()
	testutil.WriteArchive(t, exportPath, "Bakery/Bread.enex", "Bread",
		"<div>"+testutil.SelfLink(breadToken, "Bread")+"</div>")
	testutil.WriteArchive(t, exportPath, "Food.stack/Recipes/Pasta.enex", "Pasta",
		`<div>Serve with <a href="`+breadToken+`">Bread</a></div><div><en-todo checked="true"/>Boil water</div>`)
}

func readOutput(t *testing.T, cfg *Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Output.Path, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestRunHTML(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.Export.Path)

	if err := Run(context.Background(), WithConfig(cfg), WithLogger(discardLogger())); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	pasta := readOutput(t, cfg, "Food.stack/Recipes/Pasta.html")
	if !strings.Contains(pasta, `href="../../Bakery/Bread.html"`) {
		t.Errorf("cross-notebook link not rewritten:\n%s", pasta)
	}
	if !strings.Contains(pasta, "[x] ") {
		t.Errorf("todo marker missing:\n%s", pasta)
	}

	bread := readOutput(t, cfg, "Bakery/Bread.html")
	if !strings.Contains(bread, `href="Bread.html"`) {
		t.Errorf("self link not rewritten:\n%s", bread)
	}

	idx := readOutput(t, cfg, "Bakery/index.html")
	if !strings.Contains(idx, render.IndexHeader) || !strings.Contains(idx, render.IndexFooter) {
		t.Errorf("index placeholders missing:\n%s", idx)
	}
	if !strings.Contains(idx, `<a href="Bread.html">Bread</a>`) {
		t.Errorf("index entry missing:\n%s", idx)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output.Path, "Food.stack", "Recipes", "index.html")); err != nil {
		t.Errorf("stack notebook index missing: %v", err)
	}
}

func TestRunText(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Format = render.FormatText
	writeCorpus(t, cfg.Export.Path)

	if err := Run(context.Background(), WithConfig(cfg), WithLogger(discardLogger())); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	pasta := readOutput(t, cfg, "Food.stack/Recipes/Pasta.txt")
	if !strings.HasPrefix(pasta, "Pasta\n=====\n\n") {
		t.Errorf("title underline missing:\n%s", pasta)
	}
	if !strings.Contains(pasta, "../../Bakery/Bread.txt") {
		t.Errorf("link target not visible in text output:\n%s", pasta)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output.Path, "Bakery", "index.txt")); err != nil {
		t.Errorf("text index missing: %v", err)
	}
}

func TestRunSkipsMalformedArchive(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.Export.Path)
	broken := filepath.Join(cfg.Export.Path, "Bakery", "Broken.enex")
	if err := os.WriteFile(broken, []byte("not an archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run(context.Background(), WithConfig(cfg), WithLogger(discardLogger())); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output.Path, "Bakery", "Broken.html")); !os.IsNotExist(err) {
		t.Error("malformed archive produced output")
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Path, "Bakery", "Bread.html")); err != nil {
		t.Errorf("healthy note missing: %v", err)
	}
}

func TestRunMissingExport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Path = filepath.Join(cfg.Export.Path, "nope")

	if err := Run(context.Background(), WithConfig(cfg), WithLogger(discardLogger())); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
}

func TestRunBadStorePathIsFatal(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.Export.Path)
	cfg.Crosslink.Path = filepath.Join(cfg.Export.Path, "missing-dir", "db", "crosslinks.db")

	if err := Run(context.Background(), WithConfig(cfg), WithLogger(discardLogger())); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background(), WithLogger(discardLogger())); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
}

func TestRunIsRepeatable(t *testing.T) {
	cfg := testConfig(t)
	writeCorpus(t, cfg.Export.Path)

	for i := 0; i < 2; i++ {
		if err := Run(context.Background(), WithConfig(cfg), WithLogger(discardLogger())); err != nil {
			t.Fatalf("Run() #%d error = %v", i+1, err)
		}
	}

	pasta := readOutput(t, cfg, "Food.stack/Recipes/Pasta.html")
	if !strings.Contains(pasta, `href="../../Bakery/Bread.html"`) {
		t.Errorf("second run broke links:\n%s", pasta)
	}
}
