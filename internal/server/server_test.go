package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/testutil"
)

func TestHealthz(t *testing.T) {
	r := NewRouter(t.TempDir(), testutil.TestStore(t), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestResolveEndpoint(t *testing.T) {
	store := testutil.TestStore(t)
	token := "evernote:///view/1/s1/ffff/ffff/"
	if err := store.Set("A/Note.enex", token); err != nil {
		t.Fatal(err)
	}

	r := NewRouter(t.TempDir(), store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resolve?ref="+token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp ResolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Resolved || resp.Key != "A/Note.enex" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestResolveEndpoint_Unresolved(t *testing.T) {
	r := NewRouter(t.TempDir(), testutil.TestStore(t), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resolve?ref=evernote:///nope", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ResolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Resolved {
		t.Errorf("resp = %+v, want unresolved", resp)
	}
}

func TestResolveEndpoint_MissingRef(t *testing.T) {
	r := NewRouter(t.TempDir(), testutil.TestStore(t), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resolve", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStaticServing(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "NB"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "NB", "index.html"), []byte("<ol></ol>"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRouter(dir, testutil.TestStore(t), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/NB/index.html", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<ol></ol>" {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body)
	}
}
