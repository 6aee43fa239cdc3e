//go:build !embed

package frontend

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveServesDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>results</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	h := Resolve(dir)
	if h == nil {
		t.Fatal("Resolve returned nil for an existing directory")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<h1>results</h1>" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}
}

func TestResolveMissingDirectory(t *testing.T) {
	if h := Resolve(filepath.Join(t.TempDir(), "absent")); h != nil {
		t.Error("Resolve should return nil for a missing directory")
	}
	if h := Resolve(""); h != nil {
		t.Error("Resolve should return nil for an empty directory name")
	}
}
