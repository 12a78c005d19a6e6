package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSPAHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>portal</html>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	handler := spaHandler(dir)

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		contains string
	}{
		{name: "serves asset", method: http.MethodGet, path: "/app.js", status: http.StatusOK, contains: "console.log"},
		{name: "falls back to index for client routes", method: http.MethodGet, path: "/materials/42", status: http.StatusOK, contains: "portal"},
		{name: "rejects writes", method: http.MethodPost, path: "/app.js", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("expected body to contain %q, got %q", tt.contains, rec.Body.String())
			}
			if tt.status == http.StatusMethodNotAllowed && rec.Header().Get("Allow") == "" {
				t.Fatal("expected Allow header")
			}
		})
	}
}
