package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WithSPA serves the web client from webDir and passes /api/ requests to
// apiHandler. Unknown paths fall back to index.html for client-side routing.
func WithSPA(apiHandler http.Handler, webDir string) http.Handler {
	files := http.FileServer(http.Dir(webDir))
	index := filepath.Join(webDir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			apiHandler.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if rel != "" && rel != "." && isRegularFile(filepath.Join(webDir, filepath.FromSlash(rel))) {
			files.ServeHTTP(w, r)
			return
		}
		if !isRegularFile(index) {
			http.Error(w, "index.html not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, index)
	})
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
