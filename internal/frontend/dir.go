package frontend

import (
	"log/slog"
	"net/http"
	"os"
)

// Resolve picks the handler for the single-page client: the embedded copy
// when present, otherwise dir on disk. It returns nil if neither exists.
func Resolve(dir string) http.Handler {
	if h := Handler(); h != nil {
		slog.Info("Serving embedded frontend")
		return h
	}
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("Frontend directory not found, not serving static files", "dir", dir)
		return nil
	}
	slog.Info("Serving frontend from filesystem", "dir", dir)
	return http.FileServer(http.Dir(dir))
}
