// Package web serves the generated calendar files over HTTP so calendar
// apps can subscribe to them instead of importing by hand.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appLog "lunarcal/internal/log"
)

// Server exposes /health, an index of generated .ics files, and the files
// themselves. Only regular *.ics files directly under the output directory
// are reachable.
type Server struct {
	dir string
	mux *http.ServeMux
}

// NewServer constructs a Server rooted at the given output directory.
func NewServer(outputDir string) *Server {
	s := &Server{
		dir: outputDir,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRoot serves the index at "/" and individual calendars at
// "/<name>.ics".
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/" {
		s.handleIndex(w, r)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	// Reject anything that is not a bare .ics file name; this closes
	// traversal via "..", nested paths, and non-calendar files.
	if name != path.Base(name) || !strings.HasSuffix(name, ".ics") {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.dir, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	http.ServeFile(w, r, full)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	names, err := s.listCalendars()
	if err != nil {
		appLog.Error("index listing failed", err, "dir", s.dir)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, n := range names {
		fmt.Fprintf(w, "/%s\n", n)
	}
}

func (s *Server) listCalendars() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".ics") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// StartServer runs an HTTP server on listen until ctx is canceled, then
// shuts down gracefully.
func StartServer(ctx context.Context, listen, outputDir string) error {
	s := NewServer(outputDir)
	srv := &http.Server{
		Addr:         listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen, "dir", outputDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
