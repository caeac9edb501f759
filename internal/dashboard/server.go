// Package dashboard serves the static recruiting dashboard and the CSV it
// reads, with the permissive CORS the browser-side viewer expects. It is a
// thin adapter: no templating, no API, just files.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DashboardFile is the static viewer page expected beside the CSV.
const DashboardFile = "recruiting_dashboard.html"

type Server struct {
	log     *slog.Logger
	root    string
	csvFile string
}

func NewServer(root, csvFile string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{log: logger, root: root, csvFile: csvFile}
}

// Check verifies the viewer page and the candidate CSV exist before serving.
func (s *Server) Check() error {
	if _, err := os.Stat(filepath.Join(s.root, DashboardFile)); err != nil {
		return fmt.Errorf("%s not found in %s: %w", DashboardFile, s.root, err)
	}
	if _, err := os.Stat(filepath.Join(s.root, s.csvFile)); err != nil {
		return fmt.Errorf("%s not found in %s (run resume-batch first): %w", s.csvFile, s.root, err)
	}
	return nil
}

// Handler serves the root directory with CORS headers on every response and
// a bare 200 for OPTIONS preflights.
func (s *Server) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	s.log.Info("dashboard.listening",
		"addr", addr,
		"url", fmt.Sprintf("http://localhost%s/%s?csv=%s", addr, DashboardFile, s.csvFile),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errs:
		return err
	}
}
