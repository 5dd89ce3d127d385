// Package web serves the scan API over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"sentinelscan/internal/config"
	"sentinelscan/internal/metrics"
	"sentinelscan/internal/model"
	"sentinelscan/internal/scan"
	"sentinelscan/internal/store"
	"sentinelscan/internal/telemetry"
)

// uploads beyond this are spooled to disk by the multipart reader
const multipartMemory = 32 << 20

// Server handles the scan API.
type Server struct {
	aggregator *scan.Aggregator
	store      store.Store
	fetcher    scan.Fetcher
	filter     *scan.Filter
	metrics    *metrics.Metrics
	settings   config.ServerSettings
}

// NewServer creates a new API server. A nil m disables request metrics and /metrics.
func NewServer(agg *scan.Aggregator, st store.Store, fetcher scan.Fetcher, filter *scan.Filter, m *metrics.Metrics, settings config.ServerSettings) *Server {
	if filter == nil {
		filter = scan.DefaultFilter()
	}
	return &Server{
		aggregator: agg,
		store:      st,
		fetcher:    fetcher,
		filter:     filter,
		metrics:    m,
		settings:   settings,
	}
}

// Handler builds the routed handler with CORS and request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scan/upload", s.handleUpload)
	mux.HandleFunc("POST /api/scan/repo", s.handleRepo)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{scan_id}", s.handleGetReport)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	var h http.Handler = mux
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
		h = s.metrics.RequestTrackingMiddleware(h)
	}
	return s.cors(h)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.LogInfo("Starting API server", "addr", s.settings.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		telemetry.LogInfo("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(s.settings.CORSOrigins, origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					h.Set("Access-Control-Allow-Headers", req)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.LogError("Failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.settings.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart form with one or more 'files'")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	files, err := s.readUploads(headers)
	if err != nil {
		telemetry.LogError("Failed to read upload", err)
		writeError(w, http.StatusBadRequest, "Failed to read uploaded files")
		return
	}

	report, err := s.aggregator.Scan(r.Context(), scan.SourceUpload, files)
	if err != nil {
		telemetry.LogError("Upload scan failed", err)
		writeError(w, http.StatusInternalServerError, "Scan failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// readUploads applies the file filter to uploaded parts. Later parts with the
// same name replace earlier ones, as writing them to one directory would.
func (s *Server) readUploads(headers []*multipart.FileHeader) ([]scan.File, error) {
	index := make(map[string]int)
	var files []scan.File
	for _, fh := range headers {
		name := SanitizeUploadName(fh.Filename)
		if !s.filter.Accept(name, fh.Size) {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if i, ok := index[name]; ok {
			files[i].Content = content
			continue
		}
		index[name] = len(files)
		files = append(files, scan.File{Path: name, Content: content})
	}
	slices.SortFunc(files, func(a, b scan.File) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// SanitizeUploadName turns a client supplied filename into a clean relative
// path. Parent references and absolute prefixes are removed.
func SanitizeUploadName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	var parts []string
	for _, p := range strings.Split(path.Clean("/"+name), "/") {
		if p != "" && p != "." && p != ".." {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "/")
}

type repoRequest struct {
	RepoURL string `json:"repo_url"`
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	var req repoRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		writeError(w, http.StatusBadRequest, "repo_url is required")
		return
	}

	report, err := s.aggregator.ScanRepository(r.Context(), s.fetcher, req.RepoURL)
	if err != nil {
		telemetry.LogError("Repository scan failed", err, "repo_url", req.RepoURL)
		writeError(w, http.StatusInternalServerError, "Scan failed")
		return
	}
	if report.Failed() {
		writeError(w, http.StatusBadRequest, "Could not fetch repository. Ensure the URL is a valid public GitHub repo.")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.List(r.Context())
	if err != nil {
		telemetry.LogError("Failed to list reports", err)
		writeError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	if reports == nil {
		reports = []*model.ScanReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.Get(r.Context(), r.PathValue("scan_id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		telemetry.LogError("Failed to load report", err)
		writeError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
