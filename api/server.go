// Package api provides the HTTP server for healthscatter.
//
// It serves the chart as an HTML page, SVG and image exports, exposes the
// scene, records and tooltip states as JSON, and relays hover events over
// WebSocket so every connected page shows the same tooltip.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/internal/config"
	"github.com/seenimoa/healthscatter/internal/datasource"
	"github.com/seenimoa/healthscatter/internal/infra"
	"github.com/seenimoa/healthscatter/internal/report"
	"github.com/seenimoa/healthscatter/web"
)

// Version is reported by /health; set by the CLI at startup.
var Version = "dev"

// maxUploadBytes caps the CSV body of POST /api/v1/render.
const maxUploadBytes = 4 << 20

const sceneKey = "scene"

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	chart  chart.Config
	src    datasource.Source
	log    *slog.Logger

	scenes *infra.Cache[*chart.Scene]
	loads  singleflight.Group
	wsHub  *WSHub

	hoverMu    sync.Mutex
	hover      *chart.HoverTracker
	hoverScene *chart.Scene
	started    time.Time
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, log *slog.Logger) (*Server, error) {
	cc, err := cfg.ResolveChart()
	if err != nil {
		return nil, err
	}
	if err := cc.Validate(); err != nil {
		return nil, fmt.Errorf("chart config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	srv := &Server{
		cfg:     cfg,
		chart:   cc,
		src:     datasource.OpenLimited(cfg.Data.Source, cfg.Data.RateLimit),
		log:     log,
		scenes:  infra.NewCache[*chart.Scene](cfg.CacheTTL()),
		wsHub:   NewWSHub(),
		started: time.Now(),
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown on SIGINT
// or SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.wsHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr, "source", s.src.Name(), "variant", s.chart.Variant)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handlePage)

	// The page's own assets, plus the dataset at its conventional path.
	r.Get("/assets/data/data.csv", s.handleDataFile)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServerFS(web.StaticFS())))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/chart.{format}", s.handleChart)
		r.Post("/render", s.handleRender)

		r.Get("/scene", s.handleScene)
		r.Get("/records", s.handleRecords)
		r.Get("/tooltip/{index}", s.handleTooltip)

		r.Get("/config", s.handleGetConfig)
		r.Delete("/cache", s.handleFlushCache)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Scene loading
// ============================================================

// errLoad marks a failed dataset load; handlers answer 502.
var errLoad = errors.New("dataset unavailable")

// scene returns the cached scene, loading it once for all concurrent
// callers on a miss. Failed loads are logged by the renderer and not cached.
func (s *Server) scene() (*chart.Scene, error) {
	if sc, ok := s.scenes.Get(sceneKey); ok {
		return sc, nil
	}
	v, err, _ := s.loads.Do(sceneKey, func() (interface{}, error) {
		// Detached from any one request so a client hanging up does not
		// fail the load for everyone waiting on it.
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout())
		defer cancel()

		sc := chart.NewRenderer(s.chart, s.src, s.log).Render(ctx)
		if sc.Failed() {
			return nil, fmt.Errorf("%w: %v", errLoad, sc.LoadErr)
		}
		s.scenes.Set(sceneKey, sc)
		return sc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*chart.Scene), nil
}

// sceneOr502 writes the 502 envelope when the scene cannot be loaded.
func (s *Server) sceneOr502(w http.ResponseWriter) (*chart.Scene, bool) {
	sc, err := s.scene()
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return nil, false
	}
	return sc, true
}

// ============================================================
// Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthInfo is the payload of /health.
type HealthInfo struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Source    string `json:"source"`
	Variant   string `json:"variant"`
	Cached    bool   `json:"cached"`
	WSClients int    `json:"ws_clients"`
	Uptime    string `json:"uptime"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, cached := s.scenes.Get(sceneKey)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthInfo{
			Status:    "ok",
			Version:   Version,
			Source:    s.src.Name(),
			Variant:   s.chart.Variant,
			Cached:    cached,
			WSClients: s.wsHub.ClientCount(),
			Uptime:    time.Since(s.started).Round(time.Second).String(),
		},
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.sceneOr502(w)
	if !ok {
		return
	}
	page, err := report.Page(sc, report.PageOptions{Footer: true})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", report.FormatHTML.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	io.WriteString(w, page) //nolint:errcheck
}

func (s *Server) handleDataFile(w http.ResponseWriter, r *http.Request) {
	file, ok := s.src.(*datasource.FileSource)
	if !ok {
		writeError(w, http.StatusNotFound, "dataset is not a local file")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	http.ServeFile(w, r, file.Path)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	f, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	sc, ok := s.sceneOr502(w)
	if !ok {
		return
	}
	s.writeScene(w, sc, f)
}

// handleRender renders an uploaded CSV body without touching the cache.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	f := report.FormatSVG
	if q := r.URL.Query().Get("format"); q != "" {
		var err error
		if f, err = report.ParseFormat(q); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	src := datasource.NewReaderSource("upload", body)
	sc := chart.NewRenderer(s.chart, src, s.log).Render(r.Context())
	if sc.Failed() {
		writeError(w, http.StatusBadRequest, sc.LoadErr.Error())
		return
	}
	s.writeScene(w, sc, f)
}

func (s *Server) writeScene(w http.ResponseWriter, sc *chart.Scene, f report.Format) {
	if f == report.FormatJSON {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sc})
		return
	}
	// Render fully before writing headers so errors still get an envelope.
	var buf bytes.Buffer
	if err := report.Write(&buf, sc, f, report.PageOptions{}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.sceneOr502(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sc})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.sceneOr502(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sc.Records})
}

func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	kind, err := chart.ParseMarkKind(r.URL.Query().Get("mark"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc, ok := s.sceneOr502(w)
	if !ok {
		return
	}
	st, err := sc.Hover(kind, idx)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: st})
}

func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	s.scenes.Flush()
	s.log.Info("scene cache flushed")
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{"status": "flushed"}})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
