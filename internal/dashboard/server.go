package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kbaudit/internal/config"
	"kbaudit/internal/logging"
	"kbaudit/internal/logs"
	"kbaudit/internal/pipeline"
	"kbaudit/internal/report"
	"kbaudit/internal/store"
)

const (
	defaultArticleLimit = 50
	defaultLogLimit     = 200
	pageLogLines        = 100
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var runnableStages = map[string]struct{}{
	pipeline.StageCollect: {},
	pipeline.StageAnalyze: {},
	pipeline.StageReport:  {},
	pipeline.StageAll:     {},
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	launcher Launcher
	logger   *slog.Logger
	page     *template.Template
	busy     func() (bool, error)

	// baseCtx outlives individual requests so launched stages are not
	// killed when the POST completes.
	baseCtx context.Context
	server  *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBusyCheck overrides how an external run holding the lock is detected.
func WithBusyCheck(busy func() (bool, error)) Option {
	return func(s *Server) {
		if busy != nil {
			s.busy = busy
		}
	}
}

// New constructs a dashboard server.
func New(cfg *config.Config, st *store.Store, launcher Launcher, opts ...Option) (*Server, error) {
	if cfg == nil || st == nil || launcher == nil {
		return nil, errors.New("dashboard requires config, store, and launcher")
	}
	page, err := template.New("index.html.tmpl").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	s := &Server{
		cfg:      cfg,
		store:    st,
		launcher: launcher,
		logger:   logging.NewNop(),
		page:     page,
		busy:     func() (bool, error) { return pipeline.Busy(cfg) },
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "dashboard")
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/run/{stage}", requireToken(s.cfg.Dashboard.Token, s.handleRun))
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/articles", s.handleArticles)
	mux.HandleFunc("GET /api/report/latest", s.handleLatestReport)
	return mux
}

// Serve listens on the configured bind address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Dashboard.Bind)
	if err != nil {
		return fmt.Errorf("dashboard listen: %w", err)
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	s.baseCtx = ctx
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()
	s.logger.Info("dashboard listening", logging.String("address", "http://"+listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("dashboard shutdown failed", logging.Error(err))
		}
		return nil
	}
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Stats         StatsView `json:"stats"`
	Running       string    `json:"running,omitempty"`
	Busy          bool      `json:"busy"`
	LLMConfigured bool      `json:"llm_configured"`
	Models        []string  `json:"models"`
	LatestReport  string    `json:"latest_report,omitempty"`
}

// StatsView mirrors store.Stats for JSON and templates.
type StatsView struct {
	Categories int     `json:"categories"`
	Total      int     `json:"total"`
	Analyzed   int     `json:"analyzed"`
	Failed     int     `json:"failed"`
	Pending    int     `json:"pending"`
	Percent    float64 `json:"percent"`
}

// ArticleView is one row of /api/articles.
type ArticleView struct {
	ID             int64  `json:"id"`
	CustomID       string `json:"custom_id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	Category       string `json:"category"`
	WordCount      int    `json:"word_count"`
	HasScreenshots bool   `json:"has_screenshots"`
	ContentType    string `json:"content_type,omitempty"`
	Topics         string `json:"topics_covered,omitempty"`
	Gap            string `json:"gap_analysis,omitempty"`
	Status         string `json:"status"`
}

// LogsResponse is the /api/logs payload.
type LogsResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

func (s *Server) status(ctx context.Context) (StatusResponse, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return StatusResponse{}, err
	}
	resp := StatusResponse{
		Stats: StatsView{
			Categories: stats.Categories,
			Total:      stats.Total,
			Analyzed:   stats.Analyzed,
			Failed:     stats.Failed,
			Pending:    stats.Pending,
			Percent:    stats.Percent(),
		},
		LLMConfigured: s.cfg.LLMConfigured(),
		Models:        append([]string(nil), s.cfg.LLM.Models...),
	}
	if stage, ok := s.launcher.Running(); ok {
		resp.Running = stage
		resp.Busy = true
	} else if busy, err := s.busy(); err != nil {
		s.logger.Warn("run lock check failed", logging.Error(err))
	} else {
		resp.Busy = busy
	}
	if latest, err := report.Latest(s.cfg.Paths.ReportDir); err == nil {
		resp.LatestReport = filepath.Base(latest)
	}
	return resp, nil
}

func (s *Server) articles(ctx context.Context, limit int) ([]ArticleView, error) {
	rows, err := s.store.RecentArticles(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ArticleView, 0, len(rows))
	for _, a := range rows {
		out = append(out, ArticleView{
			ID:             a.ID,
			CustomID:       a.CustomID,
			Title:          a.Title,
			URL:            a.URL,
			Category:       a.Category,
			WordCount:      a.WordCount,
			HasScreenshots: a.HasScreenshots,
			ContentType:    a.ContentType,
			Topics:         a.Topics,
			Gap:            a.Gap,
			Status:         a.Status(),
		})
	}
	return out, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status, err := s.status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	articles, err := s.articles(r.Context(), defaultArticleLimit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tail, err := logs.Tail(r.Context(), s.cfg.LogPath(), logs.TailOptions{Offset: -1, Limit: pageLogLines})
	if err != nil {
		s.logger.Warn("log tail failed", logging.Error(err))
	}
	data := pageData{
		Status:    status,
		Articles:  articles,
		LogLines:  tail.Lines,
		LogOffset: tail.Offset,
		Stages:    []string{pipeline.StageCollect, pipeline.StageAnalyze, pipeline.StageReport, pipeline.StageAll},
		SiteURL:   s.cfg.Site.BaseURL,
		NeedToken: s.cfg.Dashboard.Token != "",
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render dashboard failed", logging.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	stage := r.PathValue("stage")
	if _, ok := runnableStages[stage]; !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown stage %q", stage))
		return
	}
	if running, ok := s.launcher.Running(); ok {
		s.writeError(w, http.StatusConflict, fmt.Sprintf("%s is already running", running))
		return
	}
	busy, err := s.busy()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if busy {
		s.writeError(w, http.StatusConflict, pipeline.ErrBusy.Error())
		return
	}
	if err := s.launcher.Launch(s.baseCtx, stage); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("stage requested", logging.String(logging.FieldStage, stage), logging.String("remote", r.RemoteAddr))
	s.writeJSON(w, http.StatusAccepted, map[string]string{"stage": stage})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	offset := int64(-1)
	if value := strings.TrimSpace(query.Get("offset")); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = parsed
	}
	limit := queryInt(query.Get("limit"), defaultLogLimit)

	tail, err := logs.Tail(r.Context(), s.cfg.LogPath(), logs.TailOptions{
		Offset:   offset,
		Limit:    limit,
		Contains: query.Get("q"),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if offset >= 0 && len(tail.Lines) > limit {
		tail.Lines = tail.Lines[len(tail.Lines)-limit:]
	}
	lines := tail.Lines
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, LogsResponse{Lines: lines, Offset: tail.Offset})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.articles(r.Context(), queryInt(r.URL.Query().Get("limit"), defaultArticleLimit))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	path, err := report.Latest(s.cfg.Paths.ReportDir)
	if errors.Is(err, os.ErrNotExist) {
		s.writeError(w, http.StatusNotFound, "no report generated yet")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
