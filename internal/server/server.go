package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/MisinfoDetector/internal/analyze"
	"github.com/TobiSchelling/MisinfoDetector/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed about.md
var aboutMarkdown string

var md = goldmark.New()

// Analyzer runs a single submission through the classification pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req analyze.Request) (*analyze.Result, error)
}

// HistoryStore reads past analyses. It may be nil when history is disabled.
type HistoryStore interface {
	GetRecentAnalyses(limit int) ([]database.Analysis, error)
	GetStats() (*database.Stats, error)
	GetAnalysis(id string) (*database.Analysis, error)
}

// Options tunes the HTTP surface.
type Options struct {
	RatePerSecond float64
	RateBurst     int
	CORSOrigins   []string
	HistoryLimit  int
}

// Server is the HTTP server for the analysis form and JSON API.
type Server struct {
	analyzer Analyzer
	history  HistoryStore
	pages    map[string]*template.Template
	mux      *http.ServeMux
	limiter  *rate.Limiter
	cors     *cors.Cors
	opts     Options
}

// New creates a new Server.
func New(analyzer Analyzer, history HistoryStore, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":      renderMarkdown,
		"formatStamp":   database.FormatAnalyzedAt,
		"credibleLabel": func(label string) bool { return label == "credible" },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "history.html", "about.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 3
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}

	s := &Server{
		analyzer: analyzer,
		history:  history,
		pages:    pages,
		mux:      http.NewServeMux(),
		limiter:  rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RateBurst),
		cors: cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Origin", "Content-Length", "Content-Type"},
		}),
		opts: opts,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return requestLogger(s.mux)
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.Handle("POST /analyze", s.rateLimited(http.HandlerFunc(s.handleAnalyze), false))
	s.mux.Handle("/api/analyze", s.cors.Handler(s.rateLimited(http.HandlerFunc(s.handleAPIAnalyze), true)))
	s.mux.HandleFunc("GET /api/analyses/{id}", s.handleAPIAnalysis)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /about", s.handleAbout)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

type indexPage struct {
	Request analyze.Request
	Result  *analyze.Result
	Warning string
	Error   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", indexPage{})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req := analyze.Request{
		Text: r.FormValue("text"),
		URL:  r.FormValue("url"),
	}

	res, err := s.analyzer.Analyze(r.Context(), req)
	switch {
	case errors.Is(err, analyze.ErrEmptySubmission):
		s.render(w, http.StatusOK, "index.html", indexPage{Request: req, Warning: analyze.EmptySubmissionMessage})
	case err != nil:
		logrus.WithError(err).Error("Analysis failed")
		s.render(w, http.StatusInternalServerError, "index.html", indexPage{
			Request: req,
			Error:   "The article could not be analyzed. Please try again.",
		})
	default:
		s.render(w, http.StatusOK, "index.html", indexPage{Request: req, Result: res})
	}
}

type historyPage struct {
	Enabled  bool
	Analyses []database.Analysis
	Stats    *database.Stats
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.render(w, http.StatusOK, "history.html", historyPage{})
		return
	}

	analyses, err := s.history.GetRecentAnalyses(s.opts.HistoryLimit)
	if err != nil {
		logrus.WithError(err).Error("Loading history failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.history.GetStats()
	if err != nil {
		logrus.WithError(err).Error("Loading stats failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, http.StatusOK, "history.html", historyPage{Enabled: true, Analyses: analyses, Stats: stats})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "about.html", map[string]any{
		"Body": aboutMarkdown,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logrus.Errorf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		logrus.WithError(err).Errorf("Error rendering template %s", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, srv *Server, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Server listening on http://%s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logrus.Info("Shutting down server")
		return httpSrv.Shutdown(shutdownCtx)
	}
}
