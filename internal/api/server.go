// Package api serves the converter over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/karthiktools/convert2postman/internal/assertion"
	"github.com/karthiktools/convert2postman/internal/convert"
	"github.com/karthiktools/convert2postman/internal/postman"
	"github.com/karthiktools/convert2postman/internal/report"
	"github.com/karthiktools/convert2postman/internal/rules"
	"github.com/karthiktools/convert2postman/internal/script"
	"github.com/karthiktools/convert2postman/internal/soapui"
	"github.com/karthiktools/convert2postman/internal/transfer"
)

// MaxBodyBytes bounds request bodies; SoapUI projects can be large.
const MaxBodyBytes = 32 << 20

// Server routes conversion requests to a Converter.
type Server struct {
	conv   *convert.Converter
	logger *slog.Logger
	router chi.Router
}

// New returns a Server using conv. A nil logger discards output.
func New(conv *convert.Converter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{conv: conv, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLog)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rules", s.handleRules)
		r.Post("/convert/script", s.handleScript)
		r.Post("/convert/assertion", s.handleAssertion)
		r.Post("/convert/transfer", s.handleTransfer)
		r.Post("/convert/project", s.handleProject)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler so Server can be used directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting conversion service", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down conversion service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    http.StatusText(status),
			"code":    status,
		},
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		Error(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// ScriptResponse is the body returned for single conversions.
type ScriptResponse struct {
	script.Result
	Text string `json:"text"`
}

func respond(w http.ResponseWriter, res script.Result) {
	JSON(w, http.StatusOK, ScriptResponse{Result: res, Text: res.Text()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// RuleInfo describes one catalog rule.
type RuleInfo struct {
	Stage    string `json:"stage"`
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Template string `json:"template"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	cat := s.conv.Rewriter().Catalog()
	out := make([]RuleInfo, 0, cat.Len())
	for _, stage := range rules.Stages {
		for _, rule := range cat.Rules(stage) {
			info := RuleInfo{Stage: stage.String(), Name: rule.Name, Pattern: rule.Pattern, Template: rule.Template}
			if err := rule.Err(); err != nil {
				info.Error = err.Error()
			}
			out = append(out, info)
		}
	}
	JSON(w, http.StatusOK, out)
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	var f script.Fragment
	if !decode(w, r, &f) {
		return
	}
	respond(w, s.conv.Rewriter().Convert(f))
}

func (s *Server) handleAssertion(w http.ResponseWriter, r *http.Request) {
	var rec assertion.Record
	if !decode(w, r, &rec) {
		return
	}
	respond(w, s.conv.Assertions().Convert(rec))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var rec transfer.Record
	if !decode(w, r, &rec) {
		return
	}
	respond(w, s.conv.Transfers().Convert(rec))
}

// ProjectResponse is the body returned for project conversions.
type ProjectResponse struct {
	Collection  *postman.Collection  `json:"collection"`
	Environment *postman.Environment `json:"environment"`
	Report      *report.Report       `json:"report"`
}

// handleProject converts a SoapUI project posted as the raw XML body.
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("reading body: %v", err))
		return
	}
	p, err := soapui.Parse(data)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.conv.ConvertProject(r.Context(), p)
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	out.Report.Source = "request"
	JSON(w, http.StatusOK, ProjectResponse{Collection: out.Collection, Environment: out.Environment, Report: out.Report})
}
