package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apierrors "deskbridge/internal/errors"
	"deskbridge/internal/plugin"
	"deskbridge/internal/telemetry"
)

const maxBodyBytes = 1 << 20

// Middleware wraps the router, e.g. request metrics.
type Middleware func(http.Handler) http.Handler

// Server exposes the plugin to the host platform over HTTP.
type Server struct {
	plugin     plugin.Plugin
	addr       string
	logger     *slog.Logger
	middleware []Middleware
}

// NewServer creates a new web server
func NewServer(p plugin.Plugin, addr string, logger *slog.Logger, middleware ...Middleware) *Server {
	if addr == "" {
		addr = ":8080"
	}
	return &Server{
		plugin:     p,
		addr:       addr,
		logger:     telemetry.Component(logger, "web"),
		middleware: middleware,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/post-process", s.handlePostProcess)
	mux.HandleFunc("GET /api/groups/{project}/{group}/autocomplete", s.handleAutocomplete)
	mux.HandleFunc("POST /api/groups/{project}/{group}/link", s.handleLink)
	mux.HandleFunc("POST /api/groups/{project}/{group}/unlink", s.handleUnlink)
	mux.HandleFunc("POST /api/groups/{project}/{group}/create", s.handleCreate)
	mux.HandleFunc("GET /api/groups/{project}/{group}/issue-url", s.handleIssueURL)
	mux.HandleFunc("GET /api/groups/{project}/{group}/link-fields", s.handleLinkFields)
	mux.HandleFunc("GET /api/projects/{project}/config-fields", s.handleConfigFields)

	var h http.Handler = mux
	for i := len(s.middleware) - 1; i >= 0; i-- {
		h = s.middleware[i](h)
	}
	return h
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}

type postProcessRequest struct {
	Project  string       `json:"project"`
	Group    plugin.Group `json:"group"`
	Event    plugin.Event `json:"event"`
	IsNew    bool         `json:"is_new"`
	IsSample bool         `json:"is_sample"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePostProcess(w http.ResponseWriter, r *http.Request) {
	var req postProcessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Group.ID == "" {
		s.writeError(w, badRequest("group.id is required"))
		return
	}
	if req.Group.ProjectID == "" {
		req.Group.ProjectID = req.Project
	}

	if err := s.plugin.PostProcess(r.Context(), req.Group, req.Event, req.IsNew, req.IsSample); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("autocomplete_query")
	field := r.URL.Query().Get("autocomplete_field")
	if field == "" {
		field = "issue_id"
	}

	result, err := s.plugin.SearchTickets(r.Context(), groupFromPath(r), query, field)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var form plugin.LinkForm
	if err := decodeJSON(w, r, &form); err != nil {
		s.writeError(w, err)
		return
	}
	if form.IssueID == "" {
		s.writeError(w, badRequest("issue_id is required"))
		return
	}

	result, err := s.plugin.LinkExisting(r.Context(), groupFromPath(r), form)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	if err := s.plugin.Unlink(r.Context(), groupFromPath(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var form plugin.LinkForm
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &form); err != nil {
			s.writeError(w, err)
			return
		}
	}
	result, err := s.plugin.CreateAndLink(r.Context(), groupFromPath(r), form)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIssueURL(w http.ResponseWriter, r *http.Request) {
	ticketID := r.URL.Query().Get("ticket_id")
	if ticketID == "" {
		s.writeError(w, badRequest("ticket_id is required"))
		return
	}
	url, err := s.plugin.IssueURL(groupFromPath(r), ticketID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"url":   url,
		"label": s.plugin.IssueLabel(ticketID),
	})
}

func (s *Server) handleLinkFields(w http.ResponseWriter, r *http.Request) {
	group := groupFromPath(r)
	group.URL = r.URL.Query().Get("group_url")
	s.writeJSON(w, http.StatusOK, s.plugin.LinkExistingFields(group))
}

func (s *Server) handleConfigFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.plugin.ConfigFields(r.PathValue("project"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fields)
}

func groupFromPath(r *http.Request) plugin.Group {
	return plugin.Group{
		ID:        r.PathValue("group"),
		ProjectID: r.PathValue("project"),
	}
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// writeError maps plugin and helpdesk errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var badReq *badRequestError
	switch {
	case errors.As(err, &badReq):
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, plugin.ErrNotConfigured):
		s.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, plugin.ErrNotImplemented):
		s.writeJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
	default:
		if apiErr, ok := apierrors.AsAPIError(err); ok {
			s.logger.Warn("helpdesk error", "status", apiErr.StatusCode, "error", err)
			s.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":           err.Error(),
				"upstream_status": apiErr.StatusCode,
				"upstream_body":   apiErr.Body,
			})
			return
		}
		s.logger.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// writeJSON encodes v before touching the response, so an encoding failure
// still yields a well-formed 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}
