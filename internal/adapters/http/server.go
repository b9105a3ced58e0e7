package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/statetree/internal/logging"
	"github.com/aretw0/statetree/pkg/catalog"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// maxBodyBytes caps dispatch payloads.
const maxBodyBytes = 4 << 20

// Backend is what the server needs from the engine.
type Backend interface {
	Areas() []catalog.Area
	Sessions(area string) (*session.Manager, error)
}

// Server exposes sessions of every area over HTTP.
type Server struct {
	Backend Backend
	Streams *StreamManager

	version string
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the backend.
func NewHandler(backend Backend, opts ...Option) http.Handler {
	s := &Server{
		Backend: backend,
		Streams: NewStreamManager(),
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	specRouter, err := newSpecRouter()
	if err != nil {
		// The document is embedded at build time; a broken one is a bug.
		panic(err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.validateRequests(specRouter))

	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/swagger", s.GetSwagger)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/areas", func(r chi.Router) {
		r.Get("/", s.ListAreas)
		r.Route("/{area}/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Post("/", s.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Post("/reset", s.ResetSession)
				r.Post("/actions", s.Dispatch)
				r.Get("/slots/{key}", s.GetSlot)
				r.Get("/events", s.SubscribeEvents)
			})
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe runs h on addr until ctx is cancelled, then drains
// in-flight requests.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "statetree-http",
		"version": strings.TrimSpace(s.version),
	})
}

type areaInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Slots       []string `json:"slots"`
	Flags       []string `json:"flags"`
}

// ListAreas handles the GET /areas request.
func (s *Server) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas := s.Backend.Areas()
	resp := make([]areaInfo, 0, len(areas))
	for _, a := range areas {
		tree := a.Schema.NewTree()
		resp = append(resp, areaInfo{
			Name:        a.Name,
			Description: a.Description,
			Slots:       tree.SlotKeys(),
			Flags:       tree.FlagKeys(),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListSessions handles the GET /areas/{area}/sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(w, r)
	if !ok {
		return
	}
	ids, err := m.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

type createRequest struct {
	ID string `json:"id"`
}

type sessionResponse struct {
	ID   string      `json:"id"`
	Tree domain.Tree `json:"tree"`
}

// CreateSession handles the POST /areas/{area}/sessions request.
// The body is optional; without an id a random one is generated.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(w, r)
	if !ok {
		return
	}

	var body createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			s.logger.Warn("CreateSession: Invalid request body", "error", err)
			s.writeStatus(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}

	tree, created, err := m.LoadOrInit(r.Context(), body.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, sessionResponse{ID: body.ID, Tree: tree})
}

// GetSession handles the GET /areas/{area}/sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	tree, err := m.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{ID: id, Tree: tree})
}

// DeleteSession handles the DELETE /areas/{area}/sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(w, r)
	if !ok {
		return
	}
	if err := m.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetSession handles the POST /areas/{area}/sessions/{id}/reset request.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	tree, err := m.Reset(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Broadcast(streamKey(chi.URLParam(r, "area"), id), mustJSON(domain.TreeDiff{
		Revision: tree.Revision(),
		Slots:    snapshotSlots(tree),
		Flags:    snapshotFlags(tree),
	}))
	s.writeJSON(w, http.StatusOK, sessionResponse{ID: id, Tree: tree})
}

// GetSlot handles the GET /areas/{area}/sessions/{id}/slots/{key} request.
func (s *Server) GetSlot(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(w, r)
	if !ok {
		return
	}
	tree, err := m.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	key := chi.URLParam(r, "key")
	slot, found := tree.Slot(key)
	if !found {
		s.writeStatus(w, http.StatusNotFound, fmt.Sprintf("slot %q not found", key))
		return
	}
	s.writeJSON(w, http.StatusOK, slot)
}

// dispatchRequest is either a single action or a batch.
type dispatchRequest struct {
	Kind    string          `json:"kind"`
	Payload any             `json:"payload"`
	Actions []domain.Action `json:"actions"`
}

func (d dispatchRequest) actions() []domain.Action {
	if len(d.Actions) > 0 {
		return d.Actions
	}
	if d.Kind == "" {
		return nil
	}
	return []domain.Action{{Kind: d.Kind, Payload: d.Payload}}
}

type dispatchResponse struct {
	Tree domain.Tree      `json:"tree"`
	Diff *domain.TreeDiff `json:"diff"`
}

// Dispatch handles the POST /areas/{area}/sessions/{id}/actions request.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(w, r)
	if !ok {
		return
	}

	var body dispatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.logger.Warn("Dispatch: Invalid request body", "error", err)
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actions := body.actions()
	if len(actions) == 0 {
		s.writeStatus(w, http.StatusBadRequest, "no action given")
		return
	}

	id := chi.URLParam(r, "id")
	res, err := m.Dispatch(r.Context(), id, actions...)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if res.Diff != nil {
		s.logger.Debug("Dispatch: Diff calculated", "session_id", id, "revision", res.Diff.Revision)
		s.Streams.Broadcast(streamKey(chi.URLParam(r, "area"), id), mustJSON(res.Diff))
	}
	s.writeJSON(w, http.StatusOK, dispatchResponse{Tree: res.Tree, Diff: res.Diff})
}

// SubscribeEvents handles the GET /areas/{area}/sessions/{id}/events
// request (SSE). The optional watch parameter lists the slot or flag keys
// a client cares about; diffs touching none of them are skipped.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.manager(w, r); !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeStatus(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	watch, err := watchParam(r)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	key := streamKey(chi.URLParam(r, "area"), id)
	s.logger.Info("SSE: Subscribing to session updates", "session_id", id, "watch", watch)

	ch, cancel := s.Streams.Subscribe(key)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !touches(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watchParam binds the comma separated watch query parameter.
func watchParam(r *http.Request) ([]string, error) {
	var raw []string
	if err := runtime.BindQueryParameter("form", false, false, "watch", r.URL.Query(), &raw); err != nil {
		return nil, err
	}
	var watch []string
	for _, field := range raw {
		if field = strings.TrimSpace(field); field != "" {
			watch = append(watch, field)
		}
	}
	return watch, nil
}

func touches(msg string, watch []string) bool {
	var diff domain.TreeDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		if _, ok := diff.Slots[field]; ok {
			return true
		}
		if _, ok := diff.Flags[field]; ok {
			return true
		}
	}
	return false
}

func (s *Server) manager(w http.ResponseWriter, r *http.Request) (*session.Manager, bool) {
	m, err := s.Backend.Sessions(chi.URLParam(r, "area"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return m, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrAreaNotFound), errors.Is(err, domain.ErrSessionNotFound):
		s.writeStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmptySessionID):
		s.writeStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeStatus(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("Request failed", "error", err)
		s.writeStatus(w, http.StatusInternalServerError, "internal error")
	}
}

func streamKey(area, id string) string {
	return area + ":" + id
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func snapshotSlots(t domain.Tree) map[string]domain.Slot {
	out := make(map[string]domain.Slot, len(t.SlotKeys()))
	for _, k := range t.SlotKeys() {
		s, _ := t.Slot(k)
		out[k] = s
	}
	return out
}

func snapshotFlags(t domain.Tree) map[string]any {
	out := make(map[string]any, len(t.FlagKeys()))
	for _, k := range t.FlagKeys() {
		v, _ := t.Flag(k)
		out[k] = v
	}
	return out
}
