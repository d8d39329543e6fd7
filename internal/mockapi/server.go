// Package mockapi serves a local resources API backed by a repository. It
// speaks the same routes the apiclient adapter calls and is meant for
// development and tests.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ids"
	"github.com/aalvaropc/tether/internal/ports"
)

const defaultRequestLimit = 100

type Server struct {
	repo   ports.Repository[domain.Resource]
	log    zerolog.Logger
	apiKey string
	limit  int
	window time.Duration
}

type Option func(*Server)

// WithAPIKey requires "Authorization: Bearer <key>" on every resource route.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithRateLimit caps requests per client IP in window. A limit <= 0 disables it.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.limit = limit
		s.window = window
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

func New(repo ports.Repository[domain.Resource], opts ...Option) *Server {
	s := &Server{
		repo:   repo,
		log:    zerolog.Nop(),
		limit:  defaultRequestLimit,
		window: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router. Resource routes are served both at the root
// and under /api/v1.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	resources := func(r chi.Router) {
		if s.limit > 0 {
			r.Use(rateLimit(s.limit, s.window))
		}
		r.Use(s.auth)
		r.Post("/resources", s.create)
		r.Get("/resources", s.list)
		r.Get("/resources/{id}", s.get)
		r.Put("/resources/{id}", s.update)
		r.Delete("/resources/{id}", s.delete)
	}
	r.Group(resources)
	r.Route("/api/v1", resources)
	return r
}

// Serve runs the server on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("mockapi.listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		}),
	)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("mockapi.request")
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in domain.Resource
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Data.Name) == "" {
		writeError(w, http.StatusBadRequest, "Resource name cannot be empty")
		return
	}
	if in.ID == "" {
		in.ID = ids.ForType(in.Data.Type.String())
	}
	if _, ok, err := s.repo.FindByID(r.Context(), in.ID); err != nil {
		s.storeError(w, err)
		return
	} else if ok {
		writeError(w, http.StatusConflict, "Resource already exists: "+in.ID)
		return
	}

	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	out, err := s.repo.Save(r.Context(), in)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, ok, err := s.repo.FindByID(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Resource not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in domain.Resource
	if !decode(w, r, &in) {
		return
	}
	if in.ID != id {
		writeError(w, http.StatusBadRequest, "Resource ID mismatch")
		return
	}

	prev, ok, err := s.repo.FindByID(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Resource not found: "+id)
		return
	}
	in.CreatedAt = prev.CreatedAt
	in.UpdatedAt = time.Now().UTC()

	out, err := s.repo.Save(r.Context(), in)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	filter := r.URL.Query().Get("filter")

	all, err := s.repo.FindAll(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	out := make([]domain.Resource, 0, len(all))
	for _, res := range all {
		if filter != "" && !strings.Contains(res.Data.Name, filter) {
			continue
		}
		out = append(out, res)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("mockapi.store_failed")
	switch domain.KindOf(err) {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.KindAlreadyExists:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
