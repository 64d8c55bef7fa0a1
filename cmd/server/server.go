package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/printledger/internal/store"
)

const maxBodyBytes = 1 << 20

type server struct {
	store  *store.Store
	logger *zap.Logger
}

func newServer(st *store.Store, logger *zap.Logger) *server {
	return &server{store: st, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsPut)

		r.Get("/filaments", s.handleFilamentsList)
		r.Post("/filaments", s.handleFilamentsCreate)
		r.Put("/filaments/{id}", s.handleFilamentsUpdate)
		r.Delete("/filaments/{id}", s.handleFilamentsDelete)

		r.Get("/items", s.handleItemsList)
		r.Post("/items", s.handleItemsCreate)
		r.Post("/items/quote", s.handleItemsQuote)
		r.Delete("/items/{id}", s.handleItemsDelete)

		r.Get("/orders", s.handleOrdersList)
		r.Get("/orders/export", s.handleOrdersExport)
		r.Post("/orders", s.handleOrdersCreate)
		r.Put("/orders/{id}", s.handleOrdersUpdate)
		r.Delete("/orders/{id}", s.handleOrdersDelete)

		r.Get("/summary", s.handleSummary)

		r.Get("/notes", s.handleNotesList)
		r.Post("/notes", s.handleNotesCreate)
		r.Put("/notes/{id}", s.handleNotesUpdate)
		r.Delete("/notes/{id}", s.handleNotesDelete)
	})

	return r
}

// requestLogger tags every request with an id and writes one access log line.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// internalError logs the cause and answers with a generic 500.
func (s *server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	writeError(w, http.StatusInternalServerError, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decode(json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)), v)
}

// decodeStrictJSON rejects fields that v does not declare.
func decodeStrictJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return decode(dec, v)
}

func decode(dec *json.Decoder, v any) error {
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
