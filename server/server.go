// Package server exposes the query facade over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
)

// Querier is the facade surface the server depends on.
type Querier interface {
	Query(ctx context.Context, userID int64, text string) (contractx.QueryResponse, error)
}

// Condenser rewrites an answer for the voice channel. Optional.
type Condenser interface {
	Condense(ctx context.Context, text string) string
}

type Config struct {
	Addr         string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"120s"`
}

type Server struct {
	httpServer *http.Server
	handler    http.Handler
	querier    Querier
	condenser  Condenser
}

func New(cfg Config, querier Querier, condenser Condenser) *Server {
	s := &Server{querier: querier, condenser: condenser}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/query", s.handleQuery)
	mux.HandleFunc("POST /v1/voice/query", s.handleVoiceQuery)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.handler = requestLog(mux)
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type queryRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

type voiceQueryRequest struct {
	UserID     int64  `json:"user_id"`
	Transcript string `json:"transcript"`
}

type voiceQueryResponse struct {
	contractx.QueryResponse
	SpokenResponse string `json:"spoken_response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.querier.Query(r.Context(), req.UserID, req.Text)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVoiceQuery accepts transcribed speech and runs it through the exact
// same facade as the text route; only the response shape differs.
func (s *Server) handleVoiceQuery(w http.ResponseWriter, r *http.Request) {
	var req voiceQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.querier.Query(r.Context(), req.UserID, req.Transcript)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	spoken := resp.Response
	if s.condenser != nil {
		spoken = s.condenser.Condense(r.Context(), resp.Response)
	}
	writeJSON(w, http.StatusOK, voiceQueryResponse{QueryResponse: resp, SpokenResponse: spoken})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contractx.ErrValidation), errors.Is(err, contractx.ErrContextNotSet):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contractx.ErrModelInvoke):
		writeError(w, http.StatusBadGateway, "language model unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Str("duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds())).
			Msg("http request")
	})
}
