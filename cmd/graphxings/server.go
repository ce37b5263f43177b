package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"graphxings/internal/board"
	"graphxings/internal/config"
	"graphxings/internal/engine"
	"graphxings/internal/score"
	"graphxings/internal/strategy"
)

type roundRequest struct {
	Graph     board.GraphFile `json:"graph"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Role      string          `json:"role"`
	Objective string          `json:"objective"`
}

type roundResponse struct {
	RoundID string `json:"round_id"`
	Role    string `json:"role"`
}

type moveRequest struct {
	Last *board.Move `json:"last,omitempty"`
}

type moveResponse struct {
	Move      board.Move `json:"move"`
	RoundID   string     `json:"round_id"`
	ElapsedMs int64      `json:"elapsed_ms"`
	Timeout   bool       `json:"timeout"`
}

type observeRequest struct {
	Move board.Move `json:"move"`
}

type scoreRequest struct {
	Graph      board.GraphFile `json:"graph"`
	Placements []board.Move    `json:"placements"`
}

// server owns one agent; the engine drives a single round at a time so
// every handler that touches it holds mu
type server struct {
	mu    sync.Mutex
	agent *engine.Agent
}

func newServer(cfg config.Config) (*server, error) {
	agent, err := engine.NewAgent("http", cfg)
	if err != nil {
		return nil, err
	}
	return &server{agent: agent}, nil
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/round", s.handleRound)
	r.Post("/move", s.handleMove)
	r.Post("/observe", s.handleObserve)
	r.Post("/finish", s.handleFinish)
	r.Post("/score", s.handleScore)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response not written")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// GET /health
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{"status": "idle"}
	if round := s.agent.Round(); round != nil {
		resp["status"] = "playing"
		resp["round_id"] = round.ID().String()
		resp["placed"] = round.Board().PlacedCount()
		resp["elapsed_ms"] = round.Tracker().Elapsed().Milliseconds()
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// POST /round starts a fresh round, discarding any round in progress
func (s *server) handleRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	g, err := req.Graph.ToGraph()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	role, err := strategy.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	objective, err := strategy.ParseObjective(req.Objective)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.agent.InitializeRound(g, req.Width, req.Height, role, objective); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse{
		RoundID: s.agent.Round().ID().String(),
		Role:    role.String(),
	})
}

// POST /move applies the opponent's last move and answers with ours
func (s *server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.agent.DecideMove(r.Context(), req.Last)
	switch {
	case errors.Is(err, engine.ErrNoRound):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, board.ErrIllegalMove):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case errors.Is(err, engine.ErrNoMove):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil && !errors.Is(err, engine.ErrTimeoutExceeded):
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	round := s.agent.Round()
	writeJSON(w, http.StatusOK, moveResponse{
		Move:      m,
		RoundID:   round.ID().String(),
		ElapsedMs: round.Tracker().Elapsed().Milliseconds(),
		Timeout:   errors.Is(err, engine.ErrTimeoutExceeded),
	})
}

// POST /observe applies an opponent move without answering, typically the
// last move of a round
func (s *server) handleObserve(w http.ResponseWriter, r *http.Request) {
	var req observeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.agent.Observe(req.Move)
	switch {
	case errors.Is(err, engine.ErrNoRound):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, board.ErrIllegalMove):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	round := s.agent.Round()
	writeJSON(w, http.StatusOK, map[string]any{
		"round_id": round.ID().String(),
		"placed":   round.Board().PlacedCount(),
	})
}

// POST /finish ends the round and returns the exact score of its drawing
func (s *server) handleFinish(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.agent.FinishRound()
	switch {
	case errors.Is(err, engine.ErrNoRound):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, score.ErrIncompleteDrawing):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /score evaluates a complete drawing exactly
func (s *server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	g, err := req.Graph.ToGraph()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	placements := make(map[board.VertexID]board.Coordinate, len(req.Placements))
	for _, m := range req.Placements {
		placements[m.Vertex] = m.Coordinate
	}
	res, err := score.Evaluate(g, placements)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func serve(addr string, cfg config.Config) error {
	s, err := newServer(cfg)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Info().Str("addr", addr).Msg("engine listening")
	select {
	case <-sigCtx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-serverErrCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
