package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BattleLedger/internal/ingestion"
	"BattleLedger/internal/observability"
	"BattleLedger/internal/persistence"
	"BattleLedger/internal/projection"
	"BattleLedger/internal/query"
)

// HTTPServer serves the query API, admin inject API, health endpoints and
// Prometheus metrics on a single listener.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
	deps       *ServerDeps
}

// ServerDeps holds all dependencies needed by the HTTP handlers.
type ServerDeps struct {
	DB            *sql.DB
	QueryService  *query.QueryService
	IngestService *ingestion.AdminIngestService
	SnapshotMgr   *persistence.SnapshotManager
	TradeHistory  *projection.TradeHistoryProjection
	StartTime     time.Time
	HealthChecker *observability.HealthChecker
	Metrics       *observability.Metrics
}

// NewHTTPServer creates the server with all routes registered.
func NewHTTPServer(addr string, deps *ServerDeps) *HTTPServer {
	s := &HTTPServer{addr: addr, deps: deps}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	if deps.HealthChecker != nil {
		r.Get("/healthz", deps.HealthChecker.LivenessHandler)
		r.Get("/readyz", deps.HealthChecker.ReadinessHandler)
	} else {
		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status":"ok"}`)
		})
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/rooms/{roomID}", func(rr chi.Router) {
			rr.Get("/", s.handleGetRoom)
			rr.Get("/leaderboard", s.handleGetLeaderboard)
			rr.Get("/trades", s.handleGetTrades)
			rr.Get("/trades/recent", s.handleGetRecentTrades)
			rr.Get("/claims", s.handleGetClaims)
		})
		v1.Get("/traders/{traderID}/trades", s.handleGetTraderTrades)
		v1.Get("/tokens/{symbol}", s.handleGetAccount)

		v1.Route("/admin", func(ar chi.Router) {
			ar.Get("/integrity", s.handleVerifyIntegrity)
			ar.Get("/status", s.handleStatus)
			ar.Post("/rooms", s.handleInjectCreateRoom)
			ar.Post("/rooms/{roomID}/start", s.handleInjectStartBattle)
			ar.Post("/rooms/{roomID}/close", s.handleInjectCloseBattle)
			ar.Post("/rooms/{roomID}/winner", s.handleInjectSetWinner)
			ar.Post("/tokens/{symbol}/freeze", s.handleInjectFreeze)
			ar.Post("/tokens/{symbol}/unfreeze", s.handleInjectUnfreeze)
		})
	})

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Start runs the server until ctx is cancelled (blocking).
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		log.Println("INFO: HTTP server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("INFO: HTTP server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ============================================================================
// Query handlers
// ============================================================================

func (s *HTTPServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	room, err := s.deps.QueryService.GetRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("get room: %v", err))
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("room %s not found", roomID))
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	standings, err := s.deps.QueryService.GetLeaderboard(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("get leaderboard: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id":   roomID,
		"standings": standings,
	})
}

func (s *HTTPServer) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	limit := parseLimit(r, 100)

	var tokenSymbol *string
	if sym := r.URL.Query().Get("token_symbol"); sym != "" {
		tokenSymbol = &sym
	}
	afterSequence, err := parseAfterSequence(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := s.deps.QueryService.GetTrades(r.Context(), roomID, tokenSymbol, limit, afterSequence)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("get trades: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id": roomID,
		"trades":  trades,
	})
}

// handleGetRecentTrades serves the last trades of a room straight from the
// in-memory window, skipping Postgres. Suited for live tickers; use
// /trades for the durable, paginated history.
func (s *HTTPServer) handleGetRecentTrades(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	limit := parseLimit(r, 50)

	if s.deps.TradeHistory == nil {
		writeError(w, http.StatusServiceUnavailable, "recent trade window not available")
		return
	}

	entries := s.deps.TradeHistory.QueryByRoom(roomID, limit)
	trades := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		trades = append(trades, map[string]interface{}{
			"room_id":      e.RoomID,
			"token_symbol": e.TokenSymbol,
			"trader":       e.Trader.String(),
			"amount":       e.Amount,
			"fee":          e.Fee,
			"trade_type":   e.TradeType,
			"sequence":     e.Sequence,
			"timestamp_us": e.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id": roomID,
		"trades":  trades,
	})
}

func (s *HTTPServer) handleGetClaims(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	limit := parseLimit(r, 100)

	claims, err := s.deps.QueryService.GetClaims(r.Context(), roomID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("get claims: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id": roomID,
		"claims":  claims,
	})
}

func (s *HTTPServer) handleGetTraderTrades(w http.ResponseWriter, r *http.Request) {
	trader, err := uuid.Parse(chi.URLParam(r, "traderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid trader id: %v", err))
		return
	}
	limit := parseLimit(r, 100)
	afterSequence, err := parseAfterSequence(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := s.deps.QueryService.GetTraderTrades(r.Context(), trader, limit, afterSequence)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("get trades: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trader": trader.String(),
		"trades": trades,
	})
}

func (s *HTTPServer) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	acct, err := s.deps.QueryService.GetAccount(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("get account: %v", err))
		return
	}
	if acct == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("token %s not found", symbol))
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// ============================================================================
// Admin handlers
// ============================================================================

func (s *HTTPServer) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.QueryService.VerifyIntegrity(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("verify integrity: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	latestSeq, err := s.deps.SnapshotMgr.GetLatestSequence(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("latest sequence: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"latest_sequence": latestSeq,
		"uptime_seconds":  int64(time.Since(s.deps.StartTime).Seconds()),
	})
}

type createRoomRequest struct {
	RoomID          string `json:"room_id"`
	Admin           string `json:"admin"`
	MaxParticipants uint8  `json:"max_participants"`
	DurationSeconds int64  `json:"duration_seconds"`
}

func (s *HTTPServer) handleInjectCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode body: %v", err))
		return
	}
	admin, err := uuid.Parse(req.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid admin: %v", err))
		return
	}

	if err := s.deps.IngestService.InjectCreateRoom(r.Context(), req.RoomID, admin, req.MaxParticipants, req.DurationSeconds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "room_id": req.RoomID})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *HTTPServer) handleInjectStartBattle(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	caller, ok := decodeCaller(w, r)
	if !ok {
		return
	}
	if err := s.deps.IngestService.InjectStartBattle(r.Context(), roomID, caller); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "room_id": roomID})
}

func (s *HTTPServer) handleInjectCloseBattle(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	caller, ok := decodeCaller(w, r)
	if !ok {
		return
	}
	if err := s.deps.IngestService.InjectCloseBattle(r.Context(), roomID, caller); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "room_id": roomID})
}

type setWinnerRequest struct {
	Caller      string `json:"caller"`
	TokenSymbol string `json:"token_symbol"`
}

func (s *HTTPServer) handleInjectSetWinner(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	var req setWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode body: %v", err))
		return
	}
	caller, err := uuid.Parse(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid caller: %v", err))
		return
	}
	if err := s.deps.IngestService.InjectSetWinner(r.Context(), roomID, req.TokenSymbol, caller); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "room_id": roomID})
}

func (s *HTTPServer) handleInjectFreeze(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	caller, ok := decodeCaller(w, r)
	if !ok {
		return
	}
	if err := s.deps.IngestService.InjectFreeze(r.Context(), symbol, caller); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "symbol": symbol})
}

func (s *HTTPServer) handleInjectUnfreeze(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	caller, ok := decodeCaller(w, r)
	if !ok {
		return
	}
	if err := s.deps.IngestService.InjectUnfreeze(r.Context(), symbol, caller); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "symbol": symbol})
}

// ============================================================================
// helpers
// ============================================================================

func decodeCaller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode body: %v", err))
		return uuid.Nil, false
	}
	caller, err := uuid.Parse(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid caller: %v", err))
		return uuid.Nil, false
	}
	return caller, true
}

func parseLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 1000 {
		return def
	}
	return n
}

func parseAfterSequence(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("after_sequence")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid after_sequence: %v", err)
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARN: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
