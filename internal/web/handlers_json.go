package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultPositionLimit = 50

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

type statusResponse struct {
	Status        string     `json:"status"`
	Uptime        string     `json:"uptime"`
	Markets       []string   `json:"markets"`
	OpenPositions int        `json:"open_positions"`
	TotalValue    string     `json:"total_value"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:        "ok",
		Uptime:        time.Since(s.startedAt).Round(time.Second).String(),
		Markets:       s.markets,
		OpenPositions: s.ledger.OpenCount(),
		TotalValue:    s.wallet.TotalValue().StringFixed(2),
	}
	if wait := s.ledger.WaitUntil(); wait > 0 && !s.ledger.CanOpen(time.Now().UnixMilli()) {
		until := time.UnixMilli(wait).UTC()
		resp.CooldownUntil = &until
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleOpenPositions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.ledger.OpenPositions())
}

func (s *Server) handleClosedPositions(w http.ResponseWriter, r *http.Request) {
	limit := defaultPositionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	positions, err := s.positionRepo.ListPositions(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list positions", zap.Error(err))
		http.Error(w, "Failed to list positions", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, positions)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.wallet.Snapshot())
}
