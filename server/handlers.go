package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/xraph/debate"
	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/types"
)

// Reasons the payment collaborator may credit with.
var creditReasons = map[credit.Reason]bool{
	credit.ReasonPurchase:   true,
	credit.ReasonBonus:      true,
	credit.ReasonRefund:     true,
	credit.ReasonAdjustment: true,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, debate.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case debate.IsValidation(err):
		return http.StatusBadRequest
	case debate.IsNotFound(err):
		return http.StatusNotFound
	case debate.IsPermission(err):
		return http.StatusForbidden
	case debate.IsDuplicate(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleUp(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type balanceResponse struct {
	ParticipantID string        `json:"participantId"`
	Balance       types.Credits `json:"balance"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	pid := mux.Vars(r)["participantID"]
	balance, err := s.engine.Balance(r.Context(), pid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{ParticipantID: pid, Balance: balance})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	pid := mux.Vars(r)["participantID"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.engine.History(r.Context(), pid, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"participantId": pid,
		"entries":       entries,
	})
}

func (s *Server) authorizedCredit(r *http.Request) bool {
	if s.creditSecret == "" {
		return true
	}
	got := r.Header.Get(creditSecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.creditSecret)) == 1
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCredit(r) {
		writeError(w, http.StatusUnauthorized, "invalid credit secret")
		return
	}
	pid := mux.Vars(r)["participantID"]

	var req struct {
		Amount types.Credits `json:"amount"`
		Reason credit.Reason `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reason == "" {
		req.Reason = credit.ReasonPurchase
	}
	if !creditReasons[req.Reason] {
		writeError(w, http.StatusBadRequest, "unsupported reason "+string(req.Reason))
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	entry, err := s.engine.Credit(r.Context(), pid, req.Amount, req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	balance, err := s.engine.Balance(r.Context(), pid)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	delivered := s.hub.Notify(pid, balance, fmt.Sprintf("%s added to your balance", req.Amount))
	s.logger.Info("credits added",
		"participant_id", pid,
		"amount", int64(req.Amount),
		"reason", string(req.Reason),
		"balance", int64(balance),
		"notified", delivered,
	)

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":   entry,
		"balance": balance,
	})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sessionID"]

	var req struct {
		ParticipantID string              `json:"participantId"`
		Feature       entitlement.Feature `json:"feature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ParticipantID = strings.TrimSpace(req.ParticipantID)
	req.Feature = entitlement.Feature(strings.ToUpper(strings.TrimSpace(string(req.Feature))))

	res, err := s.engine.Purchase(r.Context(), req.ParticipantID, sid, req.Feature)
	if err != nil {
		if ib, ok := debate.AsInsufficientBalance(err); ok {
			writeJSON(w, http.StatusPaymentRequired, map[string]any{
				"error":    "insufficient balance",
				"feature":  ib.Feature,
				"required": ib.Required,
				"current":  ib.Current,
			})
			return
		}
		s.fail(w, r, err)
		return
	}

	if res.Charged {
		s.hub.Notify(req.ParticipantID, res.Balance, "")
	}
	writeJSON(w, http.StatusOK, res)
}
