package http

import (
	"net/http"
)

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.ledger.Wallet(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// handleRepairWallet force-recomputes the balance from the ledger. Exposed
// for operators; the worker uses the same path.
func (s *Server) handleRepairWallet(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.RepairWallet(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total_balance_cents": balance})
}
