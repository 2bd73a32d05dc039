package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dompet/internal/core"
	"dompet/internal/services"
)

// transactionRequest carries a new transaction. Amount is a decimal string
// ("12.34"); cents are the storage unit.
type transactionRequest struct {
	Name     string     `json:"name"`
	Amount   string     `json:"amount"`
	Category string     `json:"category"`
	Note     string     `json:"note"`
	Date     *core.Date `json:"date"`
}

// transactionPatchRequest is a partial edit: absent fields stay untouched.
type transactionPatchRequest struct {
	Name     *string    `json:"name"`
	Amount   *string    `json:"amount"`
	Category *string    `json:"category"`
	Note     *string    `json:"note"`
	Date     *core.Date `json:"date"`
}

// transactionResponse pairs the affected record with the balance the wallet
// holds after the mutation.
type transactionResponse struct {
	Transaction  core.Transaction `json:"transaction"`
	BalanceCents int64            `json:"wallet_balance_cents"`
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func mustUserID(r *http.Request) int64 {
	id, _ := authUserID(r)
	return id
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	s.createTransaction(w, r, core.Expense)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	s.createTransaction(w, r, core.Income)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, dir core.Direction) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	in := services.TransactionInput{
		Name:        req.Name,
		AmountCents: cents,
		Category:    req.Category,
		Note:        req.Note,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	tx, balance, err := s.ledger.CreateTransaction(r.Context(), mustUserID(r), dir, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: tx, BalanceCents: balance})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.Expense)
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.Income)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, dir core.Direction) {
	txs, err := s.ledger.ListTransactions(r.Context(), mustUserID(r), dir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	tx, err := s.ledger.GetTransaction(r.Context(), mustUserID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	var req transactionPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	patch := services.TransactionPatch{
		Name:     req.Name,
		Category: req.Category,
		Note:     req.Note,
		Date:     req.Date,
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.AmountCents = &cents
	}

	tx, balance, err := s.ledger.UpdateTransaction(r.Context(), mustUserID(r), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transactionResponse{Transaction: tx, BalanceCents: balance})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	tx, balance, err := s.ledger.DeleteTransaction(r.Context(), mustUserID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transactionResponse{Transaction: tx, BalanceCents: balance})
}
