package http

import (
	"net/http"

	"dompet/internal/core"
	"dompet/internal/services"
)

type budgetRequest struct {
	Amount    string      `json:"amount"`
	Period    core.Period `json:"period"`
	Category  string      `json:"category"`
	StartDate *core.Date  `json:"start_date"`
	EndDate   *core.Date  `json:"end_date"`
}

type budgetPatchRequest struct {
	Amount    *string      `json:"amount"`
	Period    *core.Period `json:"period"`
	Category  *string      `json:"category"`
	StartDate *core.Date   `json:"start_date"`
	EndDate   *core.Date   `json:"end_date"`
	ClearEnd  bool         `json:"clear_end_date"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	in := services.BudgetInput{
		AmountCents: cents,
		Period:      req.Period,
		Category:    req.Category,
		EndDate:     req.EndDate,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}

	b, err := s.budgets.Create(r.Context(), mustUserID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.budgets.List(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": statuses})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	detail, err := s.budgets.Get(r.Context(), mustUserID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	var req budgetPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	patch := services.BudgetPatch{
		Period:    req.Period,
		Category:  req.Category,
		StartDate: req.StartDate,
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.AmountCents = &cents
	}
	if req.ClearEnd {
		patch.EndDateSet = true
	} else if req.EndDate != nil {
		patch.EndDateSet = true
		patch.EndDate = req.EndDate
	}

	st, err := s.budgets.Update(r.Context(), mustUserID(r), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	if err := s.budgets.Delete(r.Context(), mustUserID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.budgets.Alerts(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}
