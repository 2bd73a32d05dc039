// Package http exposes the ledger, wallet and budget services as a JSON
// API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dompet/internal/auth"
	"dompet/internal/services"
)

type Server struct {
	ledger  *services.LedgerService
	budgets *services.BudgetService
	users   *services.UserService
	tokens  *auth.Tokens
}

func NewServer(ledger *services.LedgerService, budgets *services.BudgetService, users *services.UserService, tokens *auth.Tokens) *Server {
	return &Server{
		ledger:  ledger,
		budgets: budgets,
		users:   users,
		tokens:  tokens,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(traceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.tokens.Middleware)

			r.Get("/user/profile", s.handleGetProfile)
			r.Put("/user/profile", s.handleUpdateProfile)
			r.Get("/user/summary", s.handleMonthlySummary)

			r.Get("/wallet", s.handleGetWallet)
			r.Post("/wallet/repair", s.handleRepairWallet)

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", s.handleListExpenses)
				r.Post("/", s.handleCreateExpense)
				r.Get("/{id}", s.handleGetTransaction)
				r.Put("/{id}", s.handleUpdateTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
			})

			r.Route("/incomes", func(r chi.Router) {
				r.Get("/", s.handleListIncomes)
				r.Post("/", s.handleCreateIncome)
				r.Get("/{id}", s.handleGetTransaction)
				r.Put("/{id}", s.handleUpdateTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", s.handleListBudgets)
				r.Post("/", s.handleCreateBudget)
				r.Get("/alerts", s.handleBudgetAlerts)
				r.Get("/{id}", s.handleGetBudget)
				r.Put("/{id}", s.handleUpdateBudget)
				r.Delete("/{id}", s.handleDeleteBudget)
			})
		})
	})

	return r
}
