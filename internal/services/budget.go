package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"dompet/internal/core"
	"dompet/internal/period"
	"dompet/internal/storage"
)

// Budget alert thresholds, as percentages of the budgeted amount.
const (
	warningThreshold = 90
	infoThreshold    = 75
)

// BudgetStatus is a budget evaluated against the expense spend of its
// current window.
type BudgetStatus struct {
	Budget          core.Budget `json:"budget"`
	WindowStart     core.Date   `json:"window_start"`
	WindowEnd       core.Date   `json:"window_end"`
	SpentCents      int64       `json:"spent_cents"`
	RemainingCents  int64       `json:"remaining_cents"`
	PercentageSpent int64       `json:"percentage_spent"`
	Status          string      `json:"status"`
}

// BudgetDetail is a status plus the most recent expenses inside the window.
type BudgetDetail struct {
	BudgetStatus
	RecentTransactions []core.Transaction `json:"recent_transactions"`
}

// BudgetAlert is a user-facing notification for a budget running hot.
// Severity is one of danger, warning, info.
type BudgetAlert struct {
	BudgetID        int64  `json:"budget_id"`
	Category        string `json:"category"`
	Severity        string `json:"severity"`
	Message         string `json:"message"`
	PercentageSpent int64  `json:"percentage_spent"`
	RemainingCents  int64  `json:"remaining_cents"`
}

// BudgetInput carries the fields of a new budget. An empty category means
// all expenses.
type BudgetInput struct {
	AmountCents int64
	Period      core.Period
	Category    string
	StartDate   core.Date
	EndDate     *core.Date
}

// BudgetPatch is a partial edit; nil means "field not present". EndDateSet
// distinguishes clearing the end date from leaving it alone.
type BudgetPatch struct {
	AmountCents *int64
	Period      *core.Period
	Category    *string
	StartDate   *core.Date
	EndDate     *core.Date
	EndDateSet  bool
}

// BudgetService evaluates budgets against the ledger. The clock is injected
// so window math is testable.
type BudgetService struct {
	store *storage.Repository
	now   func() time.Time
}

func NewBudgetService(store *storage.Repository) *BudgetService {
	return &BudgetService{store: store, now: time.Now}
}

// Create stores a budget after rejecting a second active budget for the same
// category and period.
func (s *BudgetService) Create(ctx context.Context, userID int64, in BudgetInput) (core.Budget, error) {
	category := core.NormalizeCategory(in.Category)
	if category == "" {
		category = core.CategoryAll
	}
	startDate := in.StartDate
	if startDate.IsZero() {
		startDate = core.DateOf(s.now())
	}

	b := core.Budget{
		UserID:      userID,
		AmountCents: in.AmountCents,
		Period:      in.Period,
		Category:    category,
		StartDate:   startDate,
		EndDate:     in.EndDate,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	exists, err := s.store.ActiveBudgetExists(ctx, userID, category, in.Period, core.DateOf(s.now()))
	if err != nil {
		return core.Budget{}, err
	}
	if exists {
		return core.Budget{}, core.ErrDuplicateActiveBudget
	}

	return s.store.InsertBudget(ctx, b)
}

// List evaluates every budget of the user, expired ones included.
func (s *BudgetService) List(ctx context.Context, userID int64) ([]BudgetStatus, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.evaluate(ctx, b)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Get evaluates one budget and attaches its five most recent in-window
// expenses.
func (s *BudgetService) Get(ctx context.Context, userID, id int64) (BudgetDetail, error) {
	b, err := s.store.GetBudget(ctx, id, userID)
	if err != nil {
		return BudgetDetail{}, err
	}
	st, err := s.evaluate(ctx, b)
	if err != nil {
		return BudgetDetail{}, err
	}
	recent, err := s.store.QueryTransactions(ctx, userID, s.windowFilter(b, 5))
	if err != nil {
		return BudgetDetail{}, err
	}
	return BudgetDetail{BudgetStatus: st, RecentTransactions: recent}, nil
}

// Update applies a partial edit and returns the re-evaluated budget.
func (s *BudgetService) Update(ctx context.Context, userID, id int64, patch BudgetPatch) (BudgetStatus, error) {
	b, err := s.store.GetBudget(ctx, id, userID)
	if err != nil {
		return BudgetStatus{}, err
	}
	if patch.AmountCents != nil {
		b.AmountCents = *patch.AmountCents
	}
	if patch.Period != nil {
		b.Period = *patch.Period
	}
	if patch.Category != nil {
		category := core.NormalizeCategory(*patch.Category)
		if category == "" {
			category = core.CategoryAll
		}
		b.Category = category
	}
	if patch.StartDate != nil {
		b.StartDate = *patch.StartDate
	}
	if patch.EndDateSet {
		b.EndDate = patch.EndDate
	}
	if err := b.Validate(); err != nil {
		return BudgetStatus{}, err
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return BudgetStatus{}, err
	}
	return s.evaluate(ctx, b)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteBudget(ctx, id, userID)
}

// Alerts evaluates the user's active budgets and reports the ones past a
// threshold. Exactly one alert per qualifying budget, at the highest
// severity it reaches.
func (s *BudgetService) Alerts(ctx context.Context, userID int64) ([]BudgetAlert, error) {
	budgets, err := s.store.ListActiveBudgets(ctx, userID, core.DateOf(s.now()))
	if err != nil {
		return nil, err
	}
	alerts := make([]BudgetAlert, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.evaluate(ctx, b)
		if err != nil {
			return nil, err
		}
		alert, ok := classify(st)
		if ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

// evaluate computes spend, remaining, percentage and status for the
// budget's current window.
func (s *BudgetService) evaluate(ctx context.Context, b core.Budget) (BudgetStatus, error) {
	w := period.Resolve(s.now(), b)
	signed, err := s.store.SumSigned(ctx, b.UserID, s.windowFilter(b, 0))
	if err != nil {
		return BudgetStatus{}, err
	}
	// Only expenses are summed, so the signed total is non-positive.
	spent := -signed

	status := "within"
	if spent > b.AmountCents {
		status = "exceeded"
	}

	var pct int64
	if b.AmountCents > 0 {
		pct = int64(math.Round(float64(spent) / float64(b.AmountCents) * 100))
	}

	return BudgetStatus{
		Budget:          b,
		WindowStart:     core.DateOf(w.Start),
		WindowEnd:       core.DateOf(w.End),
		SpentCents:      spent,
		RemainingCents:  b.AmountCents - spent,
		PercentageSpent: pct,
		Status:          status,
	}, nil
}

// windowFilter is the expense filter for the budget's current window. A
// category of "all" matches every expense.
func (s *BudgetService) windowFilter(b core.Budget, limit int) storage.LedgerFilter {
	w := period.Resolve(s.now(), b)
	f := storage.LedgerFilter{
		Direction: core.Expense,
		From:      w.Start,
		To:        w.End,
		Limit:     limit,
	}
	if b.Category != core.CategoryAll {
		f.Category = b.Category
	}
	return f
}

// classify maps an evaluated budget to at most one alert. Overspend beats
// the percentage thresholds.
func classify(st BudgetStatus) (BudgetAlert, bool) {
	alert := BudgetAlert{
		BudgetID:        st.Budget.ID,
		Category:        st.Budget.Category,
		PercentageSpent: st.PercentageSpent,
		RemainingCents:  st.RemainingCents,
	}
	switch {
	case st.RemainingCents < 0:
		alert.Severity = "danger"
		alert.Message = fmt.Sprintf("You have exceeded your %s budget by %s", st.Budget.Category, core.FormatCents(-st.RemainingCents))
	case st.PercentageSpent >= warningThreshold:
		alert.Severity = "warning"
		alert.Message = fmt.Sprintf("You have used %d%% of your %s budget", st.PercentageSpent, st.Budget.Category)
	case st.PercentageSpent >= infoThreshold:
		alert.Severity = "info"
		alert.Message = fmt.Sprintf("You have used %d%% of your %s budget, %s remaining", st.PercentageSpent, st.Budget.Category, core.FormatCents(st.RemainingCents))
	default:
		return BudgetAlert{}, false
	}
	return alert, true
}
