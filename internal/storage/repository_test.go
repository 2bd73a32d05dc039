package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dompet/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *Repository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), "Test User", email, "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func seedCategory(t *testing.T, repo *Repository, label string, dir core.Direction) core.Category {
	t.Helper()
	c, err := repo.InsertCategory(context.Background(), core.Category{Label: label, Direction: dir})
	if err != nil {
		t.Fatalf("InsertCategory() error = %v", err)
	}
	return c
}

func seedTransaction(t *testing.T, repo *Repository, userID, categoryID int64, label string, dir core.Direction, cents int64, date core.Date) core.Transaction {
	t.Helper()
	tx, err := repo.InsertTransaction(context.Background(), core.Transaction{
		UserID:        userID,
		CategoryID:    categoryID,
		CategoryLabel: label,
		Direction:     dir,
		Name:          "seed",
		AmountCents:   cents,
		Date:          date,
	})
	if err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}
	return tx
}

func TestTransactionCRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	u := seedUser(t, repo, "crud@example.com")
	cat := seedCategory(t, repo, "groceries", core.Expense)

	tx := seedTransaction(t, repo, u.ID, cat.ID, cat.Label, core.Expense, 1250, core.NewDate(2024, 3, 15))
	if tx.ID == 0 {
		t.Fatal("InsertTransaction() should assign an id")
	}

	got, err := repo.GetTransaction(ctx, tx.ID, u.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.AmountCents != 1250 || got.CategoryLabel != "groceries" || got.Date.String() != "2024-03-15" {
		t.Errorf("GetTransaction() = %+v", got)
	}

	got.AmountCents = 900
	got.Name = "weekly shop"
	if err := repo.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	updated, err := repo.GetTransaction(ctx, tx.ID, u.ID)
	if err != nil {
		t.Fatalf("GetTransaction() after update error = %v", err)
	}
	if updated.AmountCents != 900 || updated.Name != "weekly shop" {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := repo.DeleteTransaction(ctx, tx.ID, u.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if _, err := repo.GetTransaction(ctx, tx.ID, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() after delete error = %v, want ErrNotFound", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "owner@example.com")
	other := seedUser(t, repo, "other@example.com")
	cat := seedCategory(t, repo, "rent", core.Expense)

	tx := seedTransaction(t, repo, owner.ID, cat.ID, cat.Label, core.Expense, 80000, core.NewDate(2024, 1, 1))

	if _, err := repo.GetTransaction(ctx, tx.ID, other.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-user GetTransaction() error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, tx.ID, other.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-user DeleteTransaction() error = %v, want ErrNotFound", err)
	}

	// The record must survive the foreign delete attempt.
	if _, err := repo.GetTransaction(ctx, tx.ID, owner.ID); err != nil {
		t.Errorf("owner GetTransaction() error = %v", err)
	}
}

func TestSumSigned(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	u := seedUser(t, repo, "sum@example.com")
	food := seedCategory(t, repo, "food", core.Expense)
	salary := seedCategory(t, repo, "salary", core.Income)

	seedTransaction(t, repo, u.ID, salary.ID, salary.Label, core.Income, 300000, core.NewDate(2024, 5, 1))
	seedTransaction(t, repo, u.ID, food.ID, food.Label, core.Expense, 4500, core.NewDate(2024, 5, 10))
	seedTransaction(t, repo, u.ID, food.ID, food.Label, core.Expense, 2000, core.NewDate(2024, 6, 1))

	sum, err := repo.SumSigned(ctx, u.ID, LedgerFilter{})
	if err != nil {
		t.Fatalf("SumSigned() error = %v", err)
	}
	if want := int64(300000 - 4500 - 2000); sum != want {
		t.Errorf("SumSigned() = %d, want %d", sum, want)
	}

	expenses, err := repo.SumSigned(ctx, u.ID, LedgerFilter{Direction: core.Expense})
	if err != nil {
		t.Fatalf("SumSigned(expense) error = %v", err)
	}
	if expenses != -6500 {
		t.Errorf("SumSigned(expense) = %d, want -6500", expenses)
	}

	// Half-open window: June 1st excluded.
	may, err := repo.SumSigned(ctx, u.ID, LedgerFilter{
		Direction: core.Expense,
		From:      core.NewDate(2024, 5, 1).Time,
		To:        core.NewDate(2024, 6, 1).Time,
	})
	if err != nil {
		t.Fatalf("SumSigned(may) error = %v", err)
	}
	if may != -4500 {
		t.Errorf("SumSigned(may) = %d, want -4500", may)
	}

	byCategory, err := repo.SumSigned(ctx, u.ID, LedgerFilter{Category: "food"})
	if err != nil {
		t.Fatalf("SumSigned(food) error = %v", err)
	}
	if byCategory != -6500 {
		t.Errorf("SumSigned(food) = %d, want -6500", byCategory)
	}
}

func TestQueryTransactionsOrdering(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	u := seedUser(t, repo, "order@example.com")
	cat := seedCategory(t, repo, "misc", core.Expense)

	seedTransaction(t, repo, u.ID, cat.ID, cat.Label, core.Expense, 100, core.NewDate(2024, 1, 10))
	seedTransaction(t, repo, u.ID, cat.ID, cat.Label, core.Expense, 200, core.NewDate(2024, 1, 20))
	seedTransaction(t, repo, u.ID, cat.ID, cat.Label, core.Expense, 300, core.NewDate(2024, 1, 15))

	txs, err := repo.QueryTransactions(ctx, u.ID, LedgerFilter{})
	if err != nil {
		t.Fatalf("QueryTransactions() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("QueryTransactions() len = %d, want 3", len(txs))
	}
	if txs[0].AmountCents != 200 || txs[1].AmountCents != 300 || txs[2].AmountCents != 100 {
		t.Errorf("wrong order: %d, %d, %d", txs[0].AmountCents, txs[1].AmountCents, txs[2].AmountCents)
	}

	limited, err := repo.QueryTransactions(ctx, u.ID, LedgerFilter{Limit: 2})
	if err != nil {
		t.Fatalf("QueryTransactions(limit) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("QueryTransactions(limit) len = %d, want 2", len(limited))
	}
}

func TestWalletBalance(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	u := seedUser(t, repo, "wallet@example.com")

	if _, err := repo.GetWallet(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetWallet() before create error = %v, want ErrNotFound", err)
	}

	w, err := repo.CreateWallet(ctx, u.ID, 5000)
	if err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}
	if w.TotalBalanceCents != 5000 {
		t.Errorf("CreateWallet() balance = %d, want 5000", w.TotalBalanceCents)
	}

	balance, err := repo.AddWalletBalance(ctx, u.ID, -1500)
	if err != nil {
		t.Fatalf("AddWalletBalance() error = %v", err)
	}
	if balance != 3500 {
		t.Errorf("AddWalletBalance() = %d, want 3500", balance)
	}

	if err := repo.SetWalletBalance(ctx, u.ID, -200); err != nil {
		t.Fatalf("SetWalletBalance() error = %v", err)
	}
	w, err = repo.GetWallet(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetWallet() error = %v", err)
	}
	if w.TotalBalanceCents != -200 {
		t.Errorf("balance after set = %d, want -200", w.TotalBalanceCents)
	}

	if _, err := repo.AddWalletBalance(ctx, u.ID+99, 100); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AddWalletBalance(no wallet) error = %v, want ErrNotFound", err)
	}
}

func TestBudgetCRUDAndActiveFilter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	u := seedUser(t, repo, "budget@example.com")

	end := core.NewDate(2024, 6, 30)
	open, err := repo.InsertBudget(ctx, core.Budget{
		UserID:      u.ID,
		AmountCents: 50000,
		Period:      core.Monthly,
		Category:    core.CategoryAll,
		StartDate:   core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("InsertBudget() error = %v", err)
	}
	closed, err := repo.InsertBudget(ctx, core.Budget{
		UserID:      u.ID,
		AmountCents: 20000,
		Period:      core.Weekly,
		Category:    "food",
		StartDate:   core.NewDate(2024, 1, 1),
		EndDate:     &end,
	})
	if err != nil {
		t.Fatalf("InsertBudget() error = %v", err)
	}

	got, err := repo.GetBudget(ctx, closed.ID, u.ID)
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if got.EndDate == nil || got.EndDate.String() != "2024-06-30" {
		t.Errorf("GetBudget() end date = %v", got.EndDate)
	}

	all, err := repo.ListBudgets(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListBudgets() len = %d, want 2", len(all))
	}

	// July 1st: the closed budget has expired.
	active, err := repo.ListActiveBudgets(ctx, u.ID, core.NewDate(2024, 7, 1))
	if err != nil {
		t.Fatalf("ListActiveBudgets() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != open.ID {
		t.Errorf("ListActiveBudgets() = %+v, want only the open budget", active)
	}

	// End date itself still counts as active.
	exists, err := repo.ActiveBudgetExists(ctx, u.ID, "food", core.Weekly, core.NewDate(2024, 6, 30))
	if err != nil {
		t.Fatalf("ActiveBudgetExists() error = %v", err)
	}
	if !exists {
		t.Error("ActiveBudgetExists() on end date = false, want true")
	}
	exists, err = repo.ActiveBudgetExists(ctx, u.ID, "food", core.Weekly, core.NewDate(2024, 7, 1))
	if err != nil {
		t.Fatalf("ActiveBudgetExists() error = %v", err)
	}
	if exists {
		t.Error("ActiveBudgetExists() after expiry = true, want false")
	}

	if err := repo.DeleteBudget(ctx, open.ID, u.ID); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	if _, err := repo.GetBudget(ctx, open.ID, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetBudget() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedUser(t, repo, "dup@example.com")

	_, err := repo.CreateUser(ctx, "Other", "dup@example.com", "hash")
	if !errors.Is(err, core.ErrEmailTaken) {
		t.Errorf("CreateUser(duplicate) error = %v, want ErrEmailTaken", err)
	}
}

func TestCategoryUniqueViolation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedCategory(t, repo, "travel", core.Expense)

	_, err := repo.InsertCategory(ctx, core.Category{Label: "travel", Direction: core.Expense})
	if err == nil {
		t.Fatal("InsertCategory(duplicate) should fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
}
