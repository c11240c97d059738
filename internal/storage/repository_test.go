package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *SQLiteRepository, email string) store.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), store.User{
		Email:        email,
		Name:         "Test",
		PasswordHash: []byte("hash"),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestMigrationsSeedCategories(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(context.Background(), "")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	want := len(core.DefaultExpenseCategories) + len(core.DefaultIncomeCategories)
	if len(cats) != want {
		t.Fatalf("expected %d seeded categories, got %d", want, len(cats))
	}

	income, err := repo.ListCategories(context.Background(), core.KindIncome)
	if err != nil {
		t.Fatalf("list income categories: %v", err)
	}
	if len(income) != len(core.DefaultIncomeCategories) {
		t.Fatalf("expected %d income categories, got %d", len(core.DefaultIncomeCategories), len(income))
	}
}

func TestUserUniqueEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := newTestUser(t, repo, "ada@example.com")
	if _, err := repo.CreateUser(ctx, store.User{Email: "ADA@example.com", PasswordHash: []byte("x")}); !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "Ada@Example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("lookup: %+v err=%v", got, err)
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "tx@example.com")

	date, _ := core.ParseDate("2024-03-09")
	created, err := repo.CreateTransaction(ctx, u.ID, core.Transaction{
		Title:    "Groceries",
		Amount:   core.Money{Cents: 4550},
		Category: "Food & Dining",
		Kind:     core.KindExpense,
		Date:     date,
		Notes:    "weekly shop",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetTransaction(ctx, u.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Groceries" || got.Amount.Cents != 4550 || got.Date.Key() != "2024-03-09" || got.Notes != "weekly shop" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	got.Amount = core.Money{Cents: 5000}
	if _, err := repo.UpdateTransaction(ctx, u.ID, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	other := newTestUser(t, repo, "other@example.com")
	if _, err := repo.GetTransaction(ctx, other.ID, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across users, got %v", err)
	}

	if err := repo.DeleteTransaction(ctx, u.ID, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, u.ID, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "list@example.com")

	add := func(day, category string, kind core.Kind, cents int64) {
		t.Helper()
		d, err := core.ParseDate(day)
		if err != nil {
			t.Fatalf("parse %s: %v", day, err)
		}
		if _, err := repo.CreateTransaction(ctx, u.ID, core.Transaction{
			Title: "t", Amount: core.Money{Cents: cents}, Category: category, Kind: kind, Date: d,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	add("2024-03-01", "Food & Dining", core.KindExpense, 100)
	add("2024-03-15", "Travel", core.KindExpense, 200)
	add("2024-03-15", "Salary", core.KindIncome, 300)
	add("2024-04-02", "Food & Dining", core.KindExpense, 400)

	from, _ := core.ParseDate("2024-03-01")
	to, _ := core.ParseDate("2024-03-31")
	march, err := repo.ListTransactions(ctx, u.ID, store.TransactionFilter{From: from, To: to})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(march) != 3 {
		t.Fatalf("expected 3 march rows, got %d", len(march))
	}
	// Date descending, newest insert first on same day.
	if march[0].Kind != core.KindIncome || march[1].Category != "Travel" {
		t.Fatalf("unexpected order: %+v", march)
	}

	food, err := repo.ListTransactions(ctx, u.ID, store.TransactionFilter{Category: "Food & Dining"})
	if err != nil || len(food) != 2 {
		t.Fatalf("category filter: %v rows=%d", err, len(food))
	}

	page, err := repo.ListTransactions(ctx, u.ID, store.TransactionFilter{Limit: 2, Offset: 1})
	if err != nil || len(page) != 2 || page[0].Kind != core.KindIncome {
		t.Fatalf("pagination: %v rows=%+v", err, page)
	}
}

func TestBudgetRoundTripAndSlotFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "budget@example.com")

	monthly, err := repo.CreateBudget(ctx, u.ID, core.Budget{
		Category: "Food & Dining",
		Amount:   core.Money{Cents: 50000},
		Period:   core.PeriodMonthly,
		Month:    3,
		Year:     2024,
		Color:    "#EF4444",
	})
	if err != nil {
		t.Fatalf("create monthly: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, u.ID, core.Budget{
		Category: "Travel",
		Amount:   core.Money{Cents: 200000},
		Period:   core.PeriodYearly,
		Year:     2024,
	}); err != nil {
		t.Fatalf("create yearly: %v", err)
	}

	// A month slot keeps yearly budgets that cover it.
	slot, err := repo.ListBudgets(ctx, u.ID, store.BudgetFilter{Month: 3, Year: 2024})
	if err != nil || len(slot) != 2 {
		t.Fatalf("slot filter: %v rows=%d", err, len(slot))
	}
	april, err := repo.ListBudgets(ctx, u.ID, store.BudgetFilter{Month: 4, Year: 2024})
	if err != nil || len(april) != 1 || april[0].Period != core.PeriodYearly {
		t.Fatalf("april slot: %v rows=%+v", err, april)
	}

	monthly.Amount = core.Money{Cents: 60000}
	if _, err := repo.UpdateBudget(ctx, u.ID, monthly); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetBudget(ctx, u.ID, monthly.ID)
	if err != nil || got.Amount.Cents != 60000 || got.Color != "#EF4444" {
		t.Fatalf("get after update: %+v err=%v", got, err)
	}

	if err := repo.DeleteBudget(ctx, u.ID, monthly.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetBudget(ctx, u.ID, monthly.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
