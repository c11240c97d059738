// Package service orchestrates ledger operations across the store, the
// event queue and the pure aggregation core.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/store"
)

// EventPublisher pushes ledger change notifications to the worker queue.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService owns transaction and budget workflows. Persistence
// failures fail the request; publish failures do not, the row is already
// durable and the worker recomputes from the store on its next event.
type LedgerService struct {
	store     store.Store
	publisher EventPublisher
	catalog   core.Catalog
	preset    ledger.Preset
}

func NewLedgerService(st store.Store, publisher EventPublisher, presetName string) (*LedgerService, error) {
	preset, ok := ledger.PresetByName(presetName)
	if !ok {
		return nil, fmt.Errorf("unknown alert preset %q", presetName)
	}
	return &LedgerService{
		store:     st,
		publisher: publisher,
		catalog:   core.DefaultCatalog(),
		preset:    preset,
	}, nil
}

// Preset returns the configured budget threshold table.
func (s *LedgerService) Preset() ledger.Preset {
	return s.preset
}

func (s *LedgerService) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	created, err := s.store.CreateTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(userID, created.ID, created.Category, string(created.Kind), amqp.OpCreated))
	return created, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	updated, err := s.store.UpdateTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(userID, updated.ID, updated.Category, string(updated.Kind), amqp.OpUpdated))
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(userID, id, t.Category, string(t.Kind), amqp.OpDeleted))
	return nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, f store.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *LedgerService) CreateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	if b.Color == "" {
		b.Color = s.catalog.Color(b.Category)
	}
	return s.store.CreateBudget(ctx, userID, b)
}

func (s *LedgerService) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

func (s *LedgerService) UpdateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	return s.store.UpdateBudget(ctx, userID, b)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, userID, id int64) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

func (s *LedgerService) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	return s.store.ListCategories(ctx, kind)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	return s.store.CreateCategory(ctx, c)
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}

// MonthRange returns the inclusive date range covering a month.
func MonthRange(year, month int) ledger.DateRange {
	start := core.NewDate(year, month, 1)
	end := core.Date{Time: start.AddDate(0, 1, -1)}
	return ledger.DateRange{From: start, To: end}
}

// MonthlySummary totals income and expense for one month.
func (s *LedgerService) MonthlySummary(ctx context.Context, userID int64, year, month int) (ledger.Summary, error) {
	r := MonthRange(year, month)
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{From: r.From, To: r.To})
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	return ledger.Summary{
		Income:  ledger.Totals(txs, ledger.Income, nil),
		Expense: ledger.Totals(txs, ledger.Expense, nil),
	}, nil
}

// CategoryBreakdown groups one kind's totals per category over a range.
func (s *LedgerService) CategoryBreakdown(ctx context.Context, userID int64, kind core.Kind, r ledger.DateRange) ([]ledger.CategoryTotal, error) {
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{From: r.From, To: r.To})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return ledger.GroupByCategory(txs, kind, s.catalog), nil
}

// NetSavingsSeries buckets income and expense over a range.
func (s *LedgerService) NetSavingsSeries(ctx context.Context, userID int64, size ledger.BucketSize, r ledger.DateRange) ([]ledger.Bucket, error) {
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{From: r.From, To: r.To})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return ledger.GroupByBucket(txs, size), nil
}

// BudgetReports recomputes spend and evaluates every budget active in
// the given month slot.
func (s *LedgerService) BudgetReports(ctx context.Context, userID int64, year, month int, preset ledger.Preset) ([]ledger.BudgetReport, error) {
	budgets, err := s.store.ListBudgets(ctx, userID, store.BudgetFilter{Month: month, Year: year})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	// One listing covers the widest window among the active budgets.
	from := core.NewDate(year, 1, 1)
	to := core.Date{Time: from.AddDate(1, 0, -1)}
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{
		Kind: core.KindExpense,
		From: from,
		To:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	spend := ledger.RecomputeSpend(budgets, txs)
	reports := make([]ledger.BudgetReport, len(budgets))
	for i, b := range budgets {
		reports[i] = ledger.BudgetReport{
			Budget: b,
			Status: ledger.Evaluate(b, spend[b.ID], preset),
		}
	}
	return reports, nil
}

// Dashboard is the aggregated month snapshot served to the landing view.
type Dashboard struct {
	Income     core.Money             `json:"income"`
	Expense    core.Money             `json:"expense"`
	Net        core.Money             `json:"net_savings"`
	Recent     []core.Transaction     `json:"recent_transactions"`
	Categories []ledger.CategoryTotal `json:"category_breakdown"`
	Budgets    []ledger.BudgetReport  `json:"budgets"`
}

const recentTransactionCount = 5

func (s *LedgerService) Dashboard(ctx context.Context, userID int64, year, month int) (Dashboard, error) {
	r := MonthRange(year, month)
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{From: r.From, To: r.To})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list transactions: %w", err)
	}

	income := ledger.Totals(txs, ledger.Income, nil)
	expense := ledger.Totals(txs, ledger.Expense, nil)

	recent := txs
	if len(recent) > recentTransactionCount {
		recent = recent[:recentTransactionCount]
	}

	reports, err := s.BudgetReports(ctx, userID, year, month, s.preset)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Income:     income,
		Expense:    expense,
		Net:        core.Money{Cents: income.Cents - expense.Cents},
		Recent:     recent,
		Categories: ledger.GroupByCategory(txs, core.KindExpense, s.catalog),
		Budgets:    reports,
	}, nil
}

// Advisories runs the advisory rules over one month's snapshot.
func (s *LedgerService) Advisories(ctx context.Context, userID int64, year, month int) ([]ledger.Advisory, error) {
	r := MonthRange(year, month)
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{From: r.From, To: r.To})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	sum := ledger.Summary{
		Income:  ledger.Totals(txs, ledger.Income, nil),
		Expense: ledger.Totals(txs, ledger.Expense, nil),
	}
	cats := ledger.GroupByCategory(txs, core.KindExpense, s.catalog)
	reports, err := s.BudgetReports(ctx, userID, year, month, s.preset)
	if err != nil {
		return nil, err
	}

	return ledger.Advise(sum, cats, reports, ledger.DefaultTips), nil
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"user_id", event.UserID,
			"transaction_id", event.TransactionID,
			"op", event.Op,
			"error", err)
		// Don't fail the request - the row is already persisted.
	}
}
