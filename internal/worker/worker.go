// Package worker consumes ledger events and produces the side effects the
// API server never blocks on: budget alert emails, spreadsheet export and
// the scheduled monthly reports.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/service"
	"fintrack/internal/store"
)

// reportConcurrency bounds the monthly report fan-out.
const reportConcurrency = 4

// AlertSender delivers notification emails. *notify.Mailer implements it.
type AlertSender interface {
	SendBudgetAlert(ctx context.Context, to, name string, report ledger.BudgetReport, year, month int) error
	SendMonthlyReport(ctx context.Context, to, name string, year, month int, sum ledger.Summary, reports []ledger.BudgetReport) error
}

// TransactionExporter appends journal rows to an external sheet.
// *sheets.Exporter implements it.
type TransactionExporter interface {
	AppendTransaction(ctx context.Context, ownerEmail, op string, tx core.Transaction) error
}

// Worker reacts to ledger events. Mailer and exporter are optional; a nil
// dependency disables that side effect.
type Worker struct {
	store    store.Store
	svc      *service.LedgerService
	mailer   AlertSender
	exporter TransactionExporter
	preset   ledger.Preset

	mu sync.Mutex
	// Last alert status sent per budget slot, so a budget that stays over
	// its threshold does not mail the user on every transaction.
	alerted map[string]ledger.Status
}

func New(st store.Store, svc *service.LedgerService, mailer AlertSender, exporter TransactionExporter, preset ledger.Preset) *Worker {
	return &Worker{
		store:    st,
		svc:      svc,
		mailer:   mailer,
		exporter: exporter,
		preset:   preset,
		alerted:  make(map[string]ledger.Status),
	}
}

// HandleLedgerEvent processes one event from the queue. Store failures are
// returned so the message is redelivered; notification failures are logged
// and swallowed since the alert dedup state would otherwise double-send.
func (w *Worker) HandleLedgerEvent(event *amqp.LedgerEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.InfoContext(ctx, "Processing ledger event",
		"user_id", event.UserID,
		"transaction_id", event.TransactionID,
		"op", event.Op,
		"category", event.Category)

	user, err := w.store.GetUser(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "Event for unknown user, dropping", "user_id", event.UserID)
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := w.exportTransaction(ctx, user, event); err != nil {
		return err
	}

	if event.Kind == string(core.KindExpense) {
		w.checkBudgetAlerts(ctx, user, event)
	}
	return nil
}

func (w *Worker) exportTransaction(ctx context.Context, user store.User, event *amqp.LedgerEvent) error {
	if w.exporter == nil {
		return nil
	}

	var tx core.Transaction
	if event.Op == amqp.OpDeleted {
		// The row is gone; journal what the event carries.
		tx = core.Transaction{
			ID:       event.TransactionID,
			Category: event.Category,
			Kind:     core.Kind(event.Kind),
			Date:     core.Date{Time: event.Timestamp},
		}
	} else {
		var err error
		tx, err = w.store.GetTransaction(ctx, event.UserID, event.TransactionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				slog.WarnContext(ctx, "Transaction vanished before export, skipping",
					"transaction_id", event.TransactionID)
				return nil
			}
			return fmt.Errorf("get transaction for export: %w", err)
		}
	}

	if err := w.exporter.AppendTransaction(ctx, user.Email, event.Op, tx); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	return nil
}

// checkBudgetAlerts recomputes the event month's budgets for the touched
// category and mails the user when a budget newly enters warning or over.
func (w *Worker) checkBudgetAlerts(ctx context.Context, user store.User, event *amqp.LedgerEvent) {
	if w.mailer == nil {
		return
	}

	year, month := event.Timestamp.Year(), int(event.Timestamp.Month())
	reports, err := w.svc.BudgetReports(ctx, user.ID, year, month, w.preset)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to evaluate budgets for alerts", "error", err, "user_id", user.ID)
		return
	}

	for _, report := range reports {
		if report.Budget.Category != event.Category {
			continue
		}
		if report.Status.Status != ledger.StatusWarning && report.Status.Status != ledger.StatusOver {
			w.clearAlert(user.ID, report.Budget.ID, year, month)
			continue
		}
		if !w.shouldAlert(user.ID, report.Budget.ID, year, month, report.Status.Status) {
			continue
		}
		if err := w.mailer.SendBudgetAlert(ctx, user.Email, user.Name, report, year, month); err != nil {
			slog.ErrorContext(ctx, "Failed to send budget alert", "error", err, "user_id", user.ID)
		}
	}
}

func alertKey(userID, budgetID int64, year, month int) string {
	return fmt.Sprintf("%d:%d:%04d-%02d", userID, budgetID, year, month)
}

// shouldAlert reports whether this status is an escalation over the last
// one sent, and records it when so.
func (w *Worker) shouldAlert(userID, budgetID int64, year, month int, status ledger.Status) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := alertKey(userID, budgetID, year, month)
	last, ok := w.alerted[key]
	if ok && (last == status || last == ledger.StatusOver) {
		return false
	}
	w.alerted[key] = status
	return true
}

func (w *Worker) clearAlert(userID, budgetID int64, year, month int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.alerted, alertKey(userID, budgetID, year, month))
}

// RunMonthlyReports mails every user a summary of the previous calendar
// month. Users with no activity and no budgets are skipped.
func (w *Worker) RunMonthlyReports(ctx context.Context, now time.Time) error {
	if w.mailer == nil {
		return nil
	}

	prev := now.AddDate(0, -1, -now.Day()+1)
	year, month := prev.Year(), int(prev.Month())

	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for _, user := range users {
		g.Go(func() error {
			if err := w.sendUserReport(gctx, user, year, month); err != nil {
				slog.ErrorContext(gctx, "Failed to send monthly report",
					"error", err, "user_id", user.ID)
			}
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) sendUserReport(ctx context.Context, user store.User, year, month int) error {
	sum, err := w.svc.MonthlySummary(ctx, user.ID, year, month)
	if err != nil {
		return fmt.Errorf("monthly summary: %w", err)
	}
	reports, err := w.svc.BudgetReports(ctx, user.ID, year, month, ledger.PresetSummary)
	if err != nil {
		return fmt.Errorf("budget reports: %w", err)
	}

	if sum.Income.Cents == 0 && sum.Expense.Cents == 0 && len(reports) == 0 {
		slog.InfoContext(ctx, "No activity, skipping monthly report", "user_id", user.ID)
		return nil
	}
	return w.mailer.SendMonthlyReport(ctx, user.Email, user.Name, year, month, sum, reports)
}
