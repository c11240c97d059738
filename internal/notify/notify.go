// Package notify sends budget alert and monthly report emails over SMTP.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Mailer sends plain-text notification emails. The zero value is unusable;
// construct it with NewMailer.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string

	// send is swappable in tests.
	send func(e *email.Email) error
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
	m.send = m.sendSMTP
	return m
}

func (m *Mailer) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return e.Send(addr, auth)
}

// SendBudgetAlert notifies a user that a category budget crossed the
// warning or overspend threshold.
func (m *Mailer) SendBudgetAlert(ctx context.Context, to, name string, report ledger.BudgetReport, year, month int) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}

	if report.Status.Status == ledger.StatusOver {
		e.Subject = fmt.Sprintf("Budget exceeded: %s", report.Budget.Category)
	} else {
		e.Subject = fmt.Sprintf("Budget warning: %s", report.Budget.Category)
	}
	e.Text = []byte(budgetAlertBody(name, report, year, month))

	if err := m.send(e); err != nil {
		slog.ErrorContext(ctx, "Failed to send budget alert", "error", err, "to", to, "category", report.Budget.Category)
		return fmt.Errorf("send budget alert: %w", err)
	}
	slog.InfoContext(ctx, "Budget alert sent", "to", to, "category", report.Budget.Category, "status", report.Status.Status)
	return nil
}

func budgetAlertBody(name string, report ledger.BudgetReport, year, month int) string {
	period := fmt.Sprintf("%s %d", time.Month(month), year)
	if report.Budget.Period == core.PeriodYearly {
		period = fmt.Sprintf("%d", year)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	if report.Status.Status == ledger.StatusOver {
		fmt.Fprintf(&b, "You have exceeded your %s budget for %s.\n", report.Budget.Category, period)
	} else {
		fmt.Fprintf(&b, "You are approaching your %s budget for %s.\n", report.Budget.Category, period)
	}
	fmt.Fprintf(&b, "Budget: %s\nSpent: %s (%.1f%%)\nRemaining: %s\n",
		formatAmount(report.Budget.Amount),
		formatAmount(report.Status.Spent),
		report.Status.Percentage,
		formatAmount(report.Status.Remaining))
	b.WriteString("\nBest regards,\nfintrack")
	return b.String()
}

// SendMonthlyReport emails a month-end summary with the income/expense
// totals and each budget's final standing.
func (m *Mailer) SendMonthlyReport(ctx context.Context, to, name string, year, month int, sum ledger.Summary, reports []ledger.BudgetReport) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Your %s %d financial report", time.Month(month), year)
	e.Text = []byte(monthlyReportBody(name, year, month, sum, reports))

	if err := m.send(e); err != nil {
		slog.ErrorContext(ctx, "Failed to send monthly report", "error", err, "to", to)
		return fmt.Errorf("send monthly report: %w", err)
	}
	slog.InfoContext(ctx, "Monthly report sent", "to", to, "year", year, "month", month)
	return nil
}

func monthlyReportBody(name string, year, month int, sum ledger.Summary, reports []ledger.BudgetReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	fmt.Fprintf(&b, "Here is your financial summary for %s %d.\n\n", time.Month(month), year)
	fmt.Fprintf(&b, "Income:      %s\n", formatAmount(sum.Income))
	fmt.Fprintf(&b, "Expenses:    %s\n", formatAmount(sum.Expense))
	fmt.Fprintf(&b, "Net savings: %s\n", formatAmount(sum.Net()))

	if len(reports) > 0 {
		b.WriteString("\nBudgets:\n")
		for _, r := range reports {
			fmt.Fprintf(&b, "  %-20s %s of %s (%.1f%%, %s)\n",
				r.Budget.Category,
				formatAmount(r.Status.Spent),
				formatAmount(r.Budget.Amount),
				r.Status.Percentage,
				r.Status.Status)
		}
	}

	b.WriteString("\nBest regards,\nfintrack")
	return b.String()
}

func formatAmount(m core.Money) string {
	return fmt.Sprintf("$%.2f", m.Float64())
}
