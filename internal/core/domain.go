package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"

	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

type (
	// Kind classifies a transaction as money in or money out.
	Kind string

	// Period is the active window of a budget.
	Period string

	// Date is a calendar date with no time component. The zero value is invalid.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single dated money movement tagged with a category.
	Transaction struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Kind     Kind   `json:"type"`
		Date     Date   `json:"date"`
		Notes    string `json:"notes,omitempty"`
	}

	// Budget caps spending for one category over one period. Spend against the
	// cap is never stored; it is derived from the transaction collection.
	Budget struct {
		ID       int64  `json:"id"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Period   Period `json:"period"`
		Month    int    `json:"month,omitempty"` // 1-12, only for monthly budgets
		Year     int    `json:"year"`
		Color    string `json:"color,omitempty"`
	}

	// Category is static reference data for classifying transactions.
	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
		Kind  Kind   `json:"type"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidPeriod   = errors.New("invalid budget period")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (p Period) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Key returns the canonical YYYY-MM-DD form used on the wire and as a day bucket.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM form used as a month bucket.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Key() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.Year < 1970 || b.Year > 9999 {
		return errors.New("year out of range")
	}
	if b.Period == PeriodMonthly && (b.Month < 1 || b.Month > 12) {
		return errors.New("monthly budget requires a month between 1 and 12")
	}
	return nil
}

// Window returns the budget's active period as a half-open [start, end) range.
func (b Budget) Window() (start, end Date) {
	if b.Period == PeriodMonthly {
		start = NewDate(b.Year, b.Month, 1)
		end = Date{Time: start.AddDate(0, 1, 0)}
		return start, end
	}
	start = NewDate(b.Year, 1, 1)
	end = Date{Time: start.AddDate(1, 0, 0)}
	return start, end
}

// Contains reports whether d falls inside the budget's period window.
func (b Budget) Contains(d Date) bool {
	start, end := b.Window()
	return !d.Before(start.Time) && d.Before(end.Time)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}
