package ledger

import (
	"fintrack/internal/core"
)

// Status classifies how far along a budget's spending is.
type Status string

const (
	StatusGood     Status = "good"
	StatusProgress Status = "progress"
	StatusWarning  Status = "warning"
	StatusOver     Status = "over"
)

// Threshold maps a minimum percentage to a status.
type Threshold struct {
	Min    float64
	Status Status
}

// Preset is a threshold table evaluated high to low; anything below the
// lowest threshold is StatusGood. The application historically shipped two
// inconsistent tables — the budget summary's two-tier 100/80 split and the
// alerts view's four-tier 100/75/50 split — so both survive here as named
// presets alongside the canonical default, and the choice is configuration.
type Preset []Threshold

var (
	// PresetDefault is the canonical four-tier classification.
	PresetDefault = Preset{
		{Min: 100, Status: StatusOver},
		{Min: 80, Status: StatusWarning},
		{Min: 50, Status: StatusProgress},
	}

	// PresetSummary reproduces the budget-summary endpoint's two-tier split.
	PresetSummary = Preset{
		{Min: 100, Status: StatusOver},
		{Min: 80, Status: StatusWarning},
	}

	// PresetAlerts reproduces the alerts view's 75/50 four-tier split.
	PresetAlerts = Preset{
		{Min: 100, Status: StatusOver},
		{Min: 75, Status: StatusWarning},
		{Min: 50, Status: StatusProgress},
	}
)

// PresetByName resolves a configured preset name.
func PresetByName(name string) (Preset, bool) {
	switch name {
	case "default", "":
		return PresetDefault, true
	case "summary":
		return PresetSummary, true
	case "alerts":
		return PresetAlerts, true
	}
	return nil, false
}

func (p Preset) classify(percentage float64) Status {
	for _, t := range p {
		if percentage >= t.Min {
			return t.Status
		}
	}
	return StatusGood
}

// BudgetStatus is the derived state of one budget. Remaining may be negative,
// signifying overage.
type BudgetStatus struct {
	Status     Status     `json:"status"`
	Percentage float64    `json:"percentage"`
	Spent      core.Money `json:"spent"`
	Remaining  core.Money `json:"remaining"`
}

// Evaluate computes the status of a budget given its derived spend. A zero
// budget amount yields percentage 0 and StatusGood rather than dividing by
// zero. The inputs are never mutated.
func Evaluate(b core.Budget, spent core.Money, p Preset) BudgetStatus {
	st := BudgetStatus{
		Spent:     spent,
		Remaining: core.Money{Cents: b.Amount.Cents - spent.Cents},
	}
	if b.Amount.Cents == 0 {
		st.Status = StatusGood
		return st
	}
	st.Percentage = float64(spent.Cents) / float64(b.Amount.Cents) * 100
	st.Status = p.classify(st.Percentage)
	return st
}

// SpentBy derives a budget's spend from the transaction collection: the sum
// of expense transactions in the budget's category whose date falls inside
// its period window. Storing spend separately invites drift, so this is the
// source of truth.
func SpentBy(b core.Budget, txs []core.Transaction) core.Money {
	var cents int64
	for _, tx := range txs {
		if tx.Kind != core.KindExpense || tx.Category != b.Category {
			continue
		}
		if !b.Contains(tx.Date) {
			continue
		}
		cents += tx.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// Spend is a budget-id-keyed snapshot of derived spend values.
type Spend map[int64]core.Money

// RecomputeSpend derives the spend snapshot for all budgets from scratch.
func RecomputeSpend(budgets []core.Budget, txs []core.Transaction) Spend {
	spend := make(Spend, len(budgets))
	for _, b := range budgets {
		spend[b.ID] = SpentBy(b, txs)
	}
	return spend
}

// Direction selects whether a transaction's effect is being applied or
// reversed against a spend snapshot.
type Direction string

const (
	Add    Direction = "add"
	Remove Direction = "remove"
)

// Apply returns a new spend snapshot with the transaction's effect applied to
// every budget whose category and period window match. Removal clamps at
// zero; income transactions never touch a budget. An in-place update of a
// transaction must Remove the old version before Adding the new one.
func Apply(budgets []core.Budget, spend Spend, tx core.Transaction, d Direction) Spend {
	next := make(Spend, len(spend))
	for id, m := range spend {
		next[id] = m
	}
	if tx.Kind != core.KindExpense {
		return next
	}
	for _, b := range budgets {
		if b.Category != tx.Category || !b.Contains(tx.Date) {
			continue
		}
		cur := next[b.ID].Cents
		switch d {
		case Add:
			cur += tx.Amount.Cents
		case Remove:
			cur -= tx.Amount.Cents
			if cur < 0 {
				cur = 0
			}
		}
		next[b.ID] = core.Money{Cents: cur}
	}
	return next
}
