package ledger

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// AdvisoryKind is the tone of a generated insight.
type AdvisoryKind string

const (
	AdvisorySuccess AdvisoryKind = "success"
	AdvisoryWarning AdvisoryKind = "warning"
	AdvisoryInfo    AdvisoryKind = "info"
	AdvisoryTip     AdvisoryKind = "tip"
)

// Advisory is one rule-based textual insight about spending behavior.
type Advisory struct {
	Kind    AdvisoryKind `json:"type"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
}

// Summary holds the period totals the advisory rules evaluate against.
type Summary struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// Net returns income minus expense.
func (s Summary) Net() core.Money {
	return core.Money{Cents: s.Income.Cents - s.Expense.Cents}
}

// BudgetReport pairs a budget with its evaluated status for advisory rules.
type BudgetReport struct {
	Budget core.Budget  `json:"budget"`
	Status BudgetStatus `json:"status"`
}

// DefaultTips is the general-advice pool one entry of which closes every
// advisory set.
var DefaultTips = []Advisory{
	{
		Kind:    AdvisoryTip,
		Title:   "Smart Saving Tip",
		Message: "Try the 50/30/20 rule: 50% for needs, 30% for wants, and 20% for savings. This helps maintain a balanced financial lifestyle.",
	},
	{
		Kind:    AdvisoryTip,
		Title:   "Expense Tracking",
		Message: "Review your transactions weekly. Small recurring charges are the easiest place to find savings without changing your lifestyle.",
	},
	{
		Kind:    AdvisoryTip,
		Title:   "Emergency Fund",
		Message: "Aim to build an emergency fund covering 3-6 months of expenses. Start small and gradually increase it over time.",
	},
}

// Advise evaluates the rule set against the period summary, the per-category
// expense totals (descending) and the evaluated budgets, producing zero or
// more advisories. Rules are independent; missing data suppresses a rule
// rather than erroring, so the function has no failure modes.
//
// The closing tip is chosen deterministically from the summary so repeated
// calls over the same snapshot yield the same output.
func Advise(sum Summary, cats []CategoryTotal, reports []BudgetReport, tips []Advisory) []Advisory {
	var out []Advisory

	if sum.Income.Cents > sum.Expense.Cents && sum.Income.Cents > 0 {
		savings := sum.Net()
		rate := float64(savings.Cents) / float64(sum.Income.Cents) * 100
		out = append(out, Advisory{
			Kind:  AdvisorySuccess,
			Title: "Great Savings Performance!",
			Message: fmt.Sprintf("You saved %s this month (%.1f%% savings rate). You're on track to meet your financial goals!",
				formatUSD(savings), rate),
		})
	} else if sum.Expense.Cents > sum.Income.Cents {
		deficit := core.Money{Cents: sum.Expense.Cents - sum.Income.Cents}
		out = append(out, Advisory{
			Kind:  AdvisoryWarning,
			Title: "Spending Alert",
			Message: fmt.Sprintf("You spent %s more than you earned this month. Consider reviewing your expenses and finding areas to cut back.",
				formatUSD(deficit)),
		})
	}

	if len(cats) > 0 && sum.Expense.Cents > 0 {
		top := cats[0]
		share := float64(top.Total.Cents) / float64(sum.Expense.Cents) * 100
		comment := "This looks reasonable for your spending pattern."
		if share > 40 {
			comment = "This seems quite high - consider if there are ways to optimize this spending."
		}
		out = append(out, Advisory{
			Kind:  AdvisoryInfo,
			Title: "Top Spending Category",
			Message: fmt.Sprintf("Your highest expense this month is %s at %s (%.1f%% of total expenses). %s",
				top.Category, formatUSD(top.Total), share, comment),
		})
	}

	var under []string
	var overCount int
	for _, r := range reports {
		if r.Status.Status == StatusOver {
			overCount++
			continue
		}
		if r.Status.Status == StatusGood && r.Status.Spent.Cents*100 < r.Budget.Amount.Cents*80 {
			under = append(under, r.Budget.Category)
		}
	}
	if len(under) > 0 {
		out = append(out, Advisory{
			Kind:  AdvisorySuccess,
			Title: "Budget Discipline",
			Message: fmt.Sprintf("Excellent! You stayed well under budget in %d categories: %s. Great self-control!",
				len(under), strings.Join(under, ", ")),
		})
	}
	if overCount > 0 {
		out = append(out, Advisory{
			Kind:  AdvisoryWarning,
			Title: "Budget Overspending",
			Message: fmt.Sprintf("You exceeded your budget in %d categories. Consider adjusting your spending habits or increasing these budget limits if necessary.",
				overCount),
		})
	}

	if len(tips) > 0 {
		i := int((sum.Income.Cents + sum.Expense.Cents) % int64(len(tips)))
		if i < 0 {
			i = 0
		}
		out = append(out, tips[i])
	}

	return out
}

// formatUSD renders cents as a dollar string with thousands separators.
func formatUSD(m core.Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	s := fmt.Sprintf("$%s.%02d", b.String(), frac)
	if neg {
		return "-" + s
	}
	return s
}
