// Package ledger is the aggregation core of fintrack: pure, deterministic
// transformations from transactions and budgets to the derived views served
// by the dashboard, analytics and alerting surfaces.
//
// Every function in this package is total for well-formed input: empty
// collections produce empty slices or zero sums, never nil dereferences or
// panics, and inputs are never mutated. Callers are responsible for handing
// in a consistent snapshot; the package itself performs no I/O and holds no
// state.
package ledger

import (
	"sort"

	"fintrack/internal/core"
)

// KindFilter selects which transaction kinds participate in a total.
type KindFilter string

const (
	Income  KindFilter = "income"
	Expense KindFilter = "expense"
	Both    KindFilter = "both"
)

func (f KindFilter) matches(k core.Kind) bool {
	return f == Both || string(f) == string(k)
}

// DateRange is an inclusive calendar range. A nil *DateRange means no bound.
type DateRange struct {
	From core.Date
	To   core.Date
}

func (r DateRange) contains(d core.Date) bool {
	if !r.From.IsZero() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To.Time) {
		return false
	}
	return true
}

// Totals sums the amounts of transactions matching the kind filter and the
// optional inclusive date range. Empty input or no matches yields zero.
func Totals(txs []core.Transaction, f KindFilter, rng *DateRange) core.Money {
	var cents int64
	for _, tx := range txs {
		if !f.matches(tx.Kind) {
			continue
		}
		if rng != nil && !rng.contains(tx.Date) {
			continue
		}
		cents += tx.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// CategoryTotal is one category's share of a kind's total.
type CategoryTotal struct {
	Category string     `json:"name"`
	Color    string     `json:"color"`
	Total    core.Money `json:"value"`
	Count    int        `json:"count"`
}

// GroupByCategory accumulates per-category totals for the given kind, sorted
// descending by total. Ties keep first-encounter order. Display colors come
// from the catalog, falling back to the neutral default for unknown names.
func GroupByCategory(txs []core.Transaction, kind core.Kind, catalog core.Catalog) []CategoryTotal {
	index := make(map[string]int)
	var groups []CategoryTotal
	for _, tx := range txs {
		if tx.Kind != kind {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(groups)
			index[tx.Category] = i
			groups = append(groups, CategoryTotal{
				Category: tx.Category,
				Color:    catalog.Color(tx.Category),
			})
		}
		groups[i].Total.Cents += tx.Amount.Cents
		groups[i].Count++
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total.Cents > groups[j].Total.Cents
	})
	return groups
}

// BucketSize selects the time-grouping granularity for chart series.
type BucketSize string

const (
	BucketDay   BucketSize = "day"
	BucketMonth BucketSize = "month"
)

// MaxDayBuckets caps the day series to the most recent buckets so trend
// charts stay readable.
const MaxDayBuckets = 30

// Bucket is one point of a time series: income and expense sums for a day
// (YYYY-MM-DD) or month (YYYY-MM) key.
type Bucket struct {
	Key     string     `json:"bucket"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// Net returns income minus expense for the bucket.
func (b Bucket) Net() core.Money {
	return core.Money{Cents: b.Income.Cents - b.Expense.Cents}
}

// GroupByBucket accumulates income and expense sums per time bucket,
// chronologically ascending with unique keys. Day series are truncated to
// the most recent MaxDayBuckets entries.
func GroupByBucket(txs []core.Transaction, size BucketSize) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, tx := range txs {
		key := tx.Date.Key()
		if size == BucketMonth {
			key = tx.Date.MonthKey()
		}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		switch tx.Kind {
		case core.KindIncome:
			buckets[i].Income.Cents += tx.Amount.Cents
		case core.KindExpense:
			buckets[i].Expense.Cents += tx.Amount.Cents
		}
	}
	// Keys are zero-padded, so lexicographic order is chronological order.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	if size == BucketDay && len(buckets) > MaxDayBuckets {
		buckets = buckets[len(buckets)-MaxDayBuckets:]
	}
	return buckets
}
