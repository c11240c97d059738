// Package memory holds an in-process store used by tests and by the
// memory data backend.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu sync.Mutex

	nextUserID int64
	nextTxID   int64
	nextBudID  int64
	nextCatID  int64

	users      map[int64]store.User
	byEmail    map[string]int64
	txs        map[int64][]core.Transaction
	budgets    map[int64][]core.Budget
	categories []core.Category
}

var _ store.Store = (*Store)(nil)

// New returns an empty store seeded with the default category catalog.
func New() *Store {
	s := &Store{
		users:   map[int64]store.User{},
		byEmail: map[string]int64{},
		txs:     map[int64][]core.Transaction{},
		budgets: map[int64][]core.Budget{},
	}
	for _, set := range [][]core.Category{core.DefaultExpenseCategories, core.DefaultIncomeCategories} {
		for _, c := range set {
			s.nextCatID++
			c.ID = s.nextCatID
			s.categories = append(s.categories, c)
		}
	}
	return s
}

func (s *Store) CreateUser(_ context.Context, u store.User) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.byEmail[key]; ok {
		return store.User{}, store.ErrEmailTaken
	}
	s.nextUserID++
	u.ID = s.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	s.byEmail[key] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]store.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) CreateTransaction(_ context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxID++
	t.ID = s.nextTxID
	s.txs[userID] = append(s.txs[userID], t)
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs[userID] {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) UpdateTransaction(_ context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.txs[userID]
	for i := range list {
		if list[i].ID == t.ID {
			list[i] = t
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.txs[userID]
	for i := range list {
		if list[i].ID == id {
			s.txs[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transaction
	for _, t := range s.txs[userID] {
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To.Time) {
			continue
		}
		out = append(out, t)
	}
	// Date descending, newest row first among equal dates.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return append([]core.Transaction(nil), out...), nil
}

func (s *Store) CreateBudget(_ context.Context, userID int64, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBudID++
	b.ID = s.nextBudID
	s.budgets[userID] = append(s.budgets[userID], b)
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets[userID] {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Budget{}, store.ErrNotFound
}

func (s *Store) UpdateBudget(_ context.Context, userID int64, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.budgets[userID]
	for i := range list {
		if list[i].ID == b.ID {
			list[i] = b
			return b, nil
		}
	}
	return core.Budget{}, store.ErrNotFound
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.budgets[userID]
	for i := range list {
		if list[i].ID == id {
			s.budgets[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListBudgets(_ context.Context, userID int64, f store.BudgetFilter) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets[userID] {
		if f.Period != "" && b.Period != f.Period {
			continue
		}
		if f.Year != 0 && b.Year != f.Year {
			continue
		}
		if f.Month != 0 && b.Period == core.PeriodMonthly && b.Month != f.Month {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListCategories(_ context.Context, kind core.Kind) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if kind != "" && c.Kind != kind {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Name == c.Name && existing.Kind == c.Kind {
			return core.Category{}, store.ErrCategoryExists
		}
	}
	if c.Color == "" {
		c.Color = core.DefaultColor
	}
	s.nextCatID++
	c.ID = s.nextCatID
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
