package store

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

// Sentinel errors shared by all store implementations.
var (
	ErrNotFound       = errors.New("store: not found")
	ErrEmailTaken     = errors.New("store: email already registered")
	ErrCategoryExists = errors.New("store: category already exists")
)

// User is an account row. PasswordHash is a bcrypt digest and never
// leaves the store layer.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// TransactionFilter narrows a transaction listing. Zero values mean
// "no constraint"; From and To are inclusive.
type TransactionFilter struct {
	Kind     core.Kind
	Category string
	From     core.Date
	To       core.Date
	Limit    int
	Offset   int
}

// BudgetFilter narrows a budget listing to a period slot.
type BudgetFilter struct {
	Period core.Period
	Month  int
	Year   int
}

// Ports for persistence adapters. Every operation is scoped to a user;
// reads of rows owned by someone else return ErrNotFound.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id int64) error
		// ListTransactions returns matches ordered by date descending,
		// newest insert first among equal dates.
		ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
		UpdateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id int64) error
		ListBudgets(ctx context.Context, userID int64, f BudgetFilter) ([]core.Budget, error)
	}

	// CategoryStore serves the shared reference catalog. Migrations seed
	// the defaults; user-defined entries join the same table.
	CategoryStore interface {
		ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id int64) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u User) (User, error)
		GetUser(ctx context.Context, id int64) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// ListUsers returns every account ordered by id, for report fan-out.
		ListUsers(ctx context.Context) ([]User, error)
	}
)

// Store is the unified persistence surface the HTTP layer and workers
// consume.
type Store interface {
	TransactionStore
	BudgetStore
	CategoryStore
	UserStore
}
