// Package service defines the interfaces shared across application services.
package service

import (
	"context"
	"time"

	"github.com/saffronlabs/saffron/internal/model"
)

// UserPattern is a persisted association between a description signal
// and the category it resolved to for one user.
type UserPattern struct {
	LearnedAt     time.Time
	UserID        string
	MerchantToken string
	Description   string
	Category      string
	Confidence    float64
}

// ExpenseFilter limits expense history queries.
type ExpenseFilter struct {
	UserID string
	Since  *time.Time
	Limit  int
}

// Storage is the persistence contract for learned patterns and
// classification history.
type Storage interface {
	// Pattern operations
	SaveUserPattern(ctx context.Context, pattern UserPattern) error
	GetUserPatterns(ctx context.Context, userID string) ([]UserPattern, error)
	DeleteUserPatterns(ctx context.Context, userID string) error

	// Expense history operations
	SaveExpense(ctx context.Context, userID string, expense model.Expense) error
	GetExpenses(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
