package storage

import (
	"context"
	"fmt"

	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/service"
)

// SaveExpense records a categorized expense for the user's history.
func (s *SQLiteStorage) SaveExpense(ctx context.Context, userID string, expense model.Expense) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if expense.Description == "" || expense.Category == "" {
		return fmt.Errorf("description and category are required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, date, description, category, method, amount, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, expense.Date, expense.Description, expense.Category,
		string(expense.Method), expense.Amount, expense.Confidence)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

// GetExpenses returns the user's expense history, newest first.
func (s *SQLiteStorage) GetExpenses(ctx context.Context, filter service.ExpenseFilter) ([]model.Expense, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	query := `
		SELECT date, description, category, method, amount, confidence
		FROM expenses
		WHERE user_id = ?`
	args := []any{filter.UserID}

	if filter.Since != nil {
		query += ` AND date >= ?`
		args = append(args, *filter.Since)
	}
	query += ` ORDER BY date DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		var exp model.Expense
		var method string
		if err := rows.Scan(&exp.Date, &exp.Description, &exp.Category,
			&method, &exp.Amount, &exp.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		exp.Method = model.Method(method)
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
