package storage

import (
	"context"
	"fmt"

	"github.com/saffronlabs/saffron/internal/service"
)

// SaveUserPattern appends a learned pattern for the user.
func (s *SQLiteStorage) SaveUserPattern(ctx context.Context, pattern service.UserPattern) error {
	if pattern.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if pattern.Description == "" || pattern.Category == "" {
		return fmt.Errorf("description and category are required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_patterns (user_id, merchant_token, description, category, confidence, learned_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		pattern.UserID, pattern.MerchantToken, pattern.Description,
		pattern.Category, pattern.Confidence, pattern.LearnedAt)
	if err != nil {
		return fmt.Errorf("failed to save user pattern: %w", err)
	}
	return nil
}

// GetUserPatterns returns the user's patterns oldest first, so callers
// can replay them in learning order.
func (s *SQLiteStorage) GetUserPatterns(ctx context.Context, userID string) ([]service.UserPattern, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, merchant_token, description, category, confidence, learned_at
		FROM user_patterns
		WHERE user_id = ?
		ORDER BY learned_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []service.UserPattern
	for rows.Next() {
		var p service.UserPattern
		if err := rows.Scan(&p.UserID, &p.MerchantToken, &p.Description,
			&p.Category, &p.Confidence, &p.LearnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user patterns: %w", err)
	}
	return patterns, nil
}

// DeleteUserPatterns removes everything learned for a user.
func (s *SQLiteStorage) DeleteUserPatterns(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM user_patterns WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user patterns: %w", err)
	}
	return nil
}
