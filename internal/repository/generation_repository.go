package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// GenerationRepository keeps the audit log of billed generations.
type GenerationRepository struct {
	db *sql.DB
}

func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) Log(ctx context.Context, accountID int64, prompt string, creditsCharged int) error {
	const query = `
INSERT INTO generation_logs (account_id, prompt, credits_charged)
VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, accountID, prompt, creditsCharged); err != nil {
		return fmt.Errorf("insert generation log: %w", err)
	}
	return nil
}

func (r *GenerationRepository) CountForAccount(ctx context.Context, accountID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM generation_logs WHERE account_id = ?`
	row := r.db.QueryRowContext(ctx, query, accountID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return count, nil
}
