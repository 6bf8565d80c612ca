package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// LedgerRepository implements domain.LedgerRepository using PostgreSQL.
type LedgerRepository struct {
	q querier
}

// Append stores a new ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO ledger_entries (
			id, account_id, entry_type, amount, balance_before, balance_after,
			reference_id, reference_type, description, processed_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		string(entry.Type),
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.ReferenceID,
		entry.ReferenceType,
		entry.Description,
		entry.Actor,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// SumAmounts totals the account's entries of the given types created in [from, to).
func (r *LedgerRepository) SumAmounts(ctx context.Context, accountID uuid.UUID, types []domain.EntryType, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_id = $1 AND entry_type = ANY($2) AND created_at >= $3 AND created_at < $4
	`

	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}

	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, accountID, names, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return total, nil
}

// ListByAccount returns the account's entries, newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, account_id, entry_type, amount, balance_before, balance_after,
			COALESCE(reference_id, ''), COALESCE(reference_type, ''), COALESCE(description, ''),
			processed_by, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Type,
			&entry.Amount,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.ReferenceID,
			&entry.ReferenceType,
			&entry.Description,
			&entry.Actor,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}
