package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

const accountColumns = `
	id, account_number, customer_id, bank_code, account_type, status,
	current_balance, overdraft_limit, daily_limit, currency,
	created_at, updated_at, last_activity_at
`

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	q querier
}

func scanAccount(row pgx.Row) (*domain.CustomerAccount, error) {
	var account domain.CustomerAccount
	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.CustomerID,
		&account.BankCode,
		&account.Type,
		&account.Status,
		&account.Balance,
		&account.OverdraftLimit,
		&account.DailyLimit,
		&account.Currency,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.LastActivityAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM customer_accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// Lock acquires a row-level lock on the account (SELECT ... FOR UPDATE).
// This must be called within a transaction.
func (r *AccountRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.CustomerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM customer_accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, nil
}

// Update persists balance, status and activity changes.
func (r *AccountRepository) Update(ctx context.Context, account *domain.CustomerAccount) error {
	query := `
		UPDATE customer_accounts
		SET current_balance = $2, status = $3, updated_at = $4, last_activity_at = $5
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		account.ID,
		account.Balance,
		string(account.Status),
		account.UpdatedAt,
		account.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Upsert creates an account or refreshes its profile and limits by ID.
// An existing balance and activity timestamp are kept.
func (r *AccountRepository) Upsert(ctx context.Context, account *domain.CustomerAccount) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	query := `
		INSERT INTO customer_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW(), $11)
		ON CONFLICT (id) DO UPDATE SET
			account_number = EXCLUDED.account_number,
			customer_id = EXCLUDED.customer_id,
			bank_code = EXCLUDED.bank_code,
			account_type = EXCLUDED.account_type,
			status = EXCLUDED.status,
			overdraft_limit = EXCLUDED.overdraft_limit,
			daily_limit = EXCLUDED.daily_limit,
			currency = EXCLUDED.currency,
			updated_at = NOW()
	`

	_, err := r.q.Exec(ctx, query,
		account.ID,
		account.AccountNumber,
		account.CustomerID,
		account.BankCode,
		string(account.Type),
		string(account.Status),
		account.Balance,
		account.OverdraftLimit,
		account.DailyLimit,
		account.Currency,
		account.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}
