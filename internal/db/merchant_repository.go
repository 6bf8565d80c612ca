package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

const merchantColumns = `
	id, merchant_id, acquirer_bank_code, currency, account_number, business_name,
	business_type, mcc_code, current_balance, reserved_balance, monthly_volume_limit,
	daily_volume_limit, risk_level, settlement_frequency, status, created_at, updated_at
`

// MerchantRepository implements domain.MerchantRepository using PostgreSQL.
type MerchantRepository struct {
	q querier
}

func scanMerchant(row pgx.Row) (*domain.MerchantAccount, error) {
	var account domain.MerchantAccount
	err := row.Scan(
		&account.ID,
		&account.MerchantID,
		&account.AcquirerBankCode,
		&account.Currency,
		&account.AccountNumber,
		&account.BusinessName,
		&account.BusinessType,
		&account.MCC,
		&account.Balance,
		&account.ReservedBalance,
		&account.MonthlyVolumeLimit,
		&account.DailyVolumeLimit,
		&account.RiskLevel,
		&account.SettlementFrequency,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindActive returns an active merchant account for the merchant in currency.
// An empty acquirerBankCode matches any acquirer; the smallest code wins.
func (r *MerchantRepository) FindActive(ctx context.Context, merchantID, currency, acquirerBankCode string) (*domain.MerchantAccount, error) {
	query := `
		SELECT ` + merchantColumns + `
		FROM merchant_accounts
		WHERE merchant_id = $1 AND currency = $2 AND status = 'active'
			AND ($3 = '' OR acquirer_bank_code = $3)
		ORDER BY acquirer_bank_code
		LIMIT 1
	`

	account, err := scanMerchant(r.q.QueryRow(ctx, query, merchantID, currency, acquirerBankCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMerchantAccountNotFound
		}
		return nil, fmt.Errorf("failed to find merchant account: %w", err)
	}
	return account, nil
}

// Lock acquires a row-level lock on the merchant account (SELECT ... FOR UPDATE).
// This must be called within a transaction.
func (r *MerchantRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.MerchantAccount, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchant_accounts WHERE id = $1 FOR UPDATE`

	account, err := scanMerchant(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMerchantAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock merchant account: %w", err)
	}
	return account, nil
}

// Update persists balance changes of an existing merchant account.
func (r *MerchantRepository) Update(ctx context.Context, account *domain.MerchantAccount) error {
	query := `
		UPDATE merchant_accounts
		SET current_balance = $2, reserved_balance = $3, status = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		account.ID,
		account.Balance,
		account.ReservedBalance,
		string(account.Status),
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update merchant account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrMerchantAccountNotFound
	}
	return nil
}

// Upsert creates or refreshes a merchant account by
// (merchant id, acquirer bank code, currency) and stores the resulting id.
// Balances of an existing account are kept.
func (r *MerchantRepository) Upsert(ctx context.Context, account *domain.MerchantAccount) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	query := `
		INSERT INTO merchant_accounts (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		ON CONFLICT (merchant_id, acquirer_bank_code, currency) DO UPDATE SET
			account_number = EXCLUDED.account_number,
			business_name = EXCLUDED.business_name,
			business_type = EXCLUDED.business_type,
			mcc_code = EXCLUDED.mcc_code,
			monthly_volume_limit = EXCLUDED.monthly_volume_limit,
			daily_volume_limit = EXCLUDED.daily_volume_limit,
			risk_level = EXCLUDED.risk_level,
			settlement_frequency = EXCLUDED.settlement_frequency,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		account.ID,
		account.MerchantID,
		account.AcquirerBankCode,
		account.Currency,
		account.AccountNumber,
		account.BusinessName,
		account.BusinessType,
		account.MCC,
		account.Balance,
		account.ReservedBalance,
		account.MonthlyVolumeLimit,
		account.DailyVolumeLimit,
		account.RiskLevel,
		account.SettlementFrequency,
		string(account.Status),
	).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert merchant account: %w", err)
	}
	return nil
}
