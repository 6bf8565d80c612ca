package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

const bankColumns = `
	bank_code, bank_name, bank_type, bank_tier, base_response_time_ms, success_rate,
	per_transaction_fee, percentage_fee, single_transaction_limit, daily_transaction_limit,
	supported_currencies, country_code, business_hours_start, business_hours_end,
	supports_24_7, fraud_detection_level, requires_3ds, is_active, created_at, updated_at
`

// BankRepository implements domain.BankRepository using PostgreSQL.
type BankRepository struct {
	q querier
}

func scanBank(row pgx.Row) (*domain.BankConfig, error) {
	var bank domain.BankConfig
	err := row.Scan(
		&bank.Code,
		&bank.Name,
		&bank.Role,
		&bank.Tier,
		&bank.BaseLatencyMs,
		&bank.SuccessProbability,
		&bank.PerTransactionFee,
		&bank.PercentageFee,
		&bank.SingleTransactionLimit,
		&bank.DailyTransactionLimit,
		&bank.SupportedCurrencies,
		&bank.CountryCode,
		&bank.BusinessHoursStart,
		&bank.BusinessHoursEnd,
		&bank.Supports247,
		&bank.FraudLevel,
		&bank.Requires3DS,
		&bank.Active,
		&bank.CreatedAt,
		&bank.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

// GetActiveByCode retrieves an active bank configuration by its code.
func (r *BankRepository) GetActiveByCode(ctx context.Context, code string) (*domain.BankConfig, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_configurations WHERE bank_code = $1 AND is_active`

	bank, err := scanBank(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBankNotFound
		}
		return nil, fmt.Errorf("failed to get bank: %w", err)
	}
	return bank, nil
}

// ListActive returns every active bank ordered by code.
func (r *BankRepository) ListActive(ctx context.Context) ([]*domain.BankConfig, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_configurations WHERE is_active ORDER BY bank_code`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	defer rows.Close()

	var banks []*domain.BankConfig
	for rows.Next() {
		bank, err := scanBank(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank: %w", err)
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	return banks, nil
}

// Upsert creates or replaces a bank configuration.
func (r *BankRepository) Upsert(ctx context.Context, bank *domain.BankConfig) error {
	query := `
		INSERT INTO bank_configurations (` + bankColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		ON CONFLICT (bank_code) DO UPDATE SET
			bank_name = EXCLUDED.bank_name,
			bank_type = EXCLUDED.bank_type,
			bank_tier = EXCLUDED.bank_tier,
			base_response_time_ms = EXCLUDED.base_response_time_ms,
			success_rate = EXCLUDED.success_rate,
			per_transaction_fee = EXCLUDED.per_transaction_fee,
			percentage_fee = EXCLUDED.percentage_fee,
			single_transaction_limit = EXCLUDED.single_transaction_limit,
			daily_transaction_limit = EXCLUDED.daily_transaction_limit,
			supported_currencies = EXCLUDED.supported_currencies,
			country_code = EXCLUDED.country_code,
			business_hours_start = EXCLUDED.business_hours_start,
			business_hours_end = EXCLUDED.business_hours_end,
			supports_24_7 = EXCLUDED.supports_24_7,
			fraud_detection_level = EXCLUDED.fraud_detection_level,
			requires_3ds = EXCLUDED.requires_3ds,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	_, err := r.q.Exec(ctx, query,
		bank.Code,
		bank.Name,
		string(bank.Role),
		int(bank.Tier),
		bank.BaseLatencyMs,
		bank.SuccessProbability,
		bank.PerTransactionFee,
		bank.PercentageFee,
		bank.SingleTransactionLimit,
		bank.DailyTransactionLimit,
		bank.SupportedCurrencies,
		bank.CountryCode,
		bank.BusinessHoursStart,
		bank.BusinessHoursEnd,
		bank.Supports247,
		string(bank.FraudLevel),
		bank.Requires3DS,
		bank.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert bank %s: %w", bank.Code, err)
	}
	return nil
}
