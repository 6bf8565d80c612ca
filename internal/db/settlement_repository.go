package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// SettlementRepository implements domain.SettlementRepository using PostgreSQL.
type SettlementRepository struct {
	q querier
}

// Create stores a new settlement. References are unique.
func (r *SettlementRepository) Create(ctx context.Context, settlement *domain.Settlement) error {
	if settlement.ID == uuid.Nil {
		settlement.ID = uuid.New()
	}

	query := `
		INSERT INTO settlements (
			id, settlement_reference, merchant_account_id, payment_id,
			gross_amount, fee_amount, net_amount, status, created_at, reversed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.Exec(ctx, query,
		settlement.ID,
		settlement.Reference,
		settlement.MerchantAccountID,
		settlement.PaymentID,
		settlement.Gross,
		settlement.Fee,
		settlement.Net,
		string(settlement.Status),
		settlement.CreatedAt,
		settlement.ReversedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("settlement reference %s already exists: %w", settlement.Reference, err)
		}
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

const selectSettlement = `
	SELECT id, settlement_reference, merchant_account_id, payment_id,
		gross_amount, fee_amount, net_amount, status, created_at, reversed_at
	FROM settlements
	WHERE settlement_reference = $1
`

// GetByReference returns the settlement with the given reference.
func (r *SettlementRepository) GetByReference(ctx context.Context, reference string) (*domain.Settlement, error) {
	return r.get(ctx, selectSettlement, reference)
}

// Lock returns the settlement and holds its row with FOR UPDATE until the
// transaction ends.
func (r *SettlementRepository) Lock(ctx context.Context, reference string) (*domain.Settlement, error) {
	return r.get(ctx, selectSettlement+` FOR UPDATE`, reference)
}

func (r *SettlementRepository) get(ctx context.Context, query, reference string) (*domain.Settlement, error) {
	var settlement domain.Settlement
	err := r.q.QueryRow(ctx, query, reference).Scan(
		&settlement.ID,
		&settlement.Reference,
		&settlement.MerchantAccountID,
		&settlement.PaymentID,
		&settlement.Gross,
		&settlement.Fee,
		&settlement.Net,
		&settlement.Status,
		&settlement.CreatedAt,
		&settlement.ReversedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return &settlement, nil
}

// Update persists status changes of a settlement.
func (r *SettlementRepository) Update(ctx context.Context, settlement *domain.Settlement) error {
	query := `UPDATE settlements SET status = $2, reversed_at = $3 WHERE id = $1`

	result, err := r.q.Exec(ctx, query, settlement.ID, string(settlement.Status), settlement.ReversedAt)
	if err != nil {
		return fmt.Errorf("failed to update settlement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrSettlementNotFound
	}
	return nil
}

// SumGross totals non-reversed gross amounts of the merchant account created in [from, to).
func (r *SettlementRepository) SumGross(ctx context.Context, merchantAccountID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(gross_amount), 0)
		FROM settlements
		WHERE merchant_account_id = $1 AND status <> 'reversed' AND created_at >= $2 AND created_at < $3
	`

	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, merchantAccountID, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum settlements: %w", err)
	}
	return total, nil
}
