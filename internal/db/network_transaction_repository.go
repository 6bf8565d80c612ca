package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// NetworkTransactionRepository implements domain.NetworkTransactionRepository
// using PostgreSQL.
type NetworkTransactionRepository struct {
	q querier
}

// Create persists a new routing record.
func (r *NetworkTransactionRepository) Create(ctx context.Context, txn *domain.NetworkTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	query := `
		INSERT INTO network_transactions (
			id, payment_id, customer_account_id, merchant_id, issuer_bank_code,
			acquirer_bank_code, amount, currency, transaction_type, saga_state,
			issuer_status, acquirer_status, final_status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.Exec(ctx, query,
		txn.ID,
		txn.PaymentID,
		txn.CustomerAccountID,
		txn.MerchantID,
		txn.IssuerBankCode,
		txn.AcquirerBankCode,
		txn.Amount,
		txn.Currency,
		txn.TransactionType,
		string(txn.State),
		string(txn.IssuerStatus),
		string(txn.AcquirerStatus),
		string(txn.FinalStatus),
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create network transaction: %w", err)
	}
	return nil
}

// Update persists the mutable stage fields of an existing record.
func (r *NetworkTransactionRepository) Update(ctx context.Context, txn *domain.NetworkTransaction) error {
	query := `
		UPDATE network_transactions SET
			acquirer_bank_code = $2,
			saga_state = $3,
			issuer_status = $4,
			acquirer_status = $5,
			final_status = $6,
			issuer_response_code = $7,
			acquirer_response_code = $8,
			issuer_response_time_ms = $9,
			acquirer_response_time_ms = $10,
			total_processing_time_ms = $11,
			authorization_code = $12,
			settlement_id = $13,
			decline_reason = $14,
			issuer_processed_at = $15,
			acquirer_processed_at = $16,
			captured_at = $17,
			completed_at = $18
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		txn.ID,
		txn.AcquirerBankCode,
		string(txn.State),
		string(txn.IssuerStatus),
		string(txn.AcquirerStatus),
		string(txn.FinalStatus),
		string(txn.IssuerResponseCode),
		string(txn.AcquirerResponseCode),
		txn.IssuerResponseTimeMs,
		txn.AcquirerResponseTimeMs,
		txn.TotalProcessingTimeMs,
		txn.AuthorizationCode,
		txn.SettlementID,
		txn.DeclineReason,
		txn.IssuerProcessedAt,
		txn.AcquirerProcessedAt,
		txn.CapturedAt,
		txn.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update network transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNetworkTransactionNotFound
	}
	return nil
}

// GetLatestByPaymentID returns the most recent attempt for a payment.
func (r *NetworkTransactionRepository) GetLatestByPaymentID(ctx context.Context, paymentID string) (*domain.NetworkTransaction, error) {
	query := `
		SELECT id, payment_id, customer_account_id, merchant_id, issuer_bank_code,
			acquirer_bank_code, amount, currency, transaction_type, saga_state,
			issuer_status, acquirer_status, final_status, issuer_response_code,
			acquirer_response_code, issuer_response_time_ms, acquirer_response_time_ms,
			total_processing_time_ms, authorization_code, settlement_id, decline_reason,
			created_at, issuer_processed_at, acquirer_processed_at, captured_at, completed_at
		FROM network_transactions
		WHERE payment_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var txn domain.NetworkTransaction
	err := r.q.QueryRow(ctx, query, paymentID).Scan(
		&txn.ID,
		&txn.PaymentID,
		&txn.CustomerAccountID,
		&txn.MerchantID,
		&txn.IssuerBankCode,
		&txn.AcquirerBankCode,
		&txn.Amount,
		&txn.Currency,
		&txn.TransactionType,
		&txn.State,
		&txn.IssuerStatus,
		&txn.AcquirerStatus,
		&txn.FinalStatus,
		&txn.IssuerResponseCode,
		&txn.AcquirerResponseCode,
		&txn.IssuerResponseTimeMs,
		&txn.AcquirerResponseTimeMs,
		&txn.TotalProcessingTimeMs,
		&txn.AuthorizationCode,
		&txn.SettlementID,
		&txn.DeclineReason,
		&txn.CreatedAt,
		&txn.IssuerProcessedAt,
		&txn.AcquirerProcessedAt,
		&txn.CapturedAt,
		&txn.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNetworkTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get network transaction: %w", err)
	}
	return &txn, nil
}
