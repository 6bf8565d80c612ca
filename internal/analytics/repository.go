package analytics

import (
	"context"
	"fmt"
	"time"
)

const createTransactionsTable = `
	CREATE TABLE IF NOT EXISTS network_transactions (
		event_id String,
		transaction_id String,
		payment_id String,
		account_id String,
		merchant_id String,
		issuer_bank_code LowCardinality(String),
		acquirer_bank_code LowCardinality(String),
		amount Decimal(18, 2),
		currency LowCardinality(String),
		saga_state LowCardinality(String),
		final_status LowCardinality(String),
		issuer_response_code String,
		acquirer_response_code String,
		issuer_response_time_ms UInt32,
		acquirer_response_time_ms UInt32,
		total_processing_time_ms UInt32,
		decline_reason String,
		completed_at DateTime64(3),
		ingested_at DateTime DEFAULT now()
	) ENGINE = MergeTree()
	ORDER BY (acquirer_bank_code, completed_at)
`

// TransactionRepository stores completed network transactions in ClickHouse
type TransactionRepository struct {
	db *ClickHouseClient
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *ClickHouseClient) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// EnsureSchema creates the reporting table if it does not exist.
func (r *TransactionRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Conn().Exec(ctx, createTransactionsTable); err != nil {
		return fmt.Errorf("failed to create network_transactions table: %w", err)
	}
	return nil
}

// Insert stores one completed transaction.
func (r *TransactionRepository) Insert(ctx context.Context, rec *TransactionRecord) error {
	query := `
		INSERT INTO network_transactions (
			event_id, transaction_id, payment_id, account_id, merchant_id,
			issuer_bank_code, acquirer_bank_code, amount, currency, saga_state,
			final_status, issuer_response_code, acquirer_response_code,
			issuer_response_time_ms, acquirer_response_time_ms, total_processing_time_ms,
			decline_reason, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.Conn().Exec(ctx, query,
		rec.EventID,
		rec.TransactionID,
		rec.PaymentID,
		rec.AccountID,
		rec.MerchantID,
		rec.IssuerBankCode,
		rec.AcquirerBankCode,
		rec.Amount,
		rec.Currency,
		rec.SagaState,
		rec.FinalStatus,
		rec.IssuerResponseCode,
		rec.AcquirerResponseCode,
		rec.IssuerResponseTimeMs,
		rec.AcquirerResponseTimeMs,
		rec.TotalProcessingTimeMs,
		rec.DeclineReason,
		rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", rec.TransactionID, err)
	}
	return nil
}

// AcquirerSummary aggregates transactions completed in [from, to) per acquirer.
func (r *TransactionRepository) AcquirerSummary(ctx context.Context, from, to time.Time) ([]AcquirerStats, error) {
	query := `
		SELECT
			acquirer_bank_code,
			count() AS transactions,
			countIf(final_status = 'captured') AS captured,
			sumIf(amount, final_status = 'captured') AS captured_volume,
			avg(total_processing_time_ms) AS avg_processing_ms
		FROM network_transactions
		WHERE completed_at >= ? AND completed_at < ?
		GROUP BY acquirer_bank_code
		ORDER BY acquirer_bank_code
	`

	rows, err := r.db.Conn().Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query acquirer summary: %w", err)
	}
	defer rows.Close()

	var stats []AcquirerStats
	for rows.Next() {
		var s AcquirerStats
		if err := rows.Scan(&s.AcquirerBankCode, &s.Transactions, &s.Captured, &s.CapturedVolume, &s.AvgProcessingMs); err != nil {
			return nil, fmt.Errorf("failed to scan acquirer summary row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating acquirer summary rows: %w", err)
	}
	return stats, nil
}
