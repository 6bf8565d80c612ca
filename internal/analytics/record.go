package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/events"
)

// TransactionRecord is one completed purchase attempt as stored for reporting.
type TransactionRecord struct {
	EventID                string
	TransactionID          string
	PaymentID              string
	AccountID              string
	MerchantID             string
	IssuerBankCode         string
	AcquirerBankCode       string
	Amount                 decimal.Decimal
	Currency               string
	SagaState              string
	FinalStatus            string
	IssuerResponseCode     string
	AcquirerResponseCode   string
	IssuerResponseTimeMs   uint32
	AcquirerResponseTimeMs uint32
	TotalProcessingTimeMs  uint32
	DeclineReason          string
	CompletedAt            time.Time
}

// AcquirerStats aggregates completed attempts routed to one acquirer.
type AcquirerStats struct {
	AcquirerBankCode string
	Transactions     uint64
	Captured         uint64
	CapturedVolume   decimal.Decimal
	AvgProcessingMs  float64
}

// CaptureRate is the share of attempts that ended captured.
func (s AcquirerStats) CaptureRate() float64 {
	if s.Transactions == 0 {
		return 0
	}
	return float64(s.Captured) / float64(s.Transactions)
}

// RecordFromEvent validates a completion event and converts it to a record.
func RecordFromEvent(event *events.NetworkTransactionCompletedEvent) (*TransactionRecord, error) {
	if event.EventType != events.EventTypeNetworkTransactionCompleted {
		return nil, fmt.Errorf("unexpected event type: %s", event.EventType)
	}
	if event.TransactionID == "" {
		return nil, errors.New("transaction ID is required")
	}
	if event.PaymentID == "" {
		return nil, errors.New("payment ID is required")
	}
	if event.Amount.CurrencyCode == "" {
		return nil, errors.New("currency code is required")
	}

	amount, err := decimal.NewFromString(event.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", event.Amount.Value, err)
	}

	completedAt, err := time.Parse(time.RFC3339Nano, event.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse completedAt: %w", err)
	}

	return &TransactionRecord{
		EventID:                event.EventID,
		TransactionID:          event.TransactionID,
		PaymentID:              event.PaymentID,
		AccountID:              event.AccountID,
		MerchantID:             event.MerchantID,
		IssuerBankCode:         event.IssuerBankCode,
		AcquirerBankCode:       event.AcquirerBankCode,
		Amount:                 amount,
		Currency:               event.Amount.CurrencyCode,
		SagaState:              event.SagaState,
		FinalStatus:            event.FinalStatus,
		IssuerResponseCode:     event.IssuerResponseCode,
		AcquirerResponseCode:   event.AcquirerResponseCode,
		IssuerResponseTimeMs:   nonNegative(event.IssuerResponseTimeMs),
		AcquirerResponseTimeMs: nonNegative(event.AcquirerResponseTimeMs),
		TotalProcessingTimeMs:  nonNegative(event.TotalProcessingTimeMs),
		DeclineReason:          event.DeclineReason,
		CompletedAt:            completedAt,
	}, nil
}

func nonNegative(ms int) uint32 {
	if ms < 0 {
		return 0
	}
	return uint32(ms)
}
