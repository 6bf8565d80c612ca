package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// EventTypeNetworkTransactionCompleted is the eventType of completion events.
const EventTypeNetworkTransactionCompleted = "network_transaction.completed"

// Amount is a monetary amount with currency
type Amount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currencyCode"`
}

// NetworkTransactionCompletedEvent is published once per purchase attempt
// after its routing record reaches a terminal state.
type NetworkTransactionCompletedEvent struct {
	EventID                string `json:"eventId"`
	EventType              string `json:"eventType"`
	EventTimestamp         string `json:"eventTimestamp"`
	TransactionID          string `json:"transactionId"`
	PaymentID              string `json:"paymentId"`
	AccountID              string `json:"accountId"`
	MerchantID             string `json:"merchantId"`
	IssuerBankCode         string `json:"issuerBankCode"`
	AcquirerBankCode       string `json:"acquirerBankCode"`
	Amount                 Amount `json:"amount"`
	SagaState              string `json:"sagaState"`
	FinalStatus            string `json:"finalStatus"`
	IssuerResponseCode     string `json:"issuerResponseCode"`
	AcquirerResponseCode   string `json:"acquirerResponseCode"`
	IssuerResponseTimeMs   int    `json:"issuerResponseTimeMs"`
	AcquirerResponseTimeMs int    `json:"acquirerResponseTimeMs"`
	TotalProcessingTimeMs  int    `json:"totalProcessingTimeMs"`
	AuthorizationCode      string `json:"authorizationCode,omitempty"`
	SettlementID           string `json:"settlementId,omitempty"`
	DeclineReason          string `json:"declineReason,omitempty"`
	CompletedAt            string `json:"completedAt"`
}

// NewNetworkTransactionCompletedEvent builds the event payload for txn.
func NewNetworkTransactionCompletedEvent(txn *domain.NetworkTransaction, now time.Time) NetworkTransactionCompletedEvent {
	completedAt := now
	if txn.CompletedAt != nil {
		completedAt = *txn.CompletedAt
	}

	return NetworkTransactionCompletedEvent{
		EventID:                uuid.New().String(),
		EventType:              EventTypeNetworkTransactionCompleted,
		EventTimestamp:         now.UTC().Format(time.RFC3339),
		TransactionID:          txn.ID.String(),
		PaymentID:              txn.PaymentID,
		AccountID:              txn.CustomerAccountID.String(),
		MerchantID:             txn.MerchantID,
		IssuerBankCode:         txn.IssuerBankCode,
		AcquirerBankCode:       txn.AcquirerBankCode,
		Amount:                 Amount{Value: txn.Amount.StringFixed(2), CurrencyCode: txn.Currency},
		SagaState:              string(txn.State),
		FinalStatus:            string(txn.FinalStatus),
		IssuerResponseCode:     string(txn.IssuerResponseCode),
		AcquirerResponseCode:   string(txn.AcquirerResponseCode),
		IssuerResponseTimeMs:   txn.IssuerResponseTimeMs,
		AcquirerResponseTimeMs: txn.AcquirerResponseTimeMs,
		TotalProcessingTimeMs:  txn.TotalProcessingTimeMs,
		AuthorizationCode:      txn.AuthorizationCode,
		SettlementID:           txn.SettlementID,
		DeclineReason:          txn.DeclineReason,
		CompletedAt:            completedAt.UTC().Format(time.RFC3339Nano),
	}
}
