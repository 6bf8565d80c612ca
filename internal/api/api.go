// Package api defines the request and response documents shared by the gRPC
// and HTTP transports. Field names are snake_case on the wire.
package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// AuthorizeRequest asks the issuer to approve a purchase.
type AuthorizeRequest struct {
	PaymentID  string          `json:"payment_id"`
	AccountID  string          `json:"account_id"`
	MerchantID string          `json:"merchant_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// SettleRequest asks an acquirer to credit a merchant.
type SettleRequest struct {
	PaymentID        string          `json:"payment_id"`
	MerchantID       string          `json:"merchant_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	AcquirerBankCode string          `json:"acquirer_bank_code"`
}

// PurchaseRequest routes a purchase through the whole network.
type PurchaseRequest struct {
	PaymentID        string          `json:"payment_id"`
	AccountID        string          `json:"account_id"`
	MerchantID       string          `json:"merchant_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	AcquirerBankCode string          `json:"acquirer_bank_code,omitempty"`
}

// AuthorizeResponse is the issuer's answer.
type AuthorizeResponse struct {
	Success           bool             `json:"success"`
	ResponseCode      string           `json:"response_code"`
	DeclineReason     string           `json:"decline_reason"`
	ResponseTimeMs    int              `json:"response_time_ms"`
	BankCode          string           `json:"bank_code"`
	AuthorizationCode string           `json:"authorization_code,omitempty"`
	AvailableBalance  *decimal.Decimal `json:"available_balance,omitempty"`
}

// Fees itemizes the acquirer fee.
type Fees struct {
	PerTransactionFee decimal.Decimal `json:"per_transaction_fee"`
	PercentageFee     decimal.Decimal `json:"percentage_fee"`
	TotalFee          decimal.Decimal `json:"total_fee"`
	NetAmount         decimal.Decimal `json:"net_amount"`
}

// SettleResponse is the acquirer's answer.
type SettleResponse struct {
	Success          bool             `json:"success"`
	ResponseCode     string           `json:"response_code"`
	DeclineReason    string           `json:"decline_reason"`
	ResponseTimeMs   int              `json:"response_time_ms"`
	AcquirerBankCode string           `json:"acquirer_bank_code"`
	SettlementID     string           `json:"settlement_id,omitempty"`
	Fees             *Fees            `json:"fees,omitempty"`
	MerchantBalance  *decimal.Decimal `json:"merchant_balance,omitempty"`
}

// PurchaseResponse is the outcome of a routed purchase.
type PurchaseResponse struct {
	Success                bool                `json:"success"`
	ResponseCode           string              `json:"response_code"`
	DeclineReason          string              `json:"decline_reason"`
	AuthorizationCode      string              `json:"authorization_code,omitempty"`
	SettlementID           string              `json:"settlement_id,omitempty"`
	RoutingReason          string              `json:"routing_reason"`
	IssuerResponseTimeMs   int                 `json:"issuer_response_time_ms"`
	AcquirerResponseTimeMs int                 `json:"acquirer_response_time_ms"`
	TotalProcessingTimeMs  int                 `json:"total_processing_time_ms"`
	Fees                   *Fees               `json:"fees,omitempty"`
	Transaction            *NetworkTransaction `json:"transaction,omitempty"`
}

// NetworkTransaction is the audit record of one purchase attempt.
type NetworkTransaction struct {
	ID                     string          `json:"id"`
	PaymentID              string          `json:"payment_id"`
	AccountID              string          `json:"account_id"`
	MerchantID             string          `json:"merchant_id"`
	IssuerBankCode         string          `json:"issuer_bank_code"`
	AcquirerBankCode       string          `json:"acquirer_bank_code"`
	Amount                 decimal.Decimal `json:"amount"`
	Currency               string          `json:"currency"`
	SagaState              string          `json:"saga_state"`
	IssuerStatus           string          `json:"issuer_status"`
	AcquirerStatus         string          `json:"acquirer_status"`
	FinalStatus            string          `json:"final_status"`
	IssuerResponseCode     string          `json:"issuer_response_code"`
	AcquirerResponseCode   string          `json:"acquirer_response_code"`
	IssuerResponseTimeMs   int             `json:"issuer_response_time_ms"`
	AcquirerResponseTimeMs int             `json:"acquirer_response_time_ms"`
	TotalProcessingTimeMs  int             `json:"total_processing_time_ms"`
	AuthorizationCode      string          `json:"authorization_code,omitempty"`
	SettlementID           string          `json:"settlement_id,omitempty"`
	DeclineReason          string          `json:"decline_reason,omitempty"`
	CreatedAt              string          `json:"created_at"`
	CompletedAt            string          `json:"completed_at,omitempty"`
}

// Settlement is a merchant settlement record.
type Settlement struct {
	SettlementID string          `json:"settlement_id"`
	PaymentID    string          `json:"payment_id"`
	Gross        decimal.Decimal `json:"gross_amount"`
	Fee          decimal.Decimal `json:"fee_amount"`
	Net          decimal.Decimal `json:"net_amount"`
	Status       string          `json:"status"`
	ReversedAt   string          `json:"reversed_at,omitempty"`
}

// LedgerEntry is one balance change of a customer account.
type LedgerEntry struct {
	ID            string          `json:"id"`
	Type          string          `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceID   string          `json:"reference_id"`
	ReferenceType string          `json:"reference_type"`
	Description   string          `json:"description"`
	CreatedAt     string          `json:"created_at"`
}

// LedgerResponse is a page of an account's ledger, newest first.
type LedgerResponse struct {
	AccountID string        `json:"account_id"`
	Entries   []LedgerEntry `json:"entries"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToDomain converts the request, rejecting malformed identifiers.
func (r AuthorizeRequest) ToDomain() (domain.AuthorizeRequest, error) {
	accountID, err := parseAccountID(r.AccountID)
	if err != nil {
		return domain.AuthorizeRequest{}, err
	}
	return domain.AuthorizeRequest{
		AccountID:  accountID,
		Amount:     r.Amount,
		PaymentID:  r.PaymentID,
		MerchantID: r.MerchantID,
	}, nil
}

// ToDomain converts the request.
func (r SettleRequest) ToDomain() domain.SettleRequest {
	return domain.SettleRequest{
		PaymentID:        r.PaymentID,
		MerchantID:       r.MerchantID,
		Amount:           r.Amount,
		Currency:         r.Currency,
		AcquirerBankCode: r.AcquirerBankCode,
	}
}

// ToDomain converts the request, rejecting malformed identifiers.
func (r PurchaseRequest) ToDomain() (domain.PurchaseRequest, error) {
	accountID, err := parseAccountID(r.AccountID)
	if err != nil {
		return domain.PurchaseRequest{}, err
	}
	return domain.PurchaseRequest{
		PaymentID:        r.PaymentID,
		AccountID:        accountID,
		MerchantID:       r.MerchantID,
		Amount:           r.Amount,
		Currency:         r.Currency,
		AcquirerBankCode: r.AcquirerBankCode,
	}, nil
}

func parseAccountID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%w: account_id is required", domain.ErrInvalidRequest)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid account_id: %v", domain.ErrInvalidRequest, err)
	}
	return id, nil
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrInvalidAmount)
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrNetworkTransactionNotFound) ||
		errors.Is(err, domain.ErrSettlementNotFound)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
