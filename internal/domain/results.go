package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRequest is a purchase routed through the network.
type PurchaseRequest struct {
	PaymentID  string          // Caller-assigned payment identifier
	AccountID  uuid.UUID       // Customer account at the issuer
	MerchantID string          // Merchant being paid
	Amount     decimal.Decimal // Purchase amount
	Currency   string          // ISO 4217 currency of the purchase

	// AcquirerBankCode pins routing to one acquirer. Empty means the
	// AcquirerSelector chooses.
	AcquirerBankCode string
}

// AuthorizeRequest asks an issuer to approve a purchase against a customer
// account. Authorization never moves funds.
type AuthorizeRequest struct {
	AccountID  uuid.UUID
	Amount     decimal.Decimal
	PaymentID  string
	MerchantID string
}

// CaptureRequest asks an issuer to debit a previously authorized amount.
type CaptureRequest struct {
	AccountID         uuid.UUID
	Amount            decimal.Decimal
	AuthorizationCode string
	PaymentID         string
}

// SettleRequest asks an acquirer to credit a merchant.
type SettleRequest struct {
	PaymentID        string
	MerchantID       string
	Amount           decimal.Decimal
	Currency         string
	AcquirerBankCode string
}

// AuthResult is the issuer's answer to an authorization request.
type AuthResult struct {
	Approved          bool
	ResponseCode      ResponseCode
	DeclineReason     string
	ResponseTimeMs    int
	BankCode          string
	AuthorizationCode string
	AvailableBalance  *decimal.Decimal // Projected effective balance after capture (approved only)
}

// FeeBreakdown itemizes the acquirer's processing fee.
type FeeBreakdown struct {
	PerTransactionFee decimal.Decimal
	PercentageFee     decimal.Decimal
	TotalFee          decimal.Decimal
	NetAmount         decimal.Decimal
}

// SettleResult is the acquirer's answer to a settlement request.
type SettleResult struct {
	Approved         bool
	ResponseCode     ResponseCode
	DeclineReason    string
	ResponseTimeMs   int
	AcquirerBankCode string
	SettlementID     string
	Fees             *FeeBreakdown
	MerchantBalance  *decimal.Decimal
}

// CaptureResult is the outcome of debiting the customer after settlement.
type CaptureResult struct {
	Success    bool
	EntryID    uuid.UUID
	NewBalance decimal.Decimal
	Error      string
}

// NetworkResult is the final outcome of a routed purchase.
type NetworkResult struct {
	Success           bool
	ResponseCode      ResponseCode
	DeclineReason     string
	AuthorizationCode string
	SettlementID      string
	Fees              *FeeBreakdown
	RoutingReason     string
	Transaction       *NetworkTransaction // Audit record; nil only if it could not be created
}
