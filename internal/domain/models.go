package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankRole describes which side of a card transaction a bank can serve.
type BankRole string

const (
	BankRoleIssuer   BankRole = "issuer"   // Holds customer accounts
	BankRoleAcquirer BankRole = "acquirer" // Holds merchant accounts
	BankRoleDual     BankRole = "dual"     // Both issuer and acquirer
)

// CanAcquire reports whether the role allows settling merchant funds.
func (r BankRole) CanAcquire() bool {
	return r == BankRoleAcquirer || r == BankRoleDual
}

// BankTier classifies banks by size; it drives response-time jitter.
type BankTier int

const (
	BankTier1 BankTier = 1 // Large national banks
	BankTier2 BankTier = 2 // Regional banks
	BankTier3 BankTier = 3 // Community banks
)

// FraudLevel is the strictness of a bank's simulated fraud screening.
type FraudLevel string

const (
	FraudLevelLow    FraudLevel = "low"
	FraudLevelMedium FraudLevel = "medium"
	FraudLevelHigh   FraudLevel = "high"
)

// BankConfig holds the simulated characteristics of a bank in the network.
// It is written by the network bootstrap and read-only during processing.
type BankConfig struct {
	Code                   string          // Unique bank code (e.g. "CHASE")
	Name                   string          // Display name
	Role                   BankRole        // issuer, acquirer or dual
	Tier                   BankTier        // 1, 2 or 3
	BaseLatencyMs          int             // Base response time in milliseconds
	SuccessProbability     float64         // Probability in [0, 1] that a request succeeds
	PerTransactionFee      decimal.Decimal // Flat fee charged per transaction
	PercentageFee          decimal.Decimal // Fee in percent of the amount (2.5 means 2.5%)
	SingleTransactionLimit decimal.Decimal // Maximum amount of a single transaction
	DailyTransactionLimit  decimal.Decimal // Maximum daily volume
	SupportedCurrencies    []string        // ISO 4217 codes
	CountryCode            string          // ISO 3166 alpha-2
	BusinessHoursStart     int             // Hour of day the bank opens
	BusinessHoursEnd       int             // Hour of day the bank closes
	Supports247            bool            // Bank answers at full speed around the clock
	FraudLevel             FraudLevel      // low, medium or high
	Requires3DS            bool            // Carried for reporting only
	Active                 bool            // Inactive banks are invisible to the directory
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// SupportsCurrency reports whether the bank handles the given currency.
func (b *BankConfig) SupportsCurrency(currency string) bool {
	return slices.Contains(b.SupportedCurrencies, currency)
}

// OutsideBusinessHours reports whether the bank is closed at t and does not
// operate around the clock.
func (b *BankConfig) OutsideBusinessHours(t time.Time) bool {
	if b.Supports247 {
		return false
	}
	hour := t.Hour()
	return hour < b.BusinessHoursStart || hour > b.BusinessHoursEnd
}

// ProcessingFee returns per-transaction fee + amount * percentage fee / 100.
func (b *BankConfig) ProcessingFee(amount decimal.Decimal) decimal.Decimal {
	return b.PerTransactionFee.Add(amount.Mul(b.PercentageFee).Div(decimal.NewFromInt(100)))
}

// AccountType is the product type of a customer account.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCredit   AccountType = "credit"
)

// AccountStatus is the lifecycle state of a customer account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusFrozen    AccountStatus = "frozen"
	AccountStatusClosed    AccountStatus = "closed"
	AccountStatusSuspended AccountStatus = "suspended"
)

// CustomerAccount is a customer's account at an issuer bank.
// Balances change only through the AccountLedger.
type CustomerAccount struct {
	ID             uuid.UUID       // Unique identifier of the account
	AccountNumber  string          // Human-facing account number
	CustomerID     string          // Owning customer
	BankCode       string          // Issuer bank holding the account
	Type           AccountType     // checking, savings or credit
	Status         AccountStatus   // active, frozen, closed or suspended
	Balance        decimal.Decimal // Current balance
	OverdraftLimit decimal.Decimal // Additional spendable amount below zero
	DailyLimit     decimal.Decimal // Maximum total debits per day
	Currency       string          // ISO 4217 currency of the account
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt *time.Time // Last debit or credit (nullable)
}

// EffectiveBalance is the spendable balance including overdraft.
func (a *CustomerAccount) EffectiveBalance() decimal.Decimal {
	return a.Balance.Add(a.OverdraftLimit)
}

// IsActive reports whether the account accepts transactions.
func (a *CustomerAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}

// HasSufficientFunds reports whether the effective balance covers amount.
func (a *CustomerAccount) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.EffectiveBalance().GreaterThanOrEqual(amount)
}

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTypeCredit       EntryType = "credit"
	EntryTypeDebit        EntryType = "debit"
	EntryTypeTransferIn   EntryType = "transfer_in"
	EntryTypeTransferOut  EntryType = "transfer_out"
	EntryTypePaymentDebit EntryType = "payment_debit"
	EntryTypeRefundCredit EntryType = "refund_credit"
)

// IsDebit reports whether the entry reduces the balance.
func (t EntryType) IsDebit() bool {
	return slices.Contains(DebitEntryTypes, t)
}

// DebitEntryTypes are the entry types counted against an account's daily limit.
var DebitEntryTypes = []EntryType{EntryTypeDebit, EntryTypePaymentDebit, EntryTypeTransferOut}

// LedgerEntry is an immutable record of one balance change.
// BalanceAfter = BalanceBefore - Amount for debits and + Amount for credits.
type LedgerEntry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	Type          EntryType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceID   string
	ReferenceType string
	Description   string
	Actor         string
	CreatedAt     time.Time
}

// MerchantStatus is the lifecycle state of a merchant account.
type MerchantStatus string

const (
	MerchantStatusActive    MerchantStatus = "active"
	MerchantStatusSuspended MerchantStatus = "suspended"
	MerchantStatusClosed    MerchantStatus = "closed"
)

// MerchantAccount is a merchant's settlement account at one acquirer in one
// currency. (MerchantID, AcquirerBankCode, Currency) is unique.
type MerchantAccount struct {
	ID                  uuid.UUID
	MerchantID          string
	AcquirerBankCode    string
	Currency            string
	AccountNumber       string
	BusinessName        string
	BusinessType        string
	MCC                 string
	Balance             decimal.Decimal
	ReservedBalance     decimal.Decimal
	MonthlyVolumeLimit  decimal.Decimal
	DailyVolumeLimit    decimal.Decimal
	RiskLevel           string
	SettlementFrequency string
	Status              MerchantStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SettlementStatus is the state of a settlement record.
type SettlementStatus string

const (
	SettlementStatusSettled  SettlementStatus = "settled"
	SettlementStatusReversed SettlementStatus = "reversed"
)

// Settlement records one credit of a merchant account by an acquirer.
type Settlement struct {
	ID                uuid.UUID
	Reference         string // Settlement id returned to callers (e.g. "SETTLE123456")
	MerchantAccountID uuid.UUID
	PaymentID         string
	Gross             decimal.Decimal
	Fee               decimal.Decimal
	Net               decimal.Decimal
	Status            SettlementStatus
	CreatedAt         time.Time
	ReversedAt        *time.Time
}

// TransactionStatus is the status of one stage of a network transaction, or
// its final outcome.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusAuthorized TransactionStatus = "authorized"
	TransactionStatusDeclined   TransactionStatus = "declined"
	TransactionStatusSettled    TransactionStatus = "settled"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCaptured   TransactionStatus = "captured"
	TransactionStatusReversed   TransactionStatus = "reversed"
)

// SagaState is the position of a purchase attempt in the
// authorize -> settle -> capture sequence.
type SagaState string

const (
	SagaCreated          SagaState = "CREATED"
	SagaIssuerAuthorized SagaState = "ISSUER_AUTHORIZED"
	SagaAcquirerSettled  SagaState = "ACQUIRER_SETTLED"
	SagaCaptured         SagaState = "CAPTURED"
	SagaDeclined         SagaState = "DECLINED"
	SagaFailed           SagaState = "FAILED"
)

const (
	// BankCodeNotFound marks an acquirer that could not be resolved.
	BankCodeNotFound = "NOT_FOUND"

	// BankCodeUnknown marks an issuer that could not be resolved.
	BankCodeUnknown = "UNKNOWN"

	// TransactionTypePurchase is the only transaction type routed today.
	TransactionTypePurchase = "purchase"
)

// NetworkTransaction is the routing and audit record of one purchase attempt.
// It is created at the start of orchestration, updated in place, and never deleted.
type NetworkTransaction struct {
	ID                     uuid.UUID
	PaymentID              string
	CustomerAccountID      uuid.UUID
	MerchantID             string
	IssuerBankCode         string
	AcquirerBankCode       string
	Amount                 decimal.Decimal
	Currency               string
	TransactionType        string
	State                  SagaState
	IssuerStatus           TransactionStatus
	AcquirerStatus         TransactionStatus
	FinalStatus            TransactionStatus
	IssuerResponseCode     ResponseCode
	AcquirerResponseCode   ResponseCode
	IssuerResponseTimeMs   int
	AcquirerResponseTimeMs int
	TotalProcessingTimeMs  int
	AuthorizationCode      string
	SettlementID           string
	DeclineReason          string
	CreatedAt              time.Time
	IssuerProcessedAt      *time.Time
	AcquirerProcessedAt    *time.Time
	CapturedAt             *time.Time
	CompletedAt            *time.Time
}

// NewNetworkTransaction creates a routing record in CREATED/pending state.
func NewNetworkTransaction(req PurchaseRequest, issuerBankCode string, now time.Time) *NetworkTransaction {
	return &NetworkTransaction{
		ID:                uuid.New(),
		PaymentID:         req.PaymentID,
		CustomerAccountID: req.AccountID,
		MerchantID:        req.MerchantID,
		IssuerBankCode:    issuerBankCode,
		Amount:            req.Amount,
		Currency:          req.Currency,
		TransactionType:   TransactionTypePurchase,
		State:             SagaCreated,
		IssuerStatus:      TransactionStatusPending,
		AcquirerStatus:    TransactionStatusPending,
		FinalStatus:       TransactionStatusPending,
		CreatedAt:         now,
	}
}

// MarkDeclined ends the saga after an issuer decline.
func (t *NetworkTransaction) MarkDeclined(reason string) {
	t.State = SagaDeclined
	t.IssuerStatus = TransactionStatusDeclined
	t.FinalStatus = TransactionStatusDeclined
	t.DeclineReason = reason
}

// MarkFailed ends the saga after an acquirer or capture failure.
func (t *NetworkTransaction) MarkFailed(reason string) {
	t.State = SagaFailed
	t.FinalStatus = TransactionStatusFailed
	t.DeclineReason = reason
}

// MarkCaptured ends the saga successfully.
func (t *NetworkTransaction) MarkCaptured(now time.Time) {
	t.State = SagaCaptured
	t.FinalStatus = TransactionStatusCaptured
	t.CapturedAt = &now
}

// Complete stamps the completion time and total processing time.
func (t *NetworkTransaction) Complete(now time.Time, totalMs int) {
	t.CompletedAt = &now
	t.TotalProcessingTimeMs = totalMs
}
