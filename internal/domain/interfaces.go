package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankLookup resolves bank configurations and merchant accounts.
// Implemented by BankDirectory.
type BankLookup interface {
	GetActiveBankConfig(ctx context.Context, code string) (*BankConfig, error)
	GetMerchantAccount(ctx context.Context, merchantID, currency, preferredAcquirer string) (*MerchantAccount, error)
	ListActiveAcquirers(ctx context.Context, currency string) ([]*BankConfig, error)
}

// FundsLedger moves customer funds. Implemented by AccountLedger.
type FundsLedger interface {
	Debit(ctx context.Context, op LedgerOperation) (*LedgerEntry, error)
	Credit(ctx context.Context, op LedgerOperation) (*LedgerEntry, error)
	DailyDebitTotal(ctx context.Context, accountID uuid.UUID, day time.Time) (decimal.Decimal, error)
}

// Router ranks acquirers for a purchase. Implemented by AcquirerSelector.
type Router interface {
	Rank(ctx context.Context, amount float64, currency string) ([]ScoredAcquirer, error)
}

// Authorizer is the issuer side of the network. Implemented by IssuerAuthorizer.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthResult, error)
	Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error)
}

// Settler is the acquirer side of the network. Implemented by AcquirerSettler.
type Settler interface {
	Settle(ctx context.Context, req SettleRequest) (*SettleResult, error)
	Reverse(ctx context.Context, settlementID string) (*Settlement, error)
}

var (
	_ BankLookup  = (*BankDirectory)(nil)
	_ FundsLedger = (*AccountLedger)(nil)
	_ Router      = (*AcquirerSelector)(nil)
	_ Authorizer  = (*IssuerAuthorizer)(nil)
	_ Settler     = (*AcquirerSettler)(nil)
)
