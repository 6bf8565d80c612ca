package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankRepository defines data access for bank configurations.
type BankRepository interface {
	// GetActiveByCode returns the active bank with the given code.
	// Returns ErrBankNotFound if no active bank has that code.
	GetActiveByCode(ctx context.Context, code string) (*BankConfig, error)

	// ListActive returns all active banks ordered by bank code.
	ListActive(ctx context.Context) ([]*BankConfig, error)

	// Upsert creates or replaces a bank configuration by code.
	Upsert(ctx context.Context, bank *BankConfig) error
}

// MerchantRepository defines data access for merchant accounts.
type MerchantRepository interface {
	// FindActive returns an active merchant account for (merchantID, currency).
	// When acquirerBankCode is non-empty only that acquirer matches; otherwise
	// the account with the smallest acquirer code is returned.
	// Returns ErrMerchantAccountNotFound if nothing matches.
	FindActive(ctx context.Context, merchantID, currency, acquirerBankCode string) (*MerchantAccount, error)

	// Lock acquires a lock on the merchant account for the duration of the
	// transaction. Must be called within a transaction.
	Lock(ctx context.Context, id uuid.UUID) (*MerchantAccount, error)

	// Update persists balance changes of an existing merchant account.
	Update(ctx context.Context, account *MerchantAccount) error

	// Upsert creates or refreshes a merchant account by
	// (merchant id, acquirer bank code, currency). Balances of an existing
	// account are kept.
	Upsert(ctx context.Context, account *MerchantAccount) error
}

// AccountRepository defines data access for customer accounts.
type AccountRepository interface {
	// GetByID retrieves an account. Returns ErrAccountNotFound if missing.
	GetByID(ctx context.Context, id uuid.UUID) (*CustomerAccount, error)

	// Lock acquires a lock on the account for the duration of the transaction.
	// Must be called within a transaction.
	Lock(ctx context.Context, id uuid.UUID) (*CustomerAccount, error)

	// Update persists balance, status and activity changes.
	Update(ctx context.Context, account *CustomerAccount) error

	// Upsert creates an account or refreshes its profile and limits by id.
	// The balance of an existing account is kept.
	Upsert(ctx context.Context, account *CustomerAccount) error
}

// LedgerRepository defines data access for the append-only account ledger.
type LedgerRepository interface {
	// Append stores a new entry.
	Append(ctx context.Context, entry *LedgerEntry) error

	// SumAmounts totals the amounts of the account's entries of the given
	// types created in [from, to).
	SumAmounts(ctx context.Context, accountID uuid.UUID, types []EntryType, from, to time.Time) (decimal.Decimal, error)

	// ListByAccount returns the account's entries, newest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*LedgerEntry, error)
}

// SettlementRepository defines data access for merchant settlements.
type SettlementRepository interface {
	// Create stores a new settlement.
	Create(ctx context.Context, settlement *Settlement) error

	// GetByReference returns the settlement with the given reference.
	// Returns ErrSettlementNotFound if missing.
	GetByReference(ctx context.Context, reference string) (*Settlement, error)

	// Lock is GetByReference holding the settlement row until the unit of
	// work ends, so concurrent reversals see each other's status change.
	Lock(ctx context.Context, reference string) (*Settlement, error)

	// Update persists status changes.
	Update(ctx context.Context, settlement *Settlement) error

	// SumGross totals the gross amount of non-reversed settlements of the
	// merchant account created in [from, to).
	SumGross(ctx context.Context, merchantAccountID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

// NetworkTransactionRepository defines data access for routing/audit records.
type NetworkTransactionRepository interface {
	// Create persists a new record.
	Create(ctx context.Context, txn *NetworkTransaction) error

	// Update persists the mutable stage fields of an existing record.
	Update(ctx context.Context, txn *NetworkTransaction) error

	// GetLatestByPaymentID returns the most recent attempt for a payment.
	// Returns ErrNetworkTransactionNotFound if missing.
	GetLatestByPaymentID(ctx context.Context, paymentID string) (*NetworkTransaction, error)
}

// Repositories is a set of repositories bound to one unit of work.
type Repositories interface {
	Banks() BankRepository
	Merchants() MerchantRepository
	Accounts() AccountRepository
	Ledger() LedgerRepository
	Settlements() SettlementRepository
	NetworkTransactions() NetworkTransactionRepository
}

// Store gives access to repositories outside a transaction and runs units of
// work inside one.
type Store interface {
	Repositories

	// WithTransaction executes fn with repositories bound to a single
	// transaction. If fn returns an error the transaction is rolled back,
	// otherwise it is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// EventPublisher publishes domain events to external systems.
type EventPublisher interface {
	PublishNetworkTransactionCompleted(ctx context.Context, txn *NetworkTransaction) error
}

// Observer receives stage timings and final outcomes, e.g. for metrics.
type Observer interface {
	ObserveStage(stage Stage, code ResponseCode, latencyMs int)
	ObserveOutcome(txn *NetworkTransaction)
}

// Stage names a step of the network saga.
type Stage string

const (
	StageIssuer   Stage = "issuer"
	StageAcquirer Stage = "acquirer"
	StageCapture  Stage = "capture"
)
