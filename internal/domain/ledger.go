package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

// LedgerActor is recorded on every entry written by the network.
const LedgerActor = "payment_system"

// LedgerOperation describes one debit or credit of a customer account.
type LedgerOperation struct {
	AccountID     uuid.UUID
	Amount        decimal.Decimal
	ReferenceID   string
	ReferenceType string
	Description   string

	// Type overrides the entry type. Debits default to payment_debit and
	// credits to refund_credit.
	Type EntryType
}

// AccountLedger enforces balance and limit rules and records every balance
// change as an immutable ledger entry in the same unit of work.
type AccountLedger struct {
	store Store
	env   sim.Environment
}

// NewAccountLedger creates an AccountLedger.
func NewAccountLedger(store Store, env sim.Environment) *AccountLedger {
	return &AccountLedger{
		store: store,
		env:   env,
	}
}

// Debit runs DebitTx in its own transaction.
func (l *AccountLedger) Debit(ctx context.Context, op LedgerOperation) (*LedgerEntry, error) {
	var entry *LedgerEntry
	err := l.store.WithTransaction(ctx, func(ctx context.Context, tx Repositories) error {
		var err error
		entry, err = l.DebitTx(ctx, tx, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DebitTx decrements the account balance within tx. The account row is locked
// before the daily total is read, so concurrent debits are serialized.
//
// Returns ErrAccountNotFound, ErrAccountInactive, ErrInsufficientFunds or
// ErrDailyLimitExceeded (wrapped with detail) when a rule rejects the debit.
func (l *AccountLedger) DebitTx(ctx context.Context, tx Repositories, op LedgerOperation) (*LedgerEntry, error) {
	if !op.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if op.Type != "" && !op.Type.IsDebit() {
		return nil, fmt.Errorf("%w: %s is not a debit entry type", ErrInvalidRequest, op.Type)
	}

	account, err := tx.Accounts().Lock(ctx, op.AccountID)
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		return nil, fmt.Errorf("%w: account is %s", ErrAccountInactive, account.Status)
	}

	if !account.HasSufficientFunds(op.Amount) {
		return nil, fmt.Errorf("%w: available %s, requested %s",
			ErrInsufficientFunds, FormatAmount(account.EffectiveBalance()), FormatAmount(op.Amount))
	}

	now := l.env.Now()
	from, to := dayBounds(now)
	used, err := tx.Ledger().SumAmounts(ctx, account.ID, DebitEntryTypes, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum daily debits: %w", err)
	}
	if used.Add(op.Amount).GreaterThan(account.DailyLimit) {
		return nil, fmt.Errorf("%w: limit %s, used today %s",
			ErrDailyLimitExceeded, FormatAmount(account.DailyLimit), FormatAmount(used))
	}

	entryType := op.Type
	if entryType == "" {
		entryType = EntryTypePaymentDebit
	}
	description := op.Description
	if description == "" {
		description = fmt.Sprintf("Payment debit - %s", op.ReferenceID)
	}

	return l.apply(ctx, tx, account, op, entryType, account.Balance.Sub(op.Amount), description, now)
}

// Credit runs CreditTx in its own transaction.
func (l *AccountLedger) Credit(ctx context.Context, op LedgerOperation) (*LedgerEntry, error) {
	var entry *LedgerEntry
	err := l.store.WithTransaction(ctx, func(ctx context.Context, tx Repositories) error {
		var err error
		entry, err = l.CreditTx(ctx, tx, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx increments the account balance within tx. Credits are not subject
// to status or daily limit checks.
func (l *AccountLedger) CreditTx(ctx context.Context, tx Repositories, op LedgerOperation) (*LedgerEntry, error) {
	if !op.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if op.Type.IsDebit() {
		return nil, fmt.Errorf("%w: %s is not a credit entry type", ErrInvalidRequest, op.Type)
	}

	account, err := tx.Accounts().Lock(ctx, op.AccountID)
	if err != nil {
		return nil, err
	}

	entryType := op.Type
	if entryType == "" {
		entryType = EntryTypeRefundCredit
	}
	description := op.Description
	if description == "" {
		description = fmt.Sprintf("Refund credit - %s", op.ReferenceID)
	}

	return l.apply(ctx, tx, account, op, entryType, account.Balance.Add(op.Amount), description, l.env.Now())
}

func (l *AccountLedger) apply(ctx context.Context, tx Repositories, account *CustomerAccount, op LedgerOperation,
	entryType EntryType, newBalance decimal.Decimal, description string, now time.Time) (*LedgerEntry, error) {
	entry := &LedgerEntry{
		ID:            uuid.New(),
		AccountID:     account.ID,
		Type:          entryType,
		Amount:        op.Amount,
		BalanceBefore: account.Balance,
		BalanceAfter:  newBalance,
		ReferenceID:   op.ReferenceID,
		ReferenceType: op.ReferenceType,
		Description:   description,
		Actor:         LedgerActor,
		CreatedAt:     now,
	}

	account.Balance = newBalance
	account.UpdatedAt = now
	account.LastActivityAt = &now

	if err := tx.Accounts().Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return entry, nil
}

// DailyDebitTotal sums the account's debit-type entries on the calendar day of day.
func (l *AccountLedger) DailyDebitTotal(ctx context.Context, accountID uuid.UUID, day time.Time) (decimal.Decimal, error) {
	from, to := dayBounds(day)
	total, err := l.store.Ledger().SumAmounts(ctx, accountID, DebitEntryTypes, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum daily debits: %w", err)
	}
	return total, nil
}

// History returns the account's ledger entries, newest first.
func (l *AccountLedger) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*LedgerEntry, error) {
	if _, err := l.store.Accounts().GetByID(ctx, accountID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return l.store.Ledger().ListByAccount(ctx, accountID, limit, offset)
}

// dayBounds returns [start of day, start of next day) in t's location.
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
