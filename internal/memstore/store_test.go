package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

func newAccount(balance string) *domain.CustomerAccount {
	return &domain.CustomerAccount{
		ID:         uuid.New(),
		CustomerID: "CUST_1",
		BankCode:   "CHASE",
		Type:       domain.AccountTypeChecking,
		Status:     domain.AccountStatusActive,
		Balance:    decimal.RequireFromString(balance),
		DailyLimit: decimal.RequireFromString("5000"),
		Currency:   "USD",
	}
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := newAccount("100.00")
	require.NoError(t, store.Accounts().Upsert(ctx, account))

	errBoom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context, tx domain.Repositories) error {
		locked, err := tx.Accounts().Lock(ctx, account.ID)
		require.NoError(t, err)
		locked.Balance = decimal.Zero
		require.NoError(t, tx.Accounts().Update(ctx, locked))
		require.NoError(t, tx.Ledger().Append(ctx, &domain.LedgerEntry{ID: uuid.New(), AccountID: account.ID}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("100.00")))

	entries, err := store.Ledger().ListByAccount(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWithTransaction_Commits(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := newAccount("100.00")
	require.NoError(t, store.Accounts().Upsert(ctx, account))

	err := store.WithTransaction(ctx, func(ctx context.Context, tx domain.Repositories) error {
		locked, err := tx.Accounts().Lock(ctx, account.ID)
		if err != nil {
			return err
		}
		locked.Balance = decimal.RequireFromString("42.00")
		return tx.Accounts().Update(ctx, locked)
	})
	require.NoError(t, err)

	got, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "42.00", got.Balance.StringFixed(2))
}

func TestWithTransaction_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().WithTransaction(ctx, func(context.Context, domain.Repositories) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := newAccount("100.00")
	require.NoError(t, store.Accounts().Upsert(ctx, account))

	account.Balance = decimal.Zero
	got, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	got.Status = domain.AccountStatusFrozen

	again, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", again.Balance.StringFixed(2))
	assert.Equal(t, domain.AccountStatusActive, again.Status)
}

func TestMerchantFindActive(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, m := range []*domain.MerchantAccount{
		{MerchantID: "M1", AcquirerBankCode: "GLOBAL", Currency: "USD", Status: domain.MerchantStatusActive},
		{MerchantID: "M1", AcquirerBankCode: "FDMS", Currency: "USD", Status: domain.MerchantStatusActive},
		{MerchantID: "M1", AcquirerBankCode: "CHASE", Currency: "USD", Status: domain.MerchantStatusSuspended},
		{MerchantID: "M1", AcquirerBankCode: "CHASE", Currency: "EUR", Status: domain.MerchantStatusActive},
	} {
		require.NoError(t, store.Merchants().Upsert(ctx, m))
	}

	tests := []struct {
		name     string
		currency string
		acquirer string
		want     string
		wantErr  error
	}{
		{name: "any acquirer picks smallest code", currency: "USD", want: "FDMS"},
		{name: "exact acquirer", currency: "USD", acquirer: "GLOBAL", want: "GLOBAL"},
		{name: "inactive account is skipped", currency: "USD", acquirer: "CHASE", wantErr: domain.ErrMerchantAccountNotFound},
		{name: "other currency", currency: "EUR", want: "CHASE"},
		{name: "missing currency", currency: "JPY", wantErr: domain.ErrMerchantAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Merchants().FindActive(ctx, "M1", tt.currency, tt.acquirer)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.AcquirerBankCode)
		})
	}
}

func TestMerchantUpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	store := New()
	first := &domain.MerchantAccount{MerchantID: "M1", AcquirerBankCode: "FDMS", Currency: "USD", Status: domain.MerchantStatusActive}
	require.NoError(t, store.Merchants().Upsert(ctx, first))

	second := &domain.MerchantAccount{MerchantID: "M1", AcquirerBankCode: "FDMS", Currency: "USD", Status: domain.MerchantStatusClosed}
	require.NoError(t, store.Merchants().Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	_, err := store.Merchants().FindActive(ctx, "M1", "USD", "")
	require.ErrorIs(t, err, domain.ErrMerchantAccountNotFound)
}

func TestLedgerQueries(t *testing.T) {
	ctx := context.Background()
	store := New()
	accountID := uuid.New()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	entries := []domain.LedgerEntry{
		{Type: domain.EntryTypePaymentDebit, Amount: decimal.NewFromInt(10), CreatedAt: day.Add(-time.Minute)},
		{Type: domain.EntryTypePaymentDebit, Amount: decimal.NewFromInt(20), CreatedAt: day.Add(time.Hour)},
		{Type: domain.EntryTypeTransferOut, Amount: decimal.NewFromInt(5), CreatedAt: day.Add(2 * time.Hour)},
		{Type: domain.EntryTypeRefundCredit, Amount: decimal.NewFromInt(7), CreatedAt: day.Add(3 * time.Hour)},
		{Type: domain.EntryTypeDebit, Amount: decimal.NewFromInt(100), CreatedAt: day.Add(24 * time.Hour)},
	}
	for i := range entries {
		entries[i].ID = uuid.New()
		entries[i].AccountID = accountID
		require.NoError(t, store.Ledger().Append(ctx, &entries[i]))
	}

	total, err := store.Ledger().SumAmounts(ctx, accountID, domain.DebitEntryTypes, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "25", total.String())

	page, err := store.Ledger().ListByAccount(ctx, accountID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, entries[3].ID, page[0].ID)
	assert.Equal(t, entries[2].ID, page[1].ID)
}

func TestSettlementSumGrossSkipsReversed(t *testing.T) {
	ctx := context.Background()
	store := New()
	merchantID := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	settled := &domain.Settlement{ID: uuid.New(), Reference: "SETTLE1", MerchantAccountID: merchantID,
		Gross: decimal.NewFromInt(100), Status: domain.SettlementStatusSettled, CreatedAt: now}
	reversed := &domain.Settlement{ID: uuid.New(), Reference: "SETTLE2", MerchantAccountID: merchantID,
		Gross: decimal.NewFromInt(50), Status: domain.SettlementStatusReversed, CreatedAt: now}
	require.NoError(t, store.Settlements().Create(ctx, settled))
	require.NoError(t, store.Settlements().Create(ctx, reversed))
	require.Error(t, store.Settlements().Create(ctx, &domain.Settlement{ID: uuid.New(), Reference: "SETTLE1"}))

	total, err := store.Settlements().SumGross(ctx, merchantID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "100", total.String())
}

func TestNetworkTransactionLatestByPayment(t *testing.T) {
	ctx := context.Background()
	store := New()
	now := time.Now()
	req := domain.PurchaseRequest{PaymentID: "PAY-1", AccountID: uuid.New(), MerchantID: "M1",
		Amount: decimal.NewFromInt(1), Currency: "USD"}

	first := domain.NewNetworkTransaction(req, "CHASE", now)
	second := domain.NewNetworkTransaction(req, "CHASE", now.Add(time.Second))
	require.NoError(t, store.NetworkTransactions().Create(ctx, first))
	require.NoError(t, store.NetworkTransactions().Create(ctx, second))

	second.MarkDeclined("Insufficient funds")
	require.NoError(t, store.NetworkTransactions().Update(ctx, second))

	got, err := store.NetworkTransactions().GetLatestByPaymentID(ctx, "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, domain.SagaDeclined, got.State)

	_, err = store.NetworkTransactions().GetLatestByPaymentID(ctx, "PAY-2")
	require.ErrorIs(t, err, domain.ErrNetworkTransactionNotFound)
}
