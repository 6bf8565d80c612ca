package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/memstore"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

const merchantID = "MERCHANT_001"

// midday keeps every test bank inside business hours.
var midday = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func chaseBank() *domain.BankConfig {
	return &domain.BankConfig{
		Code:                   "CHASE",
		Name:                   "JPMorgan Chase Bank",
		Role:                   domain.BankRoleDual,
		Tier:                   domain.BankTier1,
		BaseLatencyMs:          150,
		SuccessProbability:     1.0,
		PerTransactionFee:      dec("0.30"),
		PercentageFee:          dec("2.5"),
		SingleTransactionLimit: dec("10000"),
		DailyTransactionLimit:  dec("100000"),
		SupportedCurrencies:    []string{"USD", "EUR"},
		CountryCode:            "US",
		BusinessHoursStart:     0,
		BusinessHoursEnd:       23,
		Supports247:            true,
		FraudLevel:             domain.FraudLevelLow,
		Active:                 true,
	}
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memstore.Store
	env      *sim.Scripted
	bank     *domain.BankConfig
	account  *domain.CustomerAccount
	merchant *domain.MerchantAccount
}

// newFixture seeds the CHASE bank, a 1000 USD customer account with a 5000
// daily limit and a USD merchant account at CHASE.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: memstore.New(),
		env:   sim.NewScripted(midday),
		bank:  chaseBank(),
		account: &domain.CustomerAccount{
			ID:             uuid.New(),
			AccountNumber:  "CHASE0000000001",
			CustomerID:     "CUST_001",
			BankCode:       "CHASE",
			Type:           domain.AccountTypeChecking,
			Status:         domain.AccountStatusActive,
			Balance:        dec("1000.00"),
			OverdraftLimit: decimal.Zero,
			DailyLimit:     dec("5000.00"),
			Currency:       "USD",
		},
		merchant: &domain.MerchantAccount{
			MerchantID:       merchantID,
			AcquirerBankCode: "CHASE",
			Currency:         "USD",
			BusinessName:     "Coffee Shop",
			Balance:          decimal.Zero,
			DailyVolumeLimit: dec("50000.00"),
			Status:           domain.MerchantStatusActive,
		},
	}
	f.save()
	return f
}

// save writes the fixture's bank, account and merchant to the store,
// balances included.
func (f *fixture) save() {
	f.t.Helper()
	require.NoError(f.t, f.store.Banks().Upsert(f.ctx, f.bank))
	require.NoError(f.t, f.store.Accounts().Upsert(f.ctx, f.account))
	require.NoError(f.t, f.store.Accounts().Update(f.ctx, f.account))
	require.NoError(f.t, f.store.Merchants().Upsert(f.ctx, f.merchant))
	require.NoError(f.t, f.store.Merchants().Update(f.ctx, f.merchant))
}

func (f *fixture) addBank(bank *domain.BankConfig) {
	f.t.Helper()
	require.NoError(f.t, f.store.Banks().Upsert(f.ctx, bank))
}

func (f *fixture) directory() *domain.BankDirectory {
	return domain.NewBankDirectory(f.store.Banks(), f.store.Merchants())
}

func (f *fixture) ledger() *domain.AccountLedger {
	return domain.NewAccountLedger(f.store, f.env)
}

func (f *fixture) issuer(timeout time.Duration) *domain.IssuerAuthorizer {
	return domain.NewIssuerAuthorizer(f.store.Accounts(), f.directory(), f.ledger(), f.env, timeout)
}

func (f *fixture) acquirer(timeout time.Duration) *domain.AcquirerSettler {
	return domain.NewAcquirerSettler(f.store, f.directory(), f.env, timeout)
}

func (f *fixture) balance() decimal.Decimal {
	f.t.Helper()
	account, err := f.store.Accounts().GetByID(f.ctx, f.account.ID)
	require.NoError(f.t, err)
	return account.Balance
}

func (f *fixture) merchantBalance() decimal.Decimal {
	f.t.Helper()
	merchant, err := f.store.Merchants().Lock(f.ctx, f.merchant.ID)
	require.NoError(f.t, err)
	return merchant.Balance
}

func (f *fixture) entries() []*domain.LedgerEntry {
	f.t.Helper()
	entries, err := f.store.Ledger().ListByAccount(f.ctx, f.account.ID, 100, 0)
	require.NoError(f.t, err)
	return entries
}

func (f *fixture) authorizeRequest(amount string) domain.AuthorizeRequest {
	return domain.AuthorizeRequest{
		AccountID:  f.account.ID,
		Amount:     dec(amount),
		PaymentID:  "PAY-" + uuid.NewString(),
		MerchantID: merchantID,
	}
}

func (f *fixture) purchaseRequest(amount, currency string) domain.PurchaseRequest {
	return domain.PurchaseRequest{
		PaymentID:  "PAY-" + uuid.NewString(),
		AccountID:  f.account.ID,
		MerchantID: merchantID,
		Amount:     dec(amount),
		Currency:   currency,
	}
}
