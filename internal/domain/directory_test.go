package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

func TestDirectory_GetActiveBankConfig(t *testing.T) {
	f := newFixture(t)
	directory := f.directory()

	bank, err := directory.GetActiveBankConfig(f.ctx, "CHASE")
	require.NoError(t, err)
	assert.Equal(t, "JPMorgan Chase Bank", bank.Name)

	_, err = directory.GetActiveBankConfig(f.ctx, "NOPE")
	require.ErrorIs(t, err, domain.ErrBankNotFound)
}

func TestDirectory_GetMerchantAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Merchants().Upsert(f.ctx, &domain.MerchantAccount{
		MerchantID:       merchantID,
		AcquirerBankCode: "FDMS",
		Currency:         "EUR",
		Status:           domain.MerchantStatusActive,
	}))
	directory := f.directory()

	tests := []struct {
		name      string
		currency  string
		preferred string
		want      string
		wantErr   error
	}{
		{name: "exact match", currency: "USD", preferred: "CHASE", want: "CHASE"},
		{name: "no preference", currency: "EUR", want: "FDMS"},
		{name: "falls back to any acquirer", currency: "EUR", preferred: "CHASE", want: "FDMS"},
		{name: "no account in currency", currency: "JPY", preferred: "CHASE", wantErr: domain.ErrMerchantAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := directory.GetMerchantAccount(f.ctx, merchantID, tt.currency, tt.preferred)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, account.AcquirerBankCode)
			assert.Equal(t, tt.currency, account.Currency)
		})
	}
}

func TestDirectory_ListActiveAcquirers(t *testing.T) {
	f := newFixture(t)
	f.addBank(acquirerBank("FDMS", "0.25", "2.0", 0.98, 200))
	issuerOnly := acquirerBank("CITI", "0", "0", 1, 100)
	issuerOnly.Role = domain.BankRoleIssuer
	f.addBank(issuerOnly)

	acquirers, err := f.directory().ListActiveAcquirers(f.ctx, "USD")
	require.NoError(t, err)
	require.Len(t, acquirers, 2)
	assert.Equal(t, "CHASE", acquirers[0].Code)
	assert.Equal(t, "FDMS", acquirers[1].Code)

	acquirers, err = f.directory().ListActiveAcquirers(f.ctx, "EUR")
	require.NoError(t, err)
	require.Len(t, acquirers, 1)
	assert.Equal(t, "CHASE", acquirers[0].Code)
}
