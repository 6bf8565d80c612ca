package domain_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

func (f *fixture) settleRequest(amount string) domain.SettleRequest {
	return domain.SettleRequest{
		PaymentID:        "PAY-1",
		MerchantID:       merchantID,
		Amount:           dec(amount),
		Currency:         "USD",
		AcquirerBankCode: "CHASE",
	}
}

func TestCalculateFees(t *testing.T) {
	fees := domain.CalculateFees(dec("100.00"), chaseBank())

	assert.Equal(t, "0.30", fees.PerTransactionFee.StringFixed(2))
	assert.Equal(t, "2.50", fees.PercentageFee.StringFixed(2))
	assert.Equal(t, "2.80", fees.TotalFee.StringFixed(2))
	assert.Equal(t, "97.20", fees.NetAmount.StringFixed(2))
}

func TestSettle_CreditsMerchantNetOfFees(t *testing.T) {
	f := newFixture(t)
	f.env.Ints = []int{0, 1234567890}

	result, err := f.acquirer(0).Settle(f.ctx, f.settleRequest("100.00"))
	require.NoError(t, err)

	assert.True(t, result.Approved)
	assert.Equal(t, domain.CodeApproved, result.ResponseCode)
	assert.Equal(t, "SETTLE1234567890", result.SettlementID)
	assert.Equal(t, "CHASE", result.AcquirerBankCode)
	require.NotNil(t, result.Fees)
	assert.Equal(t, "2.80", result.Fees.TotalFee.StringFixed(2))
	assert.Equal(t, "97.20", result.Fees.NetAmount.StringFixed(2))
	require.NotNil(t, result.MerchantBalance)
	assert.Equal(t, "97.20", result.MerchantBalance.StringFixed(2))
	assert.Equal(t, "97.20", f.merchantBalance().StringFixed(2))

	// 60% of 150ms plus zero jitter.
	assert.Equal(t, 90, result.ResponseTimeMs)

	settlement, err := f.store.Settlements().GetByReference(f.ctx, "SETTLE1234567890")
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusSettled, settlement.Status)
	assert.Equal(t, f.merchant.ID, settlement.MerchantAccountID)
	assert.Equal(t, "100.00", settlement.Gross.StringFixed(2))
	assert.Equal(t, "2.80", settlement.Fee.StringFixed(2))
	assert.Equal(t, "97.20", settlement.Net.StringFixed(2))
}

func TestSettle_Declines(t *testing.T) {
	tests := []struct {
		name       string
		req        func(f *fixture) domain.SettleRequest
		setup      func(f *fixture)
		wantCode   domain.ResponseCode
		wantReason string
	}{
		{
			name: "unknown acquirer",
			req: func(f *fixture) domain.SettleRequest {
				req := f.settleRequest("100.00")
				req.AcquirerBankCode = "NOPE"
				return req
			},
			wantCode:   domain.CodeSystemError,
			wantReason: "Acquirer bank configuration not found",
		},
		{
			name: "no merchant account in currency",
			req: func(f *fixture) domain.SettleRequest {
				req := f.settleRequest("100.00")
				req.Currency = "JPY"
				return req
			},
			wantCode:   domain.CodeInvalidMerchant,
			wantReason: "Merchant account not found for MERCHANT_001 in JPY",
		},
		{
			name: "daily volume limit",
			setup: func(f *fixture) {
				f.merchant.DailyVolumeLimit = dec("99.99")
			},
			wantCode:   domain.CodeLimitExceeded,
			wantReason: "Daily volume limit exceeded",
		},
		{
			name: "acquirer processing error",
			setup: func(f *fixture) {
				f.bank.SuccessProbability = 0.97
				f.env.Floats = []float64{0.995}
			},
			wantCode:   domain.CodeProcessingError,
			wantReason: "Acquirer processing error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
				f.save()
			}
			req := f.settleRequest("100.00")
			if tt.req != nil {
				req = tt.req(f)
			}

			result, err := f.acquirer(0).Settle(f.ctx, req)
			require.NoError(t, err)

			assert.False(t, result.Approved)
			assert.Equal(t, tt.wantCode, result.ResponseCode)
			assert.Equal(t, tt.wantReason, result.DeclineReason)
			assert.Empty(t, result.SettlementID)
			assert.True(t, f.merchantBalance().IsZero())
		})
	}
}

func TestSettle_SuccessRateIsBoostedAndCapped(t *testing.T) {
	f := newFixture(t)
	f.bank.SuccessProbability = 0.95
	f.save()

	// 0.96 passes the boosted 0.97 rate.
	f.env.Floats = []float64{0.96}
	result, err := f.acquirer(0).Settle(f.ctx, f.settleRequest("10.00"))
	require.NoError(t, err)
	assert.True(t, result.Approved)

	// A perfect issuer rate is capped at 0.99 on the acquirer side.
	f.bank.SuccessProbability = 1.0
	f.save()
	f.env.Floats = []float64{0.995}
	f.env.Ints = []int{0, 1000000001}
	result, err = f.acquirer(0).Settle(f.ctx, f.settleRequest("10.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.CodeProcessingError, result.ResponseCode)
}

func TestSettle_DailyVolumeAccumulates(t *testing.T) {
	f := newFixture(t)
	f.merchant.DailyVolumeLimit = dec("150.00")
	f.save()
	settler := f.acquirer(0)

	f.env.Ints = []int{0, 1000000001}
	result, err := settler.Settle(f.ctx, f.settleRequest("100.00"))
	require.NoError(t, err)
	require.True(t, result.Approved)

	result, err = settler.Settle(f.ctx, f.settleRequest("100.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.CodeLimitExceeded, result.ResponseCode)

	// Reversed settlements no longer count towards the daily volume.
	_, err = settler.Reverse(f.ctx, "SETTLE1000000001")
	require.NoError(t, err)
	f.env.Ints = []int{0, 1000000002}
	result, err = settler.Settle(f.ctx, f.settleRequest("100.00"))
	require.NoError(t, err)
	assert.True(t, result.Approved)
}

func TestSettle_Timeout(t *testing.T) {
	f := newFixture(t)

	result, err := f.acquirer(20*time.Millisecond).Settle(f.ctx, f.settleRequest("10.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.CodeTimeout, result.ResponseCode)
	assert.Equal(t, 20, result.ResponseTimeMs)
	assert.True(t, f.merchantBalance().IsZero())
}

func TestReverse(t *testing.T) {
	f := newFixture(t)
	settler := f.acquirer(0)

	result, err := settler.Settle(f.ctx, f.settleRequest("100.00"))
	require.NoError(t, err)
	require.True(t, result.Approved)

	reversed, err := settler.Reverse(f.ctx, result.SettlementID)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusReversed, reversed.Status)
	require.NotNil(t, reversed.ReversedAt)
	assert.True(t, f.merchantBalance().IsZero())

	_, err = settler.Reverse(f.ctx, result.SettlementID)
	require.ErrorIs(t, err, domain.ErrSettlementReversed)

	_, err = settler.Reverse(f.ctx, "SETTLE0")
	require.ErrorIs(t, err, domain.ErrSettlementNotFound)
}

func TestReverse_Concurrent(t *testing.T) {
	f := newFixture(t)
	settler := f.acquirer(0)

	result, err := settler.Settle(f.ctx, f.settleRequest("100.00"))
	require.NoError(t, err)
	require.True(t, result.Approved)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reversed int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := settler.Reverse(f.ctx, result.SettlementID)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrSettlementReversed)
				return
			}
			mu.Lock()
			reversed++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reversed)
	assert.True(t, f.merchantBalance().IsZero())
}
