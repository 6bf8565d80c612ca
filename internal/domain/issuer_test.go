package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

func TestAuthorize_Approves(t *testing.T) {
	f := newFixture(t)

	result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest("250.00"))
	require.NoError(t, err)

	assert.True(t, result.Approved)
	assert.Equal(t, domain.CodeApproved, result.ResponseCode)
	assert.Empty(t, result.DeclineReason)
	assert.Equal(t, "CHASE", result.BankCode)
	assert.Equal(t, "AUTH100000", result.AuthorizationCode)
	require.NotNil(t, result.AvailableBalance)
	assert.Equal(t, "750.00", result.AvailableBalance.StringFixed(2))

	// Tier 1 jitter drawn at its minimum of -50ms.
	assert.Equal(t, 100, result.ResponseTimeMs)
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, f.env.Slept)

	// Authorization never moves funds.
	assert.Equal(t, "1000.00", f.balance().StringFixed(2))
	assert.Empty(t, f.entries())
}

func TestAuthorize_SingleTransactionLimitBeforeRandomChecks(t *testing.T) {
	f := newFixture(t)
	f.bank.FraudLevel = domain.FraudLevelHigh
	f.save()
	f.env.Floats = []float64{0.0, 0.0}

	result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest("50000.00"))
	require.NoError(t, err)

	assert.False(t, result.Approved)
	assert.Equal(t, domain.CodeLimitExceeded, result.ResponseCode)
	assert.Equal(t, "Amount exceeds single transaction limit", result.DeclineReason)
	assert.Len(t, f.env.Floats, 2, "fraud and success draws must not run")
	assert.Equal(t, "1000.00", f.balance().StringFixed(2))
}

func TestAuthorize_InactiveAccount(t *testing.T) {
	for _, status := range []domain.AccountStatus{
		domain.AccountStatusFrozen,
		domain.AccountStatusClosed,
		domain.AccountStatusSuspended,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			f.account.Status = status
			f.account.Balance = dec("0")
			f.save()

			result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest("250.00"))
			require.NoError(t, err)

			assert.False(t, result.Approved)
			assert.Equal(t, domain.CodeInvalidAccount, result.ResponseCode)
			assert.Equal(t, "Account status: "+string(status), result.DeclineReason)
		})
	}
}

func TestAuthorize_Declines(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		setup      func(f *fixture)
		wantCode   domain.ResponseCode
		wantReason string
	}{
		{
			name:   "inactive bank",
			amount: "10.00",
			setup: func(f *fixture) {
				f.bank.Active = false
			},
			wantCode:   domain.CodeSystemError,
			wantReason: "Bank configuration not found",
		},
		{
			name:   "unsupported account currency",
			amount: "10.00",
			setup: func(f *fixture) {
				f.account.Currency = "GBP"
			},
			wantCode:   domain.CodeSystemError,
			wantReason: "Currency GBP not supported",
		},
		{
			name:       "insufficient funds",
			amount:     "1500.00",
			wantCode:   domain.CodeInsufficientFunds,
			wantReason: "Insufficient funds",
		},
		{
			name:   "medium fraud level flags high amounts",
			amount: "4500.00",
			setup: func(f *fixture) {
				f.account.Balance = dec("10000.00")
				f.bank.FraudLevel = domain.FraudLevelMedium
				f.env.Floats = []float64{0.05}
			},
			wantCode:   domain.CodeFraudSuspected,
			wantReason: "High amount transaction",
		},
		{
			name:   "high fraud level velocity check",
			amount: "10.00",
			setup: func(f *fixture) {
				f.bank.FraudLevel = domain.FraudLevelHigh
				f.env.Floats = []float64{0.01}
			},
			wantCode:   domain.CodeFraudSuspected,
			wantReason: "Velocity check failed",
		},
		{
			name:   "transient issuer failure",
			amount: "10.00",
			setup: func(f *fixture) {
				f.bank.SuccessProbability = 0.9
				f.env.Floats = []float64{0.95}
				f.env.Ints = []int{0, 2}
			},
			wantCode:   domain.CodeSystemError,
			wantReason: "Processing error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
				f.save()
			}

			result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest(tt.amount))
			require.NoError(t, err)

			assert.False(t, result.Approved)
			assert.Equal(t, tt.wantCode, result.ResponseCode)
			assert.Equal(t, tt.wantReason, result.DeclineReason)
			assert.Empty(t, result.AuthorizationCode)
		})
	}
}

func TestAuthorize_AccountNotFound(t *testing.T) {
	f := newFixture(t)
	req := f.authorizeRequest("10.00")
	req.AccountID = uuid.New()

	result, err := f.issuer(0).Authorize(f.ctx, req)
	require.NoError(t, err)

	assert.Equal(t, domain.CodeInvalidAccount, result.ResponseCode)
	assert.Equal(t, "Account not found", result.DeclineReason)
	assert.Empty(t, f.env.Slept, "no bank is contacted for an unknown account")
}

func TestAuthorize_OverdraftCountsTowardsFunds(t *testing.T) {
	f := newFixture(t)
	f.account.OverdraftLimit = dec("600.00")
	f.save()

	result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest("1500.00"))
	require.NoError(t, err)

	assert.True(t, result.Approved)
	assert.Equal(t, "100.00", result.AvailableBalance.StringFixed(2))
}

func TestAuthorize_DailyLimitUsesTodaysDebits(t *testing.T) {
	f := newFixture(t)
	f.account.Balance = dec("5000.00")
	f.account.DailyLimit = dec("1000.00")
	f.save()

	// Yesterday's debit does not count.
	f.env.Clock = midday.Add(-24 * time.Hour)
	_, err := f.ledger().Debit(f.ctx, domain.LedgerOperation{AccountID: f.account.ID, Amount: dec("900.00"), ReferenceID: "old"})
	require.NoError(t, err)
	f.env.Clock = midday

	result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest("200.00"))
	require.NoError(t, err)
	assert.True(t, result.Approved)

	_, err = f.ledger().Debit(f.ctx, domain.LedgerOperation{AccountID: f.account.ID, Amount: dec("900.00"), ReferenceID: "today"})
	require.NoError(t, err)

	result, err = f.issuer(0).Authorize(f.ctx, f.authorizeRequest("200.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.CodeLimitExceeded, result.ResponseCode)
	assert.Equal(t, "Daily limit exceeded", result.DeclineReason)
}

func TestAuthorize_LowFraudLevelNeverFlags(t *testing.T) {
	f := newFixture(t)
	f.account.Balance = dec("10000.00")
	f.save()
	f.env.Floats = []float64{0.0}

	result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest("4999.00"))
	require.NoError(t, err)
	assert.True(t, result.Approved)
}

func TestAuthorize_Latency(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		ints  []int
		want  int
	}{
		{
			name: "tier 1 jitter",
			ints: []int{100},
			want: 250,
		},
		{
			name: "tier 3 jitter",
			setup: func(f *fixture) {
				f.bank.Tier = domain.BankTier3
			},
			ints: []int{800},
			want: 950,
		},
		{
			name: "outside business hours",
			setup: func(f *fixture) {
				f.bank.Supports247 = false
				f.bank.BusinessHoursStart = 8
				f.bank.BusinessHoursEnd = 11
			},
			ints: []int{0, 500},
			want: 650,
		},
		{
			name: "minimum latency",
			setup: func(f *fixture) {
				f.bank.BaseLatencyMs = 10
			},
			ints: []int{-50},
			want: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
				f.save()
			}
			f.env.Ints = tt.ints

			result, err := f.issuer(0).Authorize(f.ctx, f.authorizeRequest("10.00"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.ResponseTimeMs)
			assert.Equal(t, time.Duration(tt.want)*time.Millisecond, f.env.TotalSlept())
		})
	}
}

func TestAuthorize_Timeout(t *testing.T) {
	f := newFixture(t)

	result, err := f.issuer(60*time.Millisecond).Authorize(f.ctx, f.authorizeRequest("10.00"))
	require.NoError(t, err)

	assert.False(t, result.Approved)
	assert.Equal(t, domain.CodeTimeout, result.ResponseCode)
	assert.Equal(t, 60, result.ResponseTimeMs)
	assert.Equal(t, 60*time.Millisecond, f.env.TotalSlept())
}

func TestCapture(t *testing.T) {
	f := newFixture(t)

	result, err := f.issuer(0).Capture(f.ctx, domain.CaptureRequest{
		AccountID:         f.account.ID,
		Amount:            dec("250.00"),
		AuthorizationCode: "AUTH123456",
		PaymentID:         "PAY-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "750.00", result.NewBalance.StringFixed(2))

	entries := f.entries()
	require.Len(t, entries, 1)
	assert.Equal(t, result.EntryID, entries[0].ID)
	assert.Equal(t, domain.EntryTypePaymentDebit, entries[0].Type)
	assert.Equal(t, domain.ReferenceTypePaymentCapture, entries[0].ReferenceType)
	assert.Equal(t, "PAY-1", entries[0].ReferenceID)
	assert.Equal(t, "Payment capture - Auth: AUTH123456", entries[0].Description)
	assert.Equal(t, domain.LedgerActor, entries[0].Actor)
}

func TestCapture_RuleRejection(t *testing.T) {
	f := newFixture(t)
	f.account.Status = domain.AccountStatusFrozen
	f.save()

	result, err := f.issuer(0).Capture(f.ctx, domain.CaptureRequest{
		AccountID: f.account.ID,
		Amount:    dec("250.00"),
		PaymentID: "PAY-1",
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "account is frozen")
	assert.Equal(t, "1000.00", f.balance().StringFixed(2))
	assert.Empty(t, f.entries())
}
