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

const (
	acquirerReliabilityBoost = 0.02
	acquirerMaxSuccessRate   = 0.99
)

// AcquirerSettler simulates the merchant's bank: it credits merchant accounts
// net of processing fees.
type AcquirerSettler struct {
	store     Store
	directory BankLookup
	env       sim.Environment
	timeout   time.Duration
}

// NewAcquirerSettler creates an AcquirerSettler. A zero timeout disables the
// stage deadline.
func NewAcquirerSettler(store Store, directory BankLookup, env sim.Environment, timeout time.Duration) *AcquirerSettler {
	return &AcquirerSettler{
		store:     store,
		directory: directory,
		env:       env,
		timeout:   timeout,
	}
}

// CalculateFees itemizes the acquirer's fee for amount. Amounts are rounded
// to cents.
func CalculateFees(amount decimal.Decimal, bank *BankConfig) FeeBreakdown {
	percentage := amount.Mul(bank.PercentageFee).Div(decimal.NewFromInt(100)).Round(2)
	total := bank.PerTransactionFee.Add(percentage)
	return FeeBreakdown{
		PerTransactionFee: bank.PerTransactionFee,
		PercentageFee:     percentage,
		TotalFee:          total,
		NetAmount:         amount.Sub(total),
	}
}

// Settle credits the merchant's account at the requested acquirer. The volume
// check, balance credit and settlement record are written in one transaction
// with the merchant account locked.
//
// The result is never nil. A non-nil error reports an infrastructure fault;
// the result then carries CodeSystemError and nothing is persisted.
func (s *AcquirerSettler) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	start := s.env.Now()

	bank, err := s.directory.GetActiveBankConfig(ctx, req.AcquirerBankCode)
	if err != nil {
		result := &SettleResult{
			ResponseCode:     CodeSystemError,
			DeclineReason:    "Acquirer bank configuration not found",
			ResponseTimeMs:   sim.Elapsed(s.env, start),
			AcquirerBankCode: req.AcquirerBankCode,
		}
		if errors.Is(err, ErrBankNotFound) {
			return result, nil
		}
		result.DeclineReason = "Settlement error"
		return result, err
	}

	latency, expired := waitLatency(ctx, s.env, acquirerLatencyMs(s.env, bank), s.timeout)
	declined := func(code ResponseCode, reason string) *SettleResult {
		return &SettleResult{
			ResponseCode:     code,
			DeclineReason:    reason,
			ResponseTimeMs:   latency,
			AcquirerBankCode: bank.Code,
		}
	}
	if expired {
		return declined(CodeTimeout, "Acquirer response timeout"), nil
	}

	merchant, err := s.directory.GetMerchantAccount(ctx, req.MerchantID, req.Currency, bank.Code)
	if err != nil {
		if errors.Is(err, ErrMerchantAccountNotFound) {
			return declined(CodeInvalidMerchant,
				fmt.Sprintf("Merchant account not found for %s in %s", req.MerchantID, req.Currency)), nil
		}
		return declined(CodeSystemError, "Settlement error"), err
	}

	var result *SettleResult
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx Repositories) error {
		locked, err := tx.Merchants().Lock(ctx, merchant.ID)
		if err != nil {
			return err
		}
		if locked.Status != MerchantStatusActive {
			result = declined(CodeInvalidMerchant,
				fmt.Sprintf("Merchant account not found for %s in %s", req.MerchantID, req.Currency))
			return nil
		}

		from, to := dayBounds(start)
		volume, err := tx.Settlements().SumGross(ctx, locked.ID, from, to)
		if err != nil {
			return fmt.Errorf("failed to sum daily volume: %w", err)
		}
		if volume.Add(req.Amount).GreaterThan(locked.DailyVolumeLimit) {
			result = declined(CodeLimitExceeded, "Daily volume limit exceeded")
			return nil
		}

		fees := CalculateFees(req.Amount, bank)

		successRate := min(acquirerMaxSuccessRate, bank.SuccessProbability+acquirerReliabilityBoost)
		if s.env.Float64() > successRate {
			result = declined(CodeProcessingError, "Acquirer processing error")
			return nil
		}

		now := s.env.Now()
		locked.Balance = locked.Balance.Add(fees.NetAmount)
		locked.UpdatedAt = now
		if err := tx.Merchants().Update(ctx, locked); err != nil {
			return fmt.Errorf("failed to update merchant account: %w", err)
		}

		settlement := &Settlement{
			ID:                uuid.New(),
			Reference:         fmt.Sprintf("SETTLE%d", s.env.IntRange(1_000_000_000, 9_999_999_999)),
			MerchantAccountID: locked.ID,
			PaymentID:         req.PaymentID,
			Gross:             req.Amount,
			Fee:               fees.TotalFee,
			Net:               fees.NetAmount,
			Status:            SettlementStatusSettled,
			CreatedAt:         now,
		}
		if err := tx.Settlements().Create(ctx, settlement); err != nil {
			return fmt.Errorf("failed to create settlement: %w", err)
		}

		balance := locked.Balance
		result = &SettleResult{
			Approved:         true,
			ResponseCode:     CodeApproved,
			ResponseTimeMs:   latency,
			AcquirerBankCode: bank.Code,
			SettlementID:     settlement.Reference,
			Fees:             &fees,
			MerchantBalance:  &balance,
		}
		return nil
	})
	if err != nil {
		return declined(CodeSystemError, "Settlement error"), err
	}

	return result, nil
}

// Reverse undoes a settlement: the merchant is debited by the net amount and
// the settlement is marked reversed. Returns ErrSettlementNotFound or
// ErrSettlementReversed.
func (s *AcquirerSettler) Reverse(ctx context.Context, settlementID string) (*Settlement, error) {
	var reversed *Settlement
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx Repositories) error {
		settlement, err := tx.Settlements().Lock(ctx, settlementID)
		if err != nil {
			return err
		}
		if settlement.Status == SettlementStatusReversed {
			return ErrSettlementReversed
		}

		merchant, err := tx.Merchants().Lock(ctx, settlement.MerchantAccountID)
		if err != nil {
			return err
		}

		now := s.env.Now()
		merchant.Balance = merchant.Balance.Sub(settlement.Net)
		merchant.UpdatedAt = now
		if err := tx.Merchants().Update(ctx, merchant); err != nil {
			return fmt.Errorf("failed to update merchant account: %w", err)
		}

		settlement.Status = SettlementStatusReversed
		settlement.ReversedAt = &now
		if err := tx.Settlements().Update(ctx, settlement); err != nil {
			return fmt.Errorf("failed to update settlement: %w", err)
		}

		reversed = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversed, nil
}
