package domain

import (
	"context"
	"errors"
	"fmt"
)

// BankDirectory is a read-only view of bank configurations and merchant accounts.
type BankDirectory struct {
	banks     BankRepository
	merchants MerchantRepository
}

// NewBankDirectory creates a BankDirectory over the given repositories.
func NewBankDirectory(banks BankRepository, merchants MerchantRepository) *BankDirectory {
	return &BankDirectory{
		banks:     banks,
		merchants: merchants,
	}
}

// GetActiveBankConfig returns the active bank with the given code, or
// ErrBankNotFound.
func (d *BankDirectory) GetActiveBankConfig(ctx context.Context, code string) (*BankConfig, error) {
	bank, err := d.banks.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrBankNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get bank %s: %w", code, err)
	}
	return bank, nil
}

// GetMerchantAccount resolves the merchant's active account in currency.
// With a preferred acquirer, an exact (merchant, currency, acquirer) match wins;
// otherwise any active account in that currency is returned.
func (d *BankDirectory) GetMerchantAccount(ctx context.Context, merchantID, currency, preferredAcquirer string) (*MerchantAccount, error) {
	if preferredAcquirer != "" {
		account, err := d.merchants.FindActive(ctx, merchantID, currency, preferredAcquirer)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, ErrMerchantAccountNotFound) {
			return nil, fmt.Errorf("failed to find merchant account: %w", err)
		}
	}

	account, err := d.merchants.FindActive(ctx, merchantID, currency, "")
	if err != nil {
		if errors.Is(err, ErrMerchantAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find merchant account: %w", err)
	}
	return account, nil
}

// ListActiveAcquirers returns active acquirer or dual banks supporting
// currency, ordered by bank code.
func (d *BankDirectory) ListActiveAcquirers(ctx context.Context, currency string) ([]*BankConfig, error) {
	banks, err := d.banks.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}

	acquirers := make([]*BankConfig, 0, len(banks))
	for _, bank := range banks {
		if bank.Active && bank.Role.CanAcquire() && bank.SupportsCurrency(currency) {
			acquirers = append(acquirers, bank)
		}
	}
	return acquirers, nil
}
