package domain

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// Regex pattern for validating decimal amounts with up to 2 decimal places
	amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

// ParseAmount parses a decimal string with up to 2 decimal places.
// Returns ErrInvalidAmount wrapped with detail if the value is malformed or not positive.
func ParseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: amount value cannot be empty", ErrInvalidAmount)
	}

	if !amountPattern.MatchString(value) {
		return decimal.Zero, fmt.Errorf("%w: must be a decimal with up to 2 decimal places", ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	return amount, nil
}

// validateAmount applies the ParseAmount rules to an already decoded amount.
// Money is stored with 2 decimal places, so finer amounts are rejected rather
// than rounded.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: must be a decimal with up to 2 decimal places", ErrInvalidAmount)
	}
	return nil
}

// FormatAmount renders an amount with exactly 2 decimal places.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// ValidateCurrencyCode validates that a currency code follows ISO 4217 format.
func ValidateCurrencyCode(code string) error {
	if code == "" {
		return fmt.Errorf("%w: currency code cannot be empty", ErrInvalidRequest)
	}

	if len(code) != 3 {
		return fmt.Errorf("%w: currency code must be 3 characters (ISO 4217)", ErrInvalidRequest)
	}

	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("%w: currency code must contain only uppercase letters", ErrInvalidRequest)
		}
	}

	return nil
}

// Validate checks the fields common to every purchase request.
func (r PurchaseRequest) Validate() error {
	if r.PaymentID == "" {
		return fmt.Errorf("%w: payment_id is required", ErrInvalidRequest)
	}
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("%w: account_id is required", ErrInvalidRequest)
	}
	if r.MerchantID == "" {
		return fmt.Errorf("%w: merchant_id is required", ErrInvalidRequest)
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	return ValidateCurrencyCode(r.Currency)
}

// Validate checks a settlement request.
func (r SettleRequest) Validate() error {
	if r.PaymentID == "" {
		return fmt.Errorf("%w: payment_id is required", ErrInvalidRequest)
	}
	if r.MerchantID == "" {
		return fmt.Errorf("%w: merchant_id is required", ErrInvalidRequest)
	}
	if r.AcquirerBankCode == "" {
		return fmt.Errorf("%w: acquirer_bank_code is required", ErrInvalidRequest)
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	return ValidateCurrencyCode(r.Currency)
}

// Validate checks an authorization request.
func (r AuthorizeRequest) Validate() error {
	if r.PaymentID == "" {
		return fmt.Errorf("%w: payment_id is required", ErrInvalidRequest)
	}
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("%w: account_id is required", ErrInvalidRequest)
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	return nil
}
