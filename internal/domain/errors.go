package domain

import "errors"

var (
	// ErrInvalidRequest is returned when a request is missing or has malformed fields
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAccountNotFound is returned when a customer account doesn't exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountInactive is returned when a customer account is not active
	ErrAccountInactive = errors.New("account is not active")

	// ErrInsufficientFunds is returned when the effective balance doesn't cover the amount
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDailyLimitExceeded is returned when a debit would exceed the account's daily limit
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")

	// ErrInvalidAmount is returned when an amount is not a positive decimal
	ErrInvalidAmount = errors.New("invalid amount: must be positive")

	// ErrCurrencyMismatch is returned when a currency doesn't match the account
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrBankNotFound is returned when no active bank has the requested code
	ErrBankNotFound = errors.New("bank configuration not found")

	// ErrMerchantAccountNotFound is returned when no active merchant account matches
	ErrMerchantAccountNotFound = errors.New("merchant account not found")

	// ErrSettlementNotFound is returned when a settlement reference is unknown
	ErrSettlementNotFound = errors.New("settlement not found")

	// ErrSettlementReversed is returned when reversing an already reversed settlement
	ErrSettlementReversed = errors.New("settlement already reversed")

	// ErrNetworkTransactionNotFound is returned when no routing record exists for a payment
	ErrNetworkTransactionNotFound = errors.New("network transaction not found")
)
