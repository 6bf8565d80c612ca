package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

// ReferenceTypePaymentCapture marks ledger entries written by Capture.
const ReferenceTypePaymentCapture = "payment_capture"

// Generic decline messages of a transient issuer failure.
var issuerFailureReasons = []string{
	"System temporarily unavailable",
	"Network timeout",
	"Processing error",
	"Temporary decline",
}

var highAmountRatio = decimal.NewFromFloat(0.8)

// IssuerAuthorizer simulates the customer's bank: it authorizes purchases
// against customer accounts and captures them through the ledger.
type IssuerAuthorizer struct {
	accounts  AccountRepository
	directory BankLookup
	ledger    FundsLedger
	env       sim.Environment
	timeout   time.Duration
}

// NewIssuerAuthorizer creates an IssuerAuthorizer. A zero timeout disables the
// stage deadline.
func NewIssuerAuthorizer(
	accounts AccountRepository,
	directory BankLookup,
	ledger FundsLedger,
	env sim.Environment,
	timeout time.Duration,
) *IssuerAuthorizer {
	return &IssuerAuthorizer{
		accounts:  accounts,
		directory: directory,
		ledger:    ledger,
		env:       env,
		timeout:   timeout,
	}
}

// Authorize runs the issuer checks in order and stops at the first failure.
// No balance is mutated.
//
// The result is never nil. A non-nil error reports an infrastructure fault;
// the result then carries CodeSystemError.
func (a *IssuerAuthorizer) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthResult, error) {
	start := a.env.Now()

	account, err := a.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return a.decline(start, "", CodeInvalidAccount, "Account not found"), nil
		}
		return a.systemError(start, ""), fmt.Errorf("failed to get account: %w", err)
	}

	bank, err := a.directory.GetActiveBankConfig(ctx, account.BankCode)
	if err != nil {
		if errors.Is(err, ErrBankNotFound) {
			return a.decline(start, account.BankCode, CodeSystemError, "Bank configuration not found"), nil
		}
		return a.systemError(start, account.BankCode), err
	}

	latency, expired := waitLatency(ctx, a.env, issuerLatencyMs(a.env, bank, start), a.timeout)
	if expired {
		return &AuthResult{
			ResponseCode:   CodeTimeout,
			DeclineReason:  "Issuer response timeout",
			ResponseTimeMs: latency,
			BankCode:       bank.Code,
		}, nil
	}

	declined := func(code ResponseCode, reason string) *AuthResult {
		return &AuthResult{
			ResponseCode:   code,
			DeclineReason:  reason,
			ResponseTimeMs: latency,
			BankCode:       bank.Code,
		}
	}

	if !account.IsActive() {
		return declined(CodeInvalidAccount, fmt.Sprintf("Account status: %s", account.Status)), nil
	}

	if !bank.SupportsCurrency(account.Currency) {
		return declined(CodeSystemError, fmt.Sprintf("Currency %s not supported", account.Currency)), nil
	}

	if req.Amount.GreaterThan(bank.SingleTransactionLimit) {
		return declined(CodeLimitExceeded, "Amount exceeds single transaction limit"), nil
	}

	if !account.HasSufficientFunds(req.Amount) {
		return declined(CodeInsufficientFunds, "Insufficient funds"), nil
	}

	used, err := a.ledger.DailyDebitTotal(ctx, account.ID, start)
	if err != nil {
		return declined(CodeSystemError, "System error"), err
	}
	if used.Add(req.Amount).GreaterThan(account.DailyLimit) {
		return declined(CodeLimitExceeded, "Daily limit exceeded"), nil
	}

	if flagged, reason := a.screenFraud(bank, account, req.Amount); flagged {
		return declined(CodeFraudSuspected, reason), nil
	}

	if a.env.Float64() > bank.SuccessProbability {
		reason := issuerFailureReasons[a.env.IntRange(0, len(issuerFailureReasons)-1)]
		return declined(CodeSystemError, reason), nil
	}

	available := account.EffectiveBalance().Sub(req.Amount)
	return &AuthResult{
		Approved:          true,
		ResponseCode:      CodeApproved,
		ResponseTimeMs:    latency,
		BankCode:          bank.Code,
		AuthorizationCode: fmt.Sprintf("AUTH%06d", a.env.IntRange(100000, 999999)),
		AvailableBalance:  &available,
	}, nil
}

// screenFraud applies the bank's simulated fraud heuristics.
func (a *IssuerAuthorizer) screenFraud(bank *BankConfig, account *CustomerAccount, amount decimal.Decimal) (bool, string) {
	if bank.FraudLevel == FraudLevelLow {
		return false, ""
	}

	if amount.GreaterThan(account.DailyLimit.Mul(highAmountRatio)) {
		if a.env.Float64() < 0.1 {
			return true, "High amount transaction"
		}
	}

	if bank.FraudLevel == FraudLevelHigh {
		if a.env.Float64() < 0.02 {
			return true, "Velocity check failed"
		}
	}

	return false, ""
}

// Capture debits the customer account for an authorized purchase.
// Rule violations are reported in the result; a non-nil error reports an
// infrastructure fault.
func (a *IssuerAuthorizer) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	entry, err := a.ledger.Debit(ctx, LedgerOperation{
		AccountID:     req.AccountID,
		Amount:        req.Amount,
		ReferenceID:   req.PaymentID,
		ReferenceType: ReferenceTypePaymentCapture,
		Description:   fmt.Sprintf("Payment capture - Auth: %s", req.AuthorizationCode),
		Type:          EntryTypePaymentDebit,
	})
	if err != nil {
		result := &CaptureResult{Error: err.Error()}
		if isLedgerRejection(err) {
			return result, nil
		}
		result.Error = "Capture error"
		return result, err
	}

	return &CaptureResult{
		Success:    true,
		EntryID:    entry.ID,
		NewBalance: entry.BalanceAfter,
	}, nil
}

func (a *IssuerAuthorizer) decline(start time.Time, bankCode string, code ResponseCode, reason string) *AuthResult {
	return &AuthResult{
		ResponseCode:   code,
		DeclineReason:  reason,
		ResponseTimeMs: sim.Elapsed(a.env, start),
		BankCode:       bankCode,
	}
}

func (a *IssuerAuthorizer) systemError(start time.Time, bankCode string) *AuthResult {
	return a.decline(start, bankCode, CodeSystemError, "System error")
}

// isLedgerRejection reports whether err is a business rule rejection rather
// than an infrastructure fault.
func isLedgerRejection(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrDailyLimitExceeded) ||
		errors.Is(err, ErrInvalidAmount)
}
