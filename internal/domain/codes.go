package domain

// ResponseCode is an ISO 8583 style response code shared by issuer and
// acquirer stages.
type ResponseCode string

const (
	CodeApproved          ResponseCode = "00"
	CodeInvalidMerchant   ResponseCode = "03"
	CodeInvalidAccount    ResponseCode = "14"
	CodeInsufficientFunds ResponseCode = "51"
	CodeExpiredCard       ResponseCode = "54" // reserved, never produced
	CodeFraudSuspected    ResponseCode = "59"
	CodeLimitExceeded     ResponseCode = "61" // daily/single-transaction or merchant volume limit
	CodeTimeout           ResponseCode = "68"
	CodeProcessingError   ResponseCode = "91"
	CodeSystemError       ResponseCode = "96"
)

// Approved reports whether the code means success.
func (c ResponseCode) Approved() bool {
	return c == CodeApproved
}

// Name returns the symbolic name of the code.
func (c ResponseCode) Name() string {
	switch c {
	case CodeApproved:
		return "approved"
	case CodeInvalidMerchant:
		return "invalid_merchant"
	case CodeInvalidAccount:
		return "invalid_account"
	case CodeInsufficientFunds:
		return "insufficient_funds"
	case CodeExpiredCard:
		return "expired_card"
	case CodeFraudSuspected:
		return "fraud_suspected"
	case CodeLimitExceeded:
		return "limit_exceeded"
	case CodeTimeout:
		return "timeout"
	case CodeProcessingError:
		return "processing_error"
	case CodeSystemError:
		return "system_error"
	default:
		return "unknown"
	}
}
