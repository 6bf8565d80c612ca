package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

const (
	defaultPublishTimeout = 2 * time.Second
	reversalTimeout       = 10 * time.Second
)

// NetworkCoordinator runs the authorize, settle and capture saga of a purchase
// and keeps its routing/audit record.
type NetworkCoordinator struct {
	transactions NetworkTransactionRepository
	accounts     AccountRepository
	directory    BankLookup
	router       Router
	issuer       Authorizer
	acquirer     Settler
	env          sim.Environment

	logger         *zap.Logger
	observer       Observer
	publisher      EventPublisher
	publishTimeout time.Duration
	compensate     bool
}

// CoordinatorOption configures a NetworkCoordinator.
type CoordinatorOption func(*NetworkCoordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *NetworkCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an observer of stage timings and outcomes.
func WithObserver(observer Observer) CoordinatorOption {
	return func(c *NetworkCoordinator) {
		c.observer = observer
	}
}

// WithEventPublisher publishes a completion event for every finished attempt.
func WithEventPublisher(publisher EventPublisher) CoordinatorOption {
	return func(c *NetworkCoordinator) {
		c.publisher = publisher
	}
}

// WithPublishTimeout bounds the completion event publish.
func WithPublishTimeout(d time.Duration) CoordinatorOption {
	return func(c *NetworkCoordinator) {
		if d > 0 {
			c.publishTimeout = d
		}
	}
}

// WithCaptureCompensation reverses the settlement when capture fails.
// Without it a failed capture leaves the merchant credited and the customer
// not debited.
func WithCaptureCompensation(enabled bool) CoordinatorOption {
	return func(c *NetworkCoordinator) {
		c.compensate = enabled
	}
}

// NewNetworkCoordinator creates a NetworkCoordinator.
func NewNetworkCoordinator(
	store Repositories,
	directory BankLookup,
	router Router,
	issuer Authorizer,
	acquirer Settler,
	env sim.Environment,
	opts ...CoordinatorOption,
) *NetworkCoordinator {
	c := &NetworkCoordinator{
		transactions:   store.NetworkTransactions(),
		accounts:       store.Accounts(),
		directory:      directory,
		router:         router,
		issuer:         issuer,
		acquirer:       acquirer,
		env:            env,
		logger:         zap.NewNop(),
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process routes one purchase attempt through the network.
//
// Stage declines and failures are reported in the result, whose Transaction
// always holds the persisted audit record. A non-nil error means the request
// was invalid or the audit record could not be written.
func (c *NetworkCoordinator) Process(ctx context.Context, req PurchaseRequest) (*NetworkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := c.env.Now()
	logger := c.logger.With(
		zap.String("payment_id", req.PaymentID),
		zap.String("merchant_id", req.MerchantID),
		zap.String("amount", FormatAmount(req.Amount)),
		zap.String("currency", req.Currency),
	)

	issuerCode := BankCodeUnknown
	account, err := c.accounts.GetByID(ctx, req.AccountID)
	switch {
	case err == nil:
		issuerCode = account.BankCode
	case errors.Is(err, ErrAccountNotFound):
		logger.Warn("customer account not found", zap.String("account_id", req.AccountID.String()))
	default:
		return nil, fmt.Errorf("failed to get customer account: %w", err)
	}

	txn := NewNetworkTransaction(req, issuerCode, start)
	txn.AcquirerBankCode = BankCodeNotFound
	if err := c.transactions.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create network transaction: %w", err)
	}
	logger = logger.With(zap.String("network_transaction_id", txn.ID.String()))

	acquirerCode, routingReason, err := c.route(ctx, req)
	if err != nil {
		logger.Error("acquirer routing failed", zap.Error(err))
		txn.AcquirerStatus = TransactionStatusFailed
		txn.MarkFailed("Routing error")
		result := &NetworkResult{
			ResponseCode:  CodeSystemError,
			DeclineReason: txn.DeclineReason,
			Transaction:   txn,
		}
		return c.finish(ctx, logger, start, txn, result)
	}

	txn.AcquirerBankCode = acquirerCode
	logger.Info("routing purchase",
		zap.String("issuer", issuerCode),
		zap.String("acquirer", acquirerCode),
		zap.String("routing_reason", routingReason),
	)

	result := &NetworkResult{RoutingReason: routingReason, Transaction: txn}
	c.run(ctx, logger, req, txn, result)
	return c.finish(ctx, logger, start, txn, result)
}

// route picks the acquirer: the pinned one if given, otherwise the best ranked.
func (c *NetworkCoordinator) route(ctx context.Context, req PurchaseRequest) (string, string, error) {
	if req.AcquirerBankCode != "" {
		return req.AcquirerBankCode, fmt.Sprintf("Requested acquirer %s", req.AcquirerBankCode), nil
	}

	ranked, err := c.router.Rank(ctx, req.Amount.InexactFloat64(), req.Currency)
	if err != nil {
		return "", "", fmt.Errorf("failed to rank acquirers: %w", err)
	}
	if len(ranked) == 0 {
		return BankCodeNotFound, fmt.Sprintf("No available acquirer for %s", req.Currency), nil
	}

	best := ranked[0]
	return best.Bank.Code,
		fmt.Sprintf("Selected %s for optimal cost/performance (score %.2f of %d candidates)",
			best.Bank.Code, best.Score, len(ranked)),
		nil
}

// run executes the stages, updating txn and result in place.
func (c *NetworkCoordinator) run(ctx context.Context, logger *zap.Logger, req PurchaseRequest, txn *NetworkTransaction, result *NetworkResult) {
	// Issuer authorization.
	issuerStart := c.env.Now()
	auth, err := c.issuer.Authorize(ctx, AuthorizeRequest{
		AccountID:  req.AccountID,
		Amount:     req.Amount,
		PaymentID:  req.PaymentID,
		MerchantID: req.MerchantID,
	})
	if err != nil {
		logger.Error("issuer authorization failed", zap.Error(err))
	}
	issuerEnd := c.env.Now()
	txn.IssuerResponseTimeMs = sim.Elapsed(c.env, issuerStart)
	txn.IssuerResponseCode = auth.ResponseCode
	txn.IssuerProcessedAt = &issuerEnd
	c.observeStage(StageIssuer, auth.ResponseCode, txn.IssuerResponseTimeMs)

	result.ResponseCode = auth.ResponseCode
	if !auth.Approved {
		txn.MarkDeclined(auth.DeclineReason)
		result.DeclineReason = auth.DeclineReason
		logger.Info("issuer declined",
			zap.String("response_code", string(auth.ResponseCode)),
			zap.String("reason", auth.DeclineReason),
		)
		return
	}

	txn.State = SagaIssuerAuthorized
	txn.IssuerStatus = TransactionStatusAuthorized
	txn.AuthorizationCode = auth.AuthorizationCode
	result.AuthorizationCode = auth.AuthorizationCode
	c.checkpoint(ctx, logger, txn)

	// Acquirer settlement.
	acquirerStart := c.env.Now()
	merchant, err := c.directory.GetMerchantAccount(ctx, req.MerchantID, req.Currency, txn.AcquirerBankCode)
	if err != nil {
		if !errors.Is(err, ErrMerchantAccountNotFound) {
			logger.Error("merchant account lookup failed", zap.Error(err))
		}
		reason := fmt.Sprintf("No merchant account found for %s in %s", req.MerchantID, req.Currency)
		txn.AcquirerBankCode = BankCodeNotFound
		txn.AcquirerStatus = TransactionStatusFailed
		txn.MarkFailed(reason)
		result.ResponseCode = CodeInvalidMerchant
		result.DeclineReason = reason
		logger.Info("no merchant account for currency")
		return
	}
	if merchant.AcquirerBankCode != txn.AcquirerBankCode {
		logger.Info("switching acquirer to match merchant account",
			zap.String("from", txn.AcquirerBankCode),
			zap.String("to", merchant.AcquirerBankCode),
		)
		txn.AcquirerBankCode = merchant.AcquirerBankCode
		result.RoutingReason = fmt.Sprintf("Switched to %s, the merchant's acquirer for %s",
			merchant.AcquirerBankCode, req.Currency)
	}

	settle, err := c.acquirer.Settle(ctx, SettleRequest{
		PaymentID:        req.PaymentID,
		MerchantID:       req.MerchantID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		AcquirerBankCode: txn.AcquirerBankCode,
	})
	if err != nil {
		logger.Error("acquirer settlement failed", zap.Error(err))
	}
	acquirerEnd := c.env.Now()
	txn.AcquirerResponseTimeMs = sim.Elapsed(c.env, acquirerStart)
	txn.AcquirerResponseCode = settle.ResponseCode
	txn.AcquirerProcessedAt = &acquirerEnd
	c.observeStage(StageAcquirer, settle.ResponseCode, txn.AcquirerResponseTimeMs)

	result.ResponseCode = settle.ResponseCode
	if !settle.Approved {
		txn.AcquirerStatus = TransactionStatusDeclined
		txn.MarkFailed(settle.DeclineReason)
		result.DeclineReason = settle.DeclineReason
		logger.Info("acquirer declined",
			zap.String("response_code", string(settle.ResponseCode)),
			zap.String("reason", settle.DeclineReason),
		)
		return
	}

	txn.State = SagaAcquirerSettled
	txn.AcquirerStatus = TransactionStatusSettled
	txn.SettlementID = settle.SettlementID
	result.SettlementID = settle.SettlementID
	result.Fees = settle.Fees
	c.checkpoint(ctx, logger, txn)

	// Capture.
	captureStart := c.env.Now()
	capture, err := c.issuer.Capture(ctx, CaptureRequest{
		AccountID:         req.AccountID,
		Amount:            req.Amount,
		AuthorizationCode: auth.AuthorizationCode,
		PaymentID:         req.PaymentID,
	})
	if err != nil {
		logger.Error("capture failed", zap.Error(err))
	}
	captureCode := CodeApproved
	if !capture.Success {
		captureCode = CodeSystemError
	}
	c.observeStage(StageCapture, captureCode, sim.Elapsed(c.env, captureStart))

	if !capture.Success {
		reason := fmt.Sprintf("Capture failed: %s", capture.Error)
		txn.MarkFailed(reason)
		result.ResponseCode = CodeSystemError
		result.DeclineReason = reason
		logger.Warn("capture failed after settlement", zap.String("reason", capture.Error))
		if c.compensate {
			c.reverseSettlement(ctx, logger, txn)
		}
		return
	}

	txn.MarkCaptured(c.env.Now())
	result.Success = true
	result.ResponseCode = CodeApproved
}

// reverseSettlement compensates a settlement whose capture failed. The caller's
// cancellation is often what failed the capture, so the reversal detaches from it.
func (c *NetworkCoordinator) reverseSettlement(ctx context.Context, logger *zap.Logger, txn *NetworkTransaction) {
	reverseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reversalTimeout)
	defer cancel()
	if _, err := c.acquirer.Reverse(reverseCtx, txn.SettlementID); err != nil {
		logger.Error("settlement reversal failed",
			zap.String("settlement_id", txn.SettlementID),
			zap.Error(err),
		)
		return
	}
	txn.AcquirerStatus = TransactionStatusReversed
	logger.Info("settlement reversed", zap.String("settlement_id", txn.SettlementID))
}

// checkpoint persists an intermediate saga state. Failures are logged; the
// final persist in finish writes the full record again.
func (c *NetworkCoordinator) checkpoint(ctx context.Context, logger *zap.Logger, txn *NetworkTransaction) {
	if err := c.transactions.Update(ctx, txn); err != nil {
		logger.Warn("failed to checkpoint network transaction",
			zap.String("state", string(txn.State)),
			zap.Error(err),
		)
	}
}

// finish stamps completion, persists the record and emits the outcome.
// Persistence ignores cancellation of ctx so the audit trail is always written.
func (c *NetworkCoordinator) finish(ctx context.Context, logger *zap.Logger, start time.Time, txn *NetworkTransaction, result *NetworkResult) (*NetworkResult, error) {
	txn.Complete(c.env.Now(), sim.Elapsed(c.env, start))

	persistCtx := context.WithoutCancel(ctx)
	if err := c.transactions.Update(persistCtx, txn); err != nil {
		logger.Error("failed to persist network transaction", zap.Error(err))
		return result, fmt.Errorf("failed to persist network transaction: %w", err)
	}

	if c.observer != nil {
		c.observer.ObserveOutcome(txn)
	}

	if c.publisher != nil {
		publishCtx, cancel := context.WithTimeout(persistCtx, c.publishTimeout)
		defer cancel()
		if err := c.publisher.PublishNetworkTransactionCompleted(publishCtx, txn); err != nil {
			logger.Warn("failed to publish network transaction event", zap.Error(err))
		}
	}

	logger.Info("network transaction completed",
		zap.String("state", string(txn.State)),
		zap.String("final_status", string(txn.FinalStatus)),
		zap.Int("total_processing_time_ms", txn.TotalProcessingTimeMs),
	)
	return result, nil
}

func (c *NetworkCoordinator) observeStage(stage Stage, code ResponseCode, latencyMs int) {
	if c.observer != nil {
		c.observer.ObserveStage(stage, code, latencyMs)
	}
}
