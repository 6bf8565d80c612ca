package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// querier is the subset of pgx shared by the pool and a transaction, so each
// repository is written once for both.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// repositories binds every repository to one querier.
type repositories struct {
	q querier
}

func (r repositories) Banks() domain.BankRepository         { return &BankRepository{q: r.q} }
func (r repositories) Merchants() domain.MerchantRepository { return &MerchantRepository{q: r.q} }
func (r repositories) Accounts() domain.AccountRepository   { return &AccountRepository{q: r.q} }
func (r repositories) Ledger() domain.LedgerRepository      { return &LedgerRepository{q: r.q} }
func (r repositories) Settlements() domain.SettlementRepository {
	return &SettlementRepository{q: r.q}
}
func (r repositories) NetworkTransactions() domain.NetworkTransactionRepository {
	return &NetworkTransactionRepository{q: r.q}
}

// Store implements domain.Store using PostgreSQL.
type Store struct {
	repositories
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Store whose non-transactional repositories use the pool.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		repositories: repositories{q: pool},
		pool:         pool,
		logger:       logger,
	}
}

// WithTransaction executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Warn("failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := fn(ctx, repositories{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
