// Package memstore is an in-memory domain.Store for tests and local runs.
//
// Transactions are serialized by a store-wide mutex and roll back by
// restoring a snapshot taken when the transaction began. Records are copied
// on the way in and out, so callers never share memory with the store.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

type state struct {
	banks        map[string]domain.BankConfig
	merchants    map[uuid.UUID]domain.MerchantAccount
	accounts     map[uuid.UUID]domain.CustomerAccount
	ledger       []domain.LedgerEntry
	settlements  []domain.Settlement
	transactions []domain.NetworkTransaction
}

func newState() *state {
	return &state{
		banks:     make(map[string]domain.BankConfig),
		merchants: make(map[uuid.UUID]domain.MerchantAccount),
		accounts:  make(map[uuid.UUID]domain.CustomerAccount),
	}
}

// clone copies the containers. Stored values are replaced, never mutated in
// place, so a shallow copy is a full snapshot.
func (s *state) clone() *state {
	return &state{
		banks:        maps.Clone(s.banks),
		merchants:    maps.Clone(s.merchants),
		accounts:     maps.Clone(s.accounts),
		ledger:       slices.Clone(s.ledger),
		settlements:  slices.Clone(s.settlements),
		transactions: slices.Clone(s.transactions),
	}
}

// Store is an in-memory domain.Store.
type Store struct {
	mu sync.Mutex
	st *state
}

// New creates an empty Store.
func New() *Store {
	return &Store{st: newState()}
}

var _ domain.Store = (*Store)(nil)

// view runs repository calls either autocommitted (store set) or inside a
// transaction that already holds the mutex (st set).
type view struct {
	store *Store
	st    *state
}

func (v view) do(fn func(st *state) error) error {
	if v.store != nil {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
		return fn(v.store.st)
	}
	return fn(v.st)
}

type repositories struct {
	v view
}

func (r repositories) Banks() domain.BankRepository        { return bankRepository(r) }
func (r repositories) Merchants() domain.MerchantRepository { return merchantRepository(r) }
func (r repositories) Accounts() domain.AccountRepository   { return accountRepository(r) }
func (r repositories) Ledger() domain.LedgerRepository      { return ledgerRepository(r) }
func (r repositories) Settlements() domain.SettlementRepository {
	return settlementRepository(r)
}
func (r repositories) NetworkTransactions() domain.NetworkTransactionRepository {
	return networkTransactionRepository(r)
}

func (s *Store) autocommit() repositories {
	return repositories{v: view{store: s}}
}

func (s *Store) Banks() domain.BankRepository             { return s.autocommit().Banks() }
func (s *Store) Merchants() domain.MerchantRepository     { return s.autocommit().Merchants() }
func (s *Store) Accounts() domain.AccountRepository       { return s.autocommit().Accounts() }
func (s *Store) Ledger() domain.LedgerRepository          { return s.autocommit().Ledger() }
func (s *Store) Settlements() domain.SettlementRepository { return s.autocommit().Settlements() }
func (s *Store) NetworkTransactions() domain.NetworkTransactionRepository {
	return s.autocommit().NetworkTransactions()
}

// WithTransaction runs fn with exclusive access to the store. If fn returns an
// error or panics, every change it made is discarded.
//
// fn must use only the repositories it is given; calling the Store itself
// from inside fn deadlocks.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, repositories{v: view{st: s.st}})
}
