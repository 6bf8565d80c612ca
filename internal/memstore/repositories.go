package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

type bankRepository struct{ v view }

func copyBank(b domain.BankConfig) *domain.BankConfig {
	b.SupportedCurrencies = slices.Clone(b.SupportedCurrencies)
	return &b
}

func (r bankRepository) GetActiveByCode(_ context.Context, code string) (*domain.BankConfig, error) {
	var bank *domain.BankConfig
	err := r.v.do(func(st *state) error {
		b, ok := st.banks[code]
		if !ok || !b.Active {
			return domain.ErrBankNotFound
		}
		bank = copyBank(b)
		return nil
	})
	return bank, err
}

func (r bankRepository) ListActive(_ context.Context) ([]*domain.BankConfig, error) {
	var banks []*domain.BankConfig
	err := r.v.do(func(st *state) error {
		for _, code := range slices.Sorted(maps.Keys(st.banks)) {
			if b := st.banks[code]; b.Active {
				banks = append(banks, copyBank(b))
			}
		}
		return nil
	})
	return banks, err
}

func (r bankRepository) Upsert(_ context.Context, bank *domain.BankConfig) error {
	return r.v.do(func(st *state) error {
		st.banks[bank.Code] = *copyBank(*bank)
		return nil
	})
}

type merchantRepository struct{ v view }

func (r merchantRepository) FindActive(_ context.Context, merchantID, currency, acquirerBankCode string) (*domain.MerchantAccount, error) {
	var found *domain.MerchantAccount
	err := r.v.do(func(st *state) error {
		for _, m := range st.merchants {
			if m.MerchantID != merchantID || m.Currency != currency || m.Status != domain.MerchantStatusActive {
				continue
			}
			if acquirerBankCode != "" && m.AcquirerBankCode != acquirerBankCode {
				continue
			}
			if found == nil || m.AcquirerBankCode < found.AcquirerBankCode {
				found = &m
			}
		}
		if found == nil {
			return domain.ErrMerchantAccountNotFound
		}
		return nil
	})
	return found, err
}

func (r merchantRepository) Lock(_ context.Context, id uuid.UUID) (*domain.MerchantAccount, error) {
	var account *domain.MerchantAccount
	err := r.v.do(func(st *state) error {
		m, ok := st.merchants[id]
		if !ok {
			return domain.ErrMerchantAccountNotFound
		}
		account = &m
		return nil
	})
	return account, err
}

func (r merchantRepository) Update(_ context.Context, account *domain.MerchantAccount) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.merchants[account.ID]; !ok {
			return domain.ErrMerchantAccountNotFound
		}
		st.merchants[account.ID] = *account
		return nil
	})
}

func (r merchantRepository) Upsert(_ context.Context, account *domain.MerchantAccount) error {
	return r.v.do(func(st *state) error {
		stored := *account
		for id, m := range st.merchants {
			if m.MerchantID == account.MerchantID &&
				m.AcquirerBankCode == account.AcquirerBankCode &&
				m.Currency == account.Currency {
				delete(st.merchants, id)
				stored.ID = id
				stored.Balance = m.Balance
				stored.ReservedBalance = m.ReservedBalance
			}
		}
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		account.ID = stored.ID
		st.merchants[stored.ID] = stored
		return nil
	})
}

type accountRepository struct{ v view }

func (r accountRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.CustomerAccount, error) {
	var account *domain.CustomerAccount
	err := r.v.do(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		account = &a
		return nil
	})
	return account, err
}

// Lock is GetByID: the transaction already holds the store mutex.
func (r accountRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.CustomerAccount, error) {
	return r.GetByID(ctx, id)
}

func (r accountRepository) Update(_ context.Context, account *domain.CustomerAccount) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.accounts[account.ID]; !ok {
			return domain.ErrAccountNotFound
		}
		st.accounts[account.ID] = *account
		return nil
	})
}

func (r accountRepository) Upsert(_ context.Context, account *domain.CustomerAccount) error {
	if account.ID == uuid.Nil {
		return fmt.Errorf("account id is required")
	}
	return r.v.do(func(st *state) error {
		stored := *account
		if existing, ok := st.accounts[account.ID]; ok {
			stored.Balance = existing.Balance
			stored.LastActivityAt = existing.LastActivityAt
		}
		st.accounts[account.ID] = stored
		return nil
	})
}

type ledgerRepository struct{ v view }

func (r ledgerRepository) Append(_ context.Context, entry *domain.LedgerEntry) error {
	return r.v.do(func(st *state) error {
		st.ledger = append(st.ledger, *entry)
		return nil
	})
}

func (r ledgerRepository) SumAmounts(_ context.Context, accountID uuid.UUID, types []domain.EntryType, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.v.do(func(st *state) error {
		for _, e := range st.ledger {
			if e.AccountID != accountID || !slices.Contains(types, e.Type) {
				continue
			}
			if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
				continue
			}
			total = total.Add(e.Amount)
		}
		return nil
	})
	return total, err
}

func (r ledgerRepository) ListByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	err := r.v.do(func(st *state) error {
		var matched []domain.LedgerEntry
		for _, e := range st.ledger {
			if e.AccountID == accountID {
				matched = append(matched, e)
			}
		}
		slices.Reverse(matched)
		slices.SortStableFunc(matched, func(a, b domain.LedgerEntry) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		for i := offset; i < len(matched) && len(entries) < limit; i++ {
			e := matched[i]
			entries = append(entries, &e)
		}
		return nil
	})
	return entries, err
}

type settlementRepository struct{ v view }

func (r settlementRepository) Create(_ context.Context, settlement *domain.Settlement) error {
	return r.v.do(func(st *state) error {
		for _, s := range st.settlements {
			if s.Reference == settlement.Reference {
				return fmt.Errorf("settlement reference %s already exists", settlement.Reference)
			}
		}
		st.settlements = append(st.settlements, *settlement)
		return nil
	})
}

func (r settlementRepository) GetByReference(_ context.Context, reference string) (*domain.Settlement, error) {
	var found *domain.Settlement
	err := r.v.do(func(st *state) error {
		for _, s := range st.settlements {
			if s.Reference == reference {
				found = &s
				return nil
			}
		}
		return domain.ErrSettlementNotFound
	})
	return found, err
}

// Lock is GetByReference: the transaction already holds the store mutex.
func (r settlementRepository) Lock(ctx context.Context, reference string) (*domain.Settlement, error) {
	return r.GetByReference(ctx, reference)
}

func (r settlementRepository) Update(_ context.Context, settlement *domain.Settlement) error {
	return r.v.do(func(st *state) error {
		for i, s := range st.settlements {
			if s.ID == settlement.ID {
				st.settlements[i] = *settlement
				return nil
			}
		}
		return domain.ErrSettlementNotFound
	})
}

func (r settlementRepository) SumGross(_ context.Context, merchantAccountID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.v.do(func(st *state) error {
		for _, s := range st.settlements {
			if s.MerchantAccountID != merchantAccountID || s.Status == domain.SettlementStatusReversed {
				continue
			}
			if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
				continue
			}
			total = total.Add(s.Gross)
		}
		return nil
	})
	return total, err
}

type networkTransactionRepository struct{ v view }

func (r networkTransactionRepository) Create(_ context.Context, txn *domain.NetworkTransaction) error {
	return r.v.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.ID == txn.ID {
				return fmt.Errorf("network transaction %s already exists", txn.ID)
			}
		}
		st.transactions = append(st.transactions, *txn)
		return nil
	})
}

func (r networkTransactionRepository) Update(_ context.Context, txn *domain.NetworkTransaction) error {
	return r.v.do(func(st *state) error {
		for i, t := range st.transactions {
			if t.ID == txn.ID {
				st.transactions[i] = *txn
				return nil
			}
		}
		return domain.ErrNetworkTransactionNotFound
	})
}

func (r networkTransactionRepository) GetLatestByPaymentID(_ context.Context, paymentID string) (*domain.NetworkTransaction, error) {
	var found *domain.NetworkTransaction
	err := r.v.do(func(st *state) error {
		for i := len(st.transactions) - 1; i >= 0; i-- {
			if t := st.transactions[i]; t.PaymentID == paymentID {
				found = &t
				return nil
			}
		}
		return domain.ErrNetworkTransactionNotFound
	})
	return found, err
}
