// Package bootstrap loads the simulated bank network from a YAML file and
// writes it to a store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

// Network is the document root.
type Network struct {
	Banks     []Bank     `yaml:"banks"`
	Merchants []Merchant `yaml:"merchants"`
	Accounts  []Account  `yaml:"accounts"`
}

// Bank describes one simulated bank. Money fields are decimal strings.
type Bank struct {
	Code                   string   `yaml:"code"`
	Name                   string   `yaml:"name"`
	Role                   string   `yaml:"role"`
	Tier                   int      `yaml:"tier"`
	BaseLatencyMs          int      `yaml:"base_latency_ms"`
	SuccessProbability     float64  `yaml:"success_probability"`
	PerTransactionFee      string   `yaml:"per_transaction_fee"`
	PercentageFee          string   `yaml:"percentage_fee"`
	SingleTransactionLimit string   `yaml:"single_transaction_limit"`
	DailyTransactionLimit  string   `yaml:"daily_transaction_limit"`
	Currencies             []string `yaml:"currencies"`
	Country                string   `yaml:"country"`
	BusinessHours          [2]int   `yaml:"business_hours"`
	Supports247            bool     `yaml:"supports_24_7"`
	FraudLevel             string   `yaml:"fraud_level"`
	Requires3DS            bool     `yaml:"requires_3ds"`
	Inactive               bool     `yaml:"inactive"`
}

// Merchant describes one merchant account at an acquirer.
type Merchant struct {
	MerchantID          string `yaml:"merchant_id"`
	Acquirer            string `yaml:"acquirer"`
	Currency            string `yaml:"currency"`
	AccountNumber       string `yaml:"account_number"`
	BusinessName        string `yaml:"business_name"`
	BusinessType        string `yaml:"business_type"`
	MCC                 string `yaml:"mcc"`
	DailyVolumeLimit    string `yaml:"daily_volume_limit"`
	MonthlyVolumeLimit  string `yaml:"monthly_volume_limit"`
	RiskLevel           string `yaml:"risk_level"`
	SettlementFrequency string `yaml:"settlement_frequency"`
	Status              string `yaml:"status"`
}

// Account describes one customer account at an issuer.
type Account struct {
	ID             string `yaml:"id"`
	AccountNumber  string `yaml:"account_number"`
	CustomerID     string `yaml:"customer_id"`
	Bank           string `yaml:"bank"`
	Type           string `yaml:"type"`
	Status         string `yaml:"status"`
	Balance        string `yaml:"balance"`
	OverdraftLimit string `yaml:"overdraft_limit"`
	DailyLimit     string `yaml:"daily_limit"`
	Currency       string `yaml:"currency"`
}

// Load reads and parses a network file.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file: %w", err)
	}
	return Parse(data)
}

// Parse parses a network document.
func Parse(data []byte) (*Network, error) {
	var n Network
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse network file: %w", err)
	}
	return &n, nil
}

// Apply converts every entry and upserts it in one transaction.
// Nothing is written if any entry is invalid.
func (n *Network) Apply(ctx context.Context, store domain.Store) error {
	banks, merchants, accounts, err := n.convert()
	if err != nil {
		return err
	}

	return store.WithTransaction(ctx, func(ctx context.Context, tx domain.Repositories) error {
		for _, b := range banks {
			if err := tx.Banks().Upsert(ctx, b); err != nil {
				return err
			}
		}
		for _, a := range accounts {
			if err := tx.Accounts().Upsert(ctx, a); err != nil {
				return err
			}
		}
		for _, m := range merchants {
			if err := tx.Merchants().Upsert(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (n *Network) convert() ([]*domain.BankConfig, []*domain.MerchantAccount, []*domain.CustomerAccount, error) {
	var errs []error
	known := make(map[string]bool, len(n.Banks))

	banks := make([]*domain.BankConfig, 0, len(n.Banks))
	for i, b := range n.Banks {
		bank, err := b.toDomain()
		if err != nil {
			errs = append(errs, fmt.Errorf("banks[%d] %s: %w", i, b.Code, err))
			continue
		}
		known[bank.Code] = true
		banks = append(banks, bank)
	}

	accounts := make([]*domain.CustomerAccount, 0, len(n.Accounts))
	for i, a := range n.Accounts {
		account, err := a.toDomain()
		if err == nil && !known[account.BankCode] {
			err = fmt.Errorf("unknown bank %q", account.BankCode)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("accounts[%d] %s: %w", i, a.ID, err))
			continue
		}
		accounts = append(accounts, account)
	}

	merchants := make([]*domain.MerchantAccount, 0, len(n.Merchants))
	for i, m := range n.Merchants {
		merchant, err := m.toDomain()
		if err == nil && !known[merchant.AcquirerBankCode] {
			err = fmt.Errorf("unknown acquirer %q", merchant.AcquirerBankCode)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("merchants[%d] %s: %w", i, m.MerchantID, err))
			continue
		}
		merchants = append(merchants, merchant)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, nil, nil, err
	}
	return banks, merchants, accounts, nil
}

func (b Bank) toDomain() (*domain.BankConfig, error) {
	if b.Code == "" {
		return nil, errors.New("code is required")
	}
	role := domain.BankRole(b.Role)
	switch role {
	case domain.BankRoleIssuer, domain.BankRoleAcquirer, domain.BankRoleDual:
	default:
		return nil, fmt.Errorf("invalid role %q", b.Role)
	}
	if b.Tier < 1 || b.Tier > 3 {
		return nil, fmt.Errorf("invalid tier %d", b.Tier)
	}
	if b.SuccessProbability < 0 || b.SuccessProbability > 1 {
		return nil, fmt.Errorf("success_probability %v is outside [0, 1]", b.SuccessProbability)
	}
	fraud := domain.FraudLevel(b.FraudLevel)
	switch fraud {
	case "":
		fraud = domain.FraudLevelMedium
	case domain.FraudLevelLow, domain.FraudLevelMedium, domain.FraudLevelHigh:
	default:
		return nil, fmt.Errorf("invalid fraud_level %q", b.FraudLevel)
	}

	var p parser
	bank := &domain.BankConfig{
		Code:                   b.Code,
		Name:                   b.Name,
		Role:                   role,
		Tier:                   domain.BankTier(b.Tier),
		BaseLatencyMs:          b.BaseLatencyMs,
		SuccessProbability:     b.SuccessProbability,
		PerTransactionFee:      p.decimal("per_transaction_fee", b.PerTransactionFee),
		PercentageFee:          p.decimal("percentage_fee", b.PercentageFee),
		SingleTransactionLimit: p.decimal("single_transaction_limit", b.SingleTransactionLimit),
		DailyTransactionLimit:  p.decimal("daily_transaction_limit", b.DailyTransactionLimit),
		SupportedCurrencies:    b.Currencies,
		CountryCode:            orDefault(b.Country, "US"),
		BusinessHoursStart:     b.BusinessHours[0],
		BusinessHoursEnd:       b.BusinessHours[1],
		Supports247:            b.Supports247,
		FraudLevel:             fraud,
		Requires3DS:            b.Requires3DS,
		Active:                 !b.Inactive,
	}
	if !b.Supports247 && b.BusinessHours == [2]int{} {
		bank.BusinessHoursStart, bank.BusinessHoursEnd = 9, 17
	}
	for _, c := range b.Currencies {
		if err := domain.ValidateCurrencyCode(c); err != nil {
			p.errs = append(p.errs, err)
		}
	}
	return bank, p.err()
}

func (m Merchant) toDomain() (*domain.MerchantAccount, error) {
	if m.MerchantID == "" || m.Acquirer == "" {
		return nil, errors.New("merchant_id and acquirer are required")
	}
	if err := domain.ValidateCurrencyCode(m.Currency); err != nil {
		return nil, err
	}

	var p parser
	merchant := &domain.MerchantAccount{
		MerchantID:          m.MerchantID,
		AcquirerBankCode:    m.Acquirer,
		Currency:            m.Currency,
		AccountNumber:       orDefault(m.AccountNumber, fmt.Sprintf("%s-%s-%s", m.Acquirer, m.MerchantID, m.Currency)),
		BusinessName:        m.BusinessName,
		BusinessType:        orDefault(m.BusinessType, "retail"),
		MCC:                 orDefault(m.MCC, "5999"),
		Balance:             decimal.Zero,
		ReservedBalance:     decimal.Zero,
		DailyVolumeLimit:    p.decimal("daily_volume_limit", m.DailyVolumeLimit),
		MonthlyVolumeLimit:  p.decimal("monthly_volume_limit", orDefault(m.MonthlyVolumeLimit, "0")),
		RiskLevel:           orDefault(m.RiskLevel, "low"),
		SettlementFrequency: orDefault(m.SettlementFrequency, "daily"),
		Status:              domain.MerchantStatus(orDefault(m.Status, string(domain.MerchantStatusActive))),
	}
	if merchant.MonthlyVolumeLimit.IsZero() {
		merchant.MonthlyVolumeLimit = merchant.DailyVolumeLimit.Mul(decimal.NewFromInt(30))
	}
	return merchant, p.err()
}

func (a Account) toDomain() (*domain.CustomerAccount, error) {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	if err := domain.ValidateCurrencyCode(a.Currency); err != nil {
		return nil, err
	}

	var p parser
	account := &domain.CustomerAccount{
		ID:             id,
		AccountNumber:  a.AccountNumber,
		CustomerID:     a.CustomerID,
		BankCode:       a.Bank,
		Type:           domain.AccountType(orDefault(a.Type, string(domain.AccountTypeChecking))),
		Status:         domain.AccountStatus(orDefault(a.Status, string(domain.AccountStatusActive))),
		Balance:        p.decimal("balance", a.Balance),
		OverdraftLimit: p.decimal("overdraft_limit", orDefault(a.OverdraftLimit, "0")),
		DailyLimit:     p.decimal("daily_limit", a.DailyLimit),
		Currency:       a.Currency,
	}
	return account, p.err()
}

// parser collects decimal parse errors so one entry reports all bad fields.
type parser struct {
	errs []error
}

func (p *parser) decimal(field, value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q", field, value))
		return decimal.Zero
	}
	return d
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
