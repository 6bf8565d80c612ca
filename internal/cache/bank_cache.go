package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

const bankNamespace = "paynet:bank:"

// BankCache is a read-through Redis cache in front of a bank repository.
// Redis failures are logged and served from the underlying repository.
type BankCache struct {
	next   domain.BankRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

var _ domain.BankRepository = (*BankCache)(nil)

// NewBankCache wraps next with a cache whose entries expire after ttl.
func NewBankCache(next domain.BankRepository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *BankCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankCache{next: next, client: client, ttl: ttl, logger: logger}
}

// GetActiveByCode returns the cached bank or loads and caches it.
// Missing banks are not cached.
func (c *BankCache) GetActiveByCode(ctx context.Context, code string) (*domain.BankConfig, error) {
	key := bankNamespace + code

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bank domain.BankConfig
		if err := json.Unmarshal(raw, &bank); err == nil {
			return &bank, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
		c.client.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("bank cache read failed", zap.String("bank_code", code), zap.Error(err))
	}

	bank, err := c.next.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(bank); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("bank cache write failed", zap.String("bank_code", code), zap.Error(err))
		}
	}
	return bank, nil
}

// ListActive is not cached; it feeds routing, which must see every bank.
func (c *BankCache) ListActive(ctx context.Context) ([]*domain.BankConfig, error) {
	return c.next.ListActive(ctx)
}

// Upsert writes through and invalidates the cached entry.
func (c *BankCache) Upsert(ctx context.Context, bank *domain.BankConfig) error {
	if err := c.next.Upsert(ctx, bank); err != nil {
		return err
	}
	if err := c.client.Del(ctx, bankNamespace+bank.Code).Err(); err != nil {
		c.logger.Warn("bank cache invalidation failed", zap.String("bank_code", bank.Code), zap.Error(err))
	}
	return nil
}
