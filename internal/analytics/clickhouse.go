package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/config"
)

const (
	dialTimeout  = 5 * time.Second
	maxOpenConns = 5
)

// ClickHouseClient holds the analytics connection.
type ClickHouseClient struct {
	conn driver.Conn
}

// NewClickHouseClient opens a connection and checks it with a ping.
func NewClickHouseClient(ctx context.Context, cfg config.ClickHouseConfig) (*ClickHouseClient, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Host},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout:  dialTimeout,
		MaxOpenConns: maxOpenConns,
		Compression:  &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct{ Name, Version string }{{Name: "paynet-analytics", Version: "1"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection to %s: %w", cfg.Host, err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse at %s: %w", cfg.Host, err)
	}
	return &ClickHouseClient{conn: conn}, nil
}

// Conn returns the driver connection.
func (c *ClickHouseClient) Conn() driver.Conn {
	return c.conn
}

// Close releases the connection. It is safe on a zero client.
func (c *ClickHouseClient) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
