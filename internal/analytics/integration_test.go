package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/analytics"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/config"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/events"
)

func TestPublishConsumeSummarize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:23.3.8.21-alpine",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword("clickhouse"),
		clickhouse.WithDatabase("default"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clickhouseContainer.Terminate(ctx) })

	host, err := clickhouseContainer.ConnectionHost(ctx)
	require.NoError(t, err)

	rabbitContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-management",
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rabbitContainer.Terminate(ctx) })

	amqpURL, err := rabbitContainer.AmqpURL(ctx)
	require.NoError(t, err)

	client, err := analytics.NewClickHouseClient(ctx, config.ClickHouseConfig{
		Host:     host,
		Database: "default",
		User:     "default",
		Password: "clickhouse",
	})
	require.NoError(t, err)
	defer client.Close()

	repo := analytics.NewTransactionRepository(client)
	require.NoError(t, repo.EnsureSchema(ctx))

	rabbitCfg := config.RabbitMQConfig{
		URL:        amqpURL,
		Exchange:   "test.payment.network",
		Queue:      "test.analytics.network-transaction.completed",
		RoutingKey: "test.payment.network.transaction.completed",
	}

	consumer, err := analytics.NewConsumer(rabbitCfg, repo, nil)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := consumer.Start(consumerCtx); err != nil {
			t.Logf("consumer error: %v", err)
		}
	}()

	publisher, err := events.NewRabbitMQPublisher(rabbitCfg, nil)
	require.NoError(t, err)
	defer publisher.Close()

	completed := time.Now().UTC()
	statuses := []domain.TransactionStatus{
		domain.TransactionStatusCaptured,
		domain.TransactionStatusCaptured,
		domain.TransactionStatusFailed,
	}
	for i, status := range statuses {
		txn := &domain.NetworkTransaction{
			ID:                    uuid.New(),
			PaymentID:             uuid.NewString(),
			CustomerAccountID:     uuid.New(),
			MerchantID:            "MERCHANT_001",
			IssuerBankCode:        "CHASE",
			AcquirerBankCode:      "FDMS",
			Amount:                decimal.NewFromInt(int64(100 * (i + 1))),
			Currency:              "USD",
			FinalStatus:           status,
			TotalProcessingTimeMs: 100,
			CompletedAt:           &completed,
		}
		require.NoError(t, publisher.PublishNetworkTransactionCompleted(ctx, txn))
	}

	from := completed.Add(-time.Minute)
	to := completed.Add(time.Minute)

	var stats []analytics.AcquirerStats
	require.Eventually(t, func() bool {
		stats, err = repo.AcquirerSummary(ctx, from, to)
		return err == nil && len(stats) == 1 && stats[0].Transactions == 3
	}, 15*time.Second, 250*time.Millisecond)

	assert.Equal(t, "FDMS", stats[0].AcquirerBankCode)
	assert.Equal(t, uint64(2), stats[0].Captured)
	assert.Equal(t, "300.00", stats[0].CapturedVolume.StringFixed(2))
	assert.InDelta(t, 100, stats[0].AvgProcessingMs, 1e-9)
}
