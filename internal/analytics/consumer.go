package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/config"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/events"
)

// TransactionSink stores converted transaction records.
type TransactionSink interface {
	Insert(ctx context.Context, rec *TransactionRecord) error
}

const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 30 * time.Second
)

// errMalformed marks messages that can never be processed and must not be requeued.
var errMalformed = errors.New("malformed event")

// Consumer consumes network transaction events from RabbitMQ
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	sink    TransactionSink
	retry   *backoff.ExponentialBackOff
	logger  *zap.Logger
}

// newRetryBackOff returns the delay policy applied before a failed message is
// requeued. It never gives up; a successful insert resets it.
func newRetryBackOff(initial, maxInterval time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxInterval
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// NewConsumer connects to RabbitMQ and binds the analytics queue to the exchange.
func NewConsumer(cfg config.RabbitMQConfig, sink TransactionSink, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		channel.Close()
		conn.Close()
	}

	if err := channel.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info("rabbitmq consumer initialized",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", queue.Name),
		zap.String("routing_key", cfg.RoutingKey))

	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   queue.Name,
		sink:    sink,
		retry:   newRetryBackOff(retryInitialInterval, retryMaxInterval),
		logger:  logger,
	}, nil
}

// Start consumes messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag (auto-generated)
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("rabbitmq consumer started", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context cancelled, stopping rabbitmq consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}

			c.process(ctx, msg)
		}
	}
}

// process handles one delivery and acknowledges it. Malformed messages are
// dropped. Sink failures are requeued after a growing delay so an unavailable
// ClickHouse is not hammered with redeliveries.
func (c *Consumer) process(ctx context.Context, msg amqp.Delivery) {
	err := c.handle(ctx, msg.Body)
	if err == nil {
		c.retry.Reset()
		if err := msg.Ack(false); err != nil {
			c.logger.Warn("failed to ack message", zap.String("message_id", msg.MessageId), zap.Error(err))
		}
		return
	}

	requeue := !errors.Is(err, errMalformed)
	var delay time.Duration
	if requeue {
		delay = c.retry.NextBackOff()
	}
	c.logger.Error("failed to handle message",
		zap.String("message_id", msg.MessageId),
		zap.Bool("requeue", requeue),
		zap.Duration("retry_in", delay),
		zap.Error(err))

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
	if err := msg.Nack(false, requeue); err != nil {
		c.logger.Warn("failed to nack message", zap.String("message_id", msg.MessageId), zap.Error(err))
	}
}

// handle decodes one message and stores it.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var event events.NetworkTransactionCompletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	rec, err := RecordFromEvent(&event)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	if err := c.sink.Insert(ctx, rec); err != nil {
		return err
	}

	c.logger.Debug("stored network transaction",
		zap.String("payment_id", rec.PaymentID),
		zap.String("acquirer", rec.AcquirerBankCode),
		zap.String("final_status", rec.FinalStatus))
	return nil
}

// Close closes the RabbitMQ channel and connection
func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("failed to close channel", zap.Error(err))
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
