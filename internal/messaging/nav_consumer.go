package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/config"
)

// NAVUpdateMessage is the NAV feed event pushed when a scheme publishes
// a new observation
type NAVUpdateMessage struct {
	SchemeCode string    `json:"scheme_code"`
	Date       time.Time `json:"date"`
	NAV        float64   `json:"nav"`
	Source     string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// NAVIngester is the service surface the consumer delivers updates to
type NAVIngester interface {
	IngestNAVUpdate(ctx context.Context, schemeCode string, date time.Time, nav float64) error
}

// NAVConsumer consumes NAV update events from the feed exchange
type NAVConsumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	cfg         config.RabbitMQConfig
	consumerTag string
	ingester    NAVIngester
	logger      *logrus.Logger
}

// NewNAVConsumer connects to the broker and declares the NAV topology
func NewNAVConsumer(cfg config.RabbitMQConfig, ingester NAVIngester, logger *logrus.Logger) (*NAVConsumer, error) {
	conn, err := amqp.Dial(cfg.AMQPURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.NAVExchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.NAVQueue, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,
		cfg.NAVRoutingKey,
		cfg.NAVExchange,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	tag := fmt.Sprintf("%s-%s", cfg.ConsumerTag, uuid.NewString()[:8])

	logger.WithFields(logrus.Fields{
		"queue":    queue.Name,
		"exchange": cfg.NAVExchange,
		"tag":      tag,
	}).Info("NAV consumer initialized")

	return &NAVConsumer{
		conn:        conn,
		channel:     channel,
		cfg:         cfg,
		consumerTag: tag,
		ingester:    ingester,
		logger:      logger,
	}, nil
}

// Start consumes NAV updates in the background until ctx is cancelled
func (c *NAVConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.cfg.NAVQueue, // queue
		c.consumerTag,  // consumer tag
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("NAV consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("NAV consumer shutting down")
				return

			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("NAV message channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *NAVConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var update NAVUpdateMessage
	if err := json.Unmarshal(msg.Body, &update); err != nil {
		c.logger.WithError(err).Warn("Malformed NAV update, discarding")
		_ = msg.Nack(false, false)
		return
	}

	if update.SchemeCode == "" || update.NAV <= 0 {
		c.logger.WithFields(logrus.Fields{
			"scheme_code": update.SchemeCode,
			"nav":         update.NAV,
		}).Warn("Invalid NAV update, discarding")
		_ = msg.Nack(false, false)
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.ingester.IngestNAVUpdate(handleCtx, update.SchemeCode, update.Date, update.NAV); err != nil {
		c.logger.WithError(err).WithField("scheme_code", update.SchemeCode).
			Error("Failed to ingest NAV update, requeueing")
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)

	c.logger.WithFields(logrus.Fields{
		"scheme_code": update.SchemeCode,
		"date":        update.Date.Format("2006-01-02"),
		"nav":         update.NAV,
	}).Debug("NAV update ingested")
}

// Close shuts down the channel and connection
func (c *NAVConsumer) Close() error {
	if err := c.channel.Cancel(c.consumerTag, false); err != nil {
		c.logger.Warnf("Error cancelling consumer: %v", err)
	}
	if err := c.channel.Close(); err != nil {
		c.logger.Warnf("Error closing channel: %v", err)
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warnf("Error closing connection: %v", err)
		return err
	}
	c.logger.Info("NAV consumer closed")
	return nil
}
