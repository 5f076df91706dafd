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

// ScoreUpdatedMessage announces a freshly computed smart score so
// downstream consumers can react without polling
type ScoreUpdatedMessage struct {
	EventID    string    `json:"event_id"`
	SchemeCode string    `json:"scheme_code"`
	Score      float64   `json:"score"`
	Grade      string    `json:"grade"`
	ComputedAt time.Time `json:"computed_at"`
}

// ScorePublisher publishes score-updated events
type ScorePublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *logrus.Logger
}

// NewScorePublisher connects to the broker and declares the score exchange
func NewScorePublisher(cfg config.RabbitMQConfig, logger *logrus.Logger) (*ScorePublisher, error) {
	conn, err := amqp.Dial(cfg.AMQPURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange (idempotent)
	err = channel.ExchangeDeclare(
		cfg.ScoreExchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"exchange":    cfg.ScoreExchange,
		"routing_key": cfg.ScoreRoutingKey,
	}).Info("Score publisher initialized")

	return &ScorePublisher{
		conn:       conn,
		channel:    channel,
		exchange:   cfg.ScoreExchange,
		routingKey: cfg.ScoreRoutingKey,
		logger:     logger,
	}, nil
}

// PublishScoreUpdated emits a score-updated event for a scheme
func (p *ScorePublisher) PublishScoreUpdated(ctx context.Context, schemeCode string, score float64, grade string) error {
	message := ScoreUpdatedMessage{
		EventID:    uuid.NewString(),
		SchemeCode: schemeCode,
		Score:      score,
		Grade:      grade,
		ComputedAt: time.Now(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal score event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		publishCtx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    message.EventID,
			Timestamp:    message.ComputedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish score event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"scheme_code": schemeCode,
		"score":       score,
	}).Debug("Score event published")

	return nil
}

// Close shuts down the channel and connection
func (p *ScorePublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Warnf("Error closing channel: %v", err)
	}
	if err := p.conn.Close(); err != nil {
		p.logger.Warnf("Error closing connection: %v", err)
		return err
	}
	return nil
}
