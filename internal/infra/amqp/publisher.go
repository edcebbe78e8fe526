package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"quizzardo-service/internal/domain"
)

// ResultRecorded is the routing key for persisted results.
const ResultRecorded = "quiz.result.recorded"

type envelope struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurredAt"`
	Payload    domain.Result `json:"payload"`
}

// ResultPublisher emits result events to a topic exchange.
type ResultPublisher struct {
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex
	channel *amqp.Channel
}

func NewResultPublisher(url, exchange string) (*ResultPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &ResultPublisher{conn: conn, exchange: exchange, channel: ch}, nil
}

// PublishResult sends a result event. amqp channels are not safe for concurrent publishing.
func (p *ResultPublisher) PublishResult(ctx context.Context, result domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encodeResult(result, time.Now().UTC())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish(p.exchange, ResultRecorded, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ResultRecorded, err)
	}
	log.Printf("[EVENT] %s quiz=%s user=%s", ResultRecorded, result.QuizID, result.UserID)
	return nil
}

func (p *ResultPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func encodeResult(result domain.Result, at time.Time) ([]byte, error) {
	body, err := json.Marshal(envelope{Type: ResultRecorded, OccurredAt: at, Payload: result})
	if err != nil {
		return nil, fmt.Errorf("encode result event: %w", err)
	}
	return body, nil
}
