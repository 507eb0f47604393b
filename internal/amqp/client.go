// Package amqp publishes report-completed events to RabbitMQ so other
// consumers (importers, notifiers) can react to finished runs.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"ledgerdash/internal/log"
	"ledgerdash/internal/report"
)

const (
	publishTimeout  = 5 * time.Second
	maxPublishTries = 3
)

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setupTopology(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func setupTopology(channel *amqp091.Channel, exchange, queue string) error {
	err := channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = channel.QueueBind(queue, queue, exchange, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishReport announces a finished run. Connection-level failures are
// retried with exponential backoff after a reconnect; other failures
// surface immediately.
func (c *Client) PublishReport(ctx context.Context, event report.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	logger := c.logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	var lastErr error
	for attempt := 0; attempt < maxPublishTries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
			if err := c.reconnect(); err != nil {
				lastErr = err
				continue
			}
		}

		lastErr = c.publish(ctx, body)
		if lastErr == nil {
			logger.InfoContext(ctx, "Published report event",
				log.FieldRunID, event.RunID,
				"exchange", c.exchangeName,
				"queue", c.queueName)
			return nil
		}
		if !isConnectionError(lastErr) {
			return fmt.Errorf("publish message: %w", lastErr)
		}
		logger.WarnContext(ctx, "Publish failed on broken connection, reconnecting",
			log.FieldAttempt, attempt+1, log.FieldError, lastErr)
	}
	return fmt.Errorf("publish message after %d attempts: %w", maxPublishTries, lastErr)
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return fmt.Errorf("connection closed")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (c *Client) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.channel = nil

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("redial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("reopen channel: %w", err)
	}
	if err := setupTopology(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return err
	}
	c.conn = conn
	c.channel = channel
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// exponentialBackoff doubles from one second, capped at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	d := time.Second << attempt
	if d > 30*time.Second || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"unexpected EOF",
		"broken pipe",
		"use of closed network connection",
		"channel/connection is not open",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
