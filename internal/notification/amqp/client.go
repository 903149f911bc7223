// Package amqp carries notification messages over RabbitMQ: a durable direct
// exchange bound to one durable queue, persistent publishes and manual acks.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/notification"
)

const publishTimeout = 5 * time.Second

var ErrChannelClosed = errors.New("amqp delivery channel closed")

// Channel is the subset of *amqp091.Channel the client uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type Client struct {
	conn         *amqp091.Connection
	channel      Channel
	exchangeName string
	queueName    string
	logger       *slog.Logger
}

func Dial(url, exchangeName, queueName string, logger *slog.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client, err := NewClient(channel, exchangeName, queueName, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client.conn = conn
	return client, nil
}

// NewClient declares the topology on an already open channel.
func NewClient(channel Channel, exchangeName, queueName string, logger *slog.Logger) (*Client, error) {
	c := &Client{
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}
	if err := c.setup(); err != nil {
		channel.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Enqueue publishes msg as a persistent message. It satisfies
// notification.Queue.
func (c *Client) Enqueue(ctx context.Context, msg *notification.Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := internal.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msg.ID,
		CorrelationId: internal.TraceIDFromContext(ctx),
		Type:          msg.Type,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.InfoContext(ctx, "published notification message",
		"notification_id", msg.ID,
		"type", msg.Type,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Consume hands each delivery to submit and acks or nacks from the job's
// Done callback. Undecodable messages are dropped; failed deliveries are
// requeued. prefetch bounds how many unacked messages are in flight.
func (c *Client) Consume(ctx context.Context, prefetch int, submit func(notification.Job) error) error {
	if prefetch > 0 {
		if err := c.channel.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}

	deliveries, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.InfoContext(ctx, "consuming notification messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return ErrChannelClosed
			}
			c.handle(ctx, delivery, submit)
		}
	}
}

// Acknowledger is the ack side of amqp091.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) handle(ctx context.Context, delivery amqp091.Delivery, submit func(notification.Job) error) {
	c.dispatch(ctx, delivery.Body, &delivery, submit)
}

func (c *Client) dispatch(ctx context.Context, body []byte, ack Acknowledger, submit func(notification.Job) error) {
	msg, err := notification.MessageFromJSON(body)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to decode notification message", "error", err)
		c.settle(ctx, ack, "", false, false)
		return
	}

	job := notification.Job{
		Message: msg,
		Done: func(err error) {
			c.settle(ctx, ack, msg.ID, err == nil, true)
		},
	}
	if err := submit(job); err != nil {
		c.logger.WarnContext(ctx, "could not hand notification to workers, requeueing",
			"notification_id", msg.ID,
			"error", err)
		c.settle(ctx, ack, msg.ID, false, true)
	}
}

// settle acks or nacks a delivery. A failed ack usually means the channel is
// gone and the broker will redeliver.
func (c *Client) settle(ctx context.Context, ack Acknowledger, id string, ok, requeue bool) {
	var err error
	if ok {
		err = ack.Ack(false)
	} else {
		err = ack.Nack(false, requeue)
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to settle notification delivery",
			"notification_id", id,
			"ack", ok,
			"requeue", requeue,
			"error", err)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
