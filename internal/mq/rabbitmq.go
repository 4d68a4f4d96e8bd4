package mq

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jjudge-oj/imageforms/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient wraps a RabbitMQ connection/channel pair.
type RabbitMQClient struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queueDurable    bool
	queueAutoDelete bool
	prefetchCount   int
}

// NewRabbitMQClient constructs a RabbitMQ client from config.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:            conn,
		channel:         ch,
		queueDurable:    cfg.QueueDurable,
		queueAutoDelete: cfg.QueueAutoDelete,
		prefetchCount:   cfg.PrefetchCount,
	}, nil
}

// Publish sends a message to the fanout exchange of channel. The durable
// queue of the same name is bound to it, so Subscribe sees every message
// even when nobody tails the channel.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	if err := r.declareChannel(channel); err != nil {
		return "", err
	}

	contentType := "application/octet-stream"
	headers := amqp.Table{}
	for key, value := range attrs {
		if key == AttrContentType {
			contentType = value
			continue
		}
		headers[key] = value
	}

	messageID := newMessageID()
	err := r.channel.PublishWithContext(ctx, channel, "", false, false, amqp.Publishing{
		ContentType: contentType,
		Timestamp:   time.Now(),
		MessageId:   messageID,
		Headers:     headers,
		Body:        data,
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes the durable queue of channel. Concurrent subscribers
// share its messages.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	if err := r.declareChannel(channel); err != nil {
		return err
	}
	return r.consume(ctx, channel, handler)
}

// Tail binds an exclusive, server-named queue to the exchange of channel
// and consumes it. The broker drops the queue when the consumer goes away.
func (r *RabbitMQClient) Tail(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	if err := r.declareChannel(channel); err != nil {
		return err
	}
	queue, err := r.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return err
	}
	if err := r.channel.QueueBind(queue.Name, "", channel, false, nil); err != nil {
		return err
	}
	return r.consume(ctx, queue.Name, handler)
}

func (r *RabbitMQClient) consume(ctx context.Context, queue string, handler Handler) error {
	consumerTag := fmt.Sprintf("consumer-%s", newMessageID())
	deliveries, err := r.channel.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			attrs := headersToAttributes(delivery.Headers)
			if delivery.ContentType != "" {
				if attrs == nil {
					attrs = make(map[string]string, 1)
				}
				attrs[AttrContentType] = delivery.ContentType
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: attrs,
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the underlying channel and connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// declareChannel declares the fanout exchange of name and its durable queue
// of the same name, bound together.
func (r *RabbitMQClient) declareChannel(name string) error {
	if err := r.channel.ExchangeDeclare(name, amqp.ExchangeFanout, r.queueDurable, r.queueAutoDelete, false, false, nil); err != nil {
		return err
	}
	queue, err := r.declareQueue(name)
	if err != nil {
		return err
	}
	return r.channel.QueueBind(queue.Name, "", name, false, nil)
}

func (r *RabbitMQClient) declareQueue(name string) (amqp.Queue, error) {
	return r.channel.QueueDeclare(
		name,
		r.queueDurable,
		r.queueAutoDelete,
		false,
		false,
		nil,
	)
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}

func newMessageID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
