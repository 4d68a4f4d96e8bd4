package mq

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/jjudge-oj/imageforms/config"
	"google.golang.org/api/option"
)

const (
	// Tail subscriptions left behind by a crashed process expire on their
	// own after the shortest expiration Pub/Sub accepts.
	tailExpiration = 24 * time.Hour
	tailRetention  = 10 * time.Minute
	tailDeleteWait = 10 * time.Second
)

// PubSubClient publishes record events to Pub/Sub topics. Subscribe shares
// one durable subscription per channel; Tail creates a private one.
type PubSubClient struct {
	client             *pubsub.Client
	subscriptionSuffix string
	logTags            log.Fields
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}

	return &PubSubClient{
		client:             client,
		subscriptionSuffix: suffix,
		logTags:            log.Fields{"module": "mq", "component": "pubsub", "project": cfg.ProjectID},
	}, nil
}

// Publish sends a message to the named topic. The content type travels as
// the AttrContentType attribute.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return "", err
	}

	attributes := make(map[string]string, len(attrs)+1)
	maps.Copy(attributes, attrs)
	if attributes[AttrContentType] == "" {
		attributes[AttrContentType] = "application/octet-stream"
	}

	result := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	return result.Get(ctx)
}

// Subscribe consumes the shared subscription of channel.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return err
	}

	sub, err := p.ensureSubscription(ctx, channel+p.subscriptionSuffix, topic)
	if err != nil {
		return err
	}
	return receive(ctx, sub, handler)
}

// Tail creates a subscription of its own on channel, consumes it until ctx
// is done and deletes it afterwards.
func (p *PubSubClient) Tail(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return err
	}

	name := tailSubscriptionName(channel)
	sub, err := p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:             topic,
		ExpirationPolicy:  tailExpiration,
		RetentionDuration: tailRetention,
	})
	if err != nil {
		return err
	}
	defer func() {
		deleteCtx, cancel := context.WithTimeout(context.Background(), tailDeleteWait)
		defer cancel()
		if err := sub.Delete(deleteCtx); err != nil {
			log.WithFields(p.logTags).WithError(err).WithField("subscription", name).Warn("Failed to delete tail subscription")
		}
	}()

	return receive(ctx, sub, handler)
}

// Close closes the underlying Pub/Sub client.
func (p *PubSubClient) Close() error {
	return p.client.Close()
}

func receive(ctx context.Context, sub *pubsub.Subscription, handler Handler) error {
	err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		message := Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: maps.Clone(msg.Attributes),
		}
		if err := handler(ctx, message); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err == nil && ctx.Err() != nil {
		// Receive returns nil once ctx is done; report it the way the other
		// backends do.
		return ctx.Err()
	}
	return err
}

func (p *PubSubClient) ensureTopic(ctx context.Context, name string) (*pubsub.Topic, error) {
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateTopic(ctx, name)
	}
	return topic, nil
}

func (p *PubSubClient) ensureSubscription(ctx context.Context, name string, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{Topic: topic})
	}
	return sub, nil
}

// tailSubscriptionName returns a unique subscription id for channel.
// Pub/Sub ids must start with a letter and stay within 255 characters.
func tailSubscriptionName(channel string) string {
	const maxLen = 255
	suffix := "-tail-" + uuid.NewString()
	if len(channel)+len(suffix) > maxLen {
		channel = channel[:maxLen-len(suffix)]
	}
	return channel + suffix
}
