package mq

import (
	"context"
	"errors"
	"fmt"

	"github.com/jjudge-oj/imageforms/config"
)

// ErrNoBackend is returned by Open when no events backend is configured.
var ErrNoBackend = errors.New("no events backend configured")

// Open connects to the broker named by cfg.Backend.
func Open(ctx context.Context, cfg config.EventsConfig) (*MQ, error) {
	switch cfg.Backend {
	case "":
		return nil, ErrNoBackend
	case config.EventsMemory:
		return New(NewMemoryBackend()), nil
	case config.EventsRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	case config.EventsPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}
