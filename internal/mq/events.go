package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	"github.com/jjudge-oj/imageforms/types"
)

// RecordEvents publishes and consumes record change events on one channel.
type RecordEvents struct {
	mq      *MQ
	channel string
	logTags log.Fields
}

// NewRecordEvents binds record events to channel on m.
func NewRecordEvents(m *MQ, channel string) *RecordEvents {
	return &RecordEvents{
		mq:      m,
		channel: channel,
		logTags: log.Fields{"module": "mq", "component": "record-events", "channel": channel},
	}
}

// Channel returns the channel events are published to.
func (e *RecordEvents) Channel() string {
	return e.channel
}

// Publish sends evt as JSON.
func (e *RecordEvents) Publish(ctx context.Context, evt types.RecordEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	id, err := e.mq.Publish(ctx, e.channel, data, map[string]string{
		AttrContentType: "application/json",
		"event_type":    string(evt.Type),
		"collection":    evt.Collection,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	log.WithFields(e.logTags).WithFields(log.Fields{"message_id": id, "type": evt.Type, "record": evt.RecordID}).Debug("Published record event")
	return nil
}

// Consume hands decoded events to handler until ctx is done. Concurrent
// consumers share the events. Undecodable messages are logged and
// acknowledged.
func (e *RecordEvents) Consume(ctx context.Context, handler func(ctx context.Context, evt types.RecordEvent) error) error {
	return e.mq.Subscribe(ctx, e.channel, e.decode(handler))
}

// Tail hands every event published while it runs to handler, regardless of
// other consumers.
func (e *RecordEvents) Tail(ctx context.Context, handler func(ctx context.Context, evt types.RecordEvent) error) error {
	return e.mq.Tail(ctx, e.channel, e.decode(handler))
}

func (e *RecordEvents) decode(handler func(ctx context.Context, evt types.RecordEvent) error) Handler {
	return func(ctx context.Context, msg Message) error {
		if ct := msg.Attributes[AttrContentType]; ct != "" && ct != "application/json" {
			log.WithFields(e.logTags).WithFields(log.Fields{"message_id": msg.ID, "content_type": ct}).Warn("Dropping record event with unexpected content type")
			return nil
		}
		var evt types.RecordEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.WithFields(e.logTags).WithError(err).WithField("message_id", msg.ID).Warn("Dropping malformed record event")
			return nil
		}
		return handler(ctx, evt)
	}
}

// Close closes the underlying broker connection.
func (e *RecordEvents) Close() error {
	return e.mq.Close()
}
