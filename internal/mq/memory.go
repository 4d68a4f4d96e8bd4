package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

const memoryBufferSize = 64

type memorySub struct {
	ch   chan Message
	tail bool
}

// MemoryBackend delivers messages to subscribers of the same process.
// Subscribers of a channel share its messages round-robin; tails each get
// a copy of every message. Messages published while nobody listens, or
// while the chosen buffer is full, are dropped.
type MemoryBackend struct {
	mu     sync.Mutex
	seq    int
	next   map[string]int
	subs   map[string][]*memorySub
	closed bool
}

// NewMemoryBackend returns an empty in-process broker.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		next: make(map[string]int),
		subs: make(map[string][]*memorySub),
	}
}

// Publish hands the message to every tail of channel and to one of its
// subscribers.
func (b *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", errors.New("memory broker closed")
	}
	b.seq++
	msg := Message{ID: strconv.Itoa(b.seq), Data: append([]byte(nil), data...), Attributes: attrs}

	var queue []*memorySub
	for _, sub := range b.subs[channel] {
		if sub.tail {
			deliver(sub, msg)
			continue
		}
		queue = append(queue, sub)
	}
	if len(queue) > 0 {
		i := b.next[channel] % len(queue)
		b.next[channel] = i + 1
		deliver(queue[i], msg)
	}
	return msg.ID, nil
}

func deliver(sub *memorySub, msg Message) {
	select {
	case sub.ch <- msg:
	default:
	}
}

// Subscribe blocks, handing messages of channel to handler, until ctx is
// done or the broker is closed. Handler errors are ignored; there is no
// redelivery.
func (b *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return b.listen(ctx, channel, false, handler)
}

// Tail is Subscribe without sharing: every message of channel is handed
// to handler.
func (b *MemoryBackend) Tail(ctx context.Context, channel string, handler Handler) error {
	return b.listen(ctx, channel, true, handler)
}

func (b *MemoryBackend) listen(ctx context.Context, channel string, tail bool, handler Handler) error {
	sub := &memorySub{ch: make(chan Message, memoryBufferSize), tail: tail}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("memory broker closed")
	}
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	defer b.unsubscribe(channel, sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.ch:
			if !ok {
				return nil
			}
			_ = handler(ctx, msg)
		}
	}
}

// Subscribers returns the number of active subscribers and tails of
// channel.
func (b *MemoryBackend) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

// Close stops every subscription.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(b.subs, channel)
	}
	return nil
}

func (b *MemoryBackend) unsubscribe(channel string, sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	for i, s := range subs {
		if s == sub {
			b.subs[channel] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
