package pubsub

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/b4knamy/online-chat-backend/internal/hub"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

// Subscriber bridges the redis broadcast bus into the local hub. It pattern
// subscribes to every group channel and delivers payloads to local members.
type Subscriber struct {
	client *redis.Client
	prefix string
	hub    *hub.Hub
	doneCh chan struct{}
}

// NewSubscriber creates a subscriber for all group channels under prefix.
func NewSubscriber(client *redis.Client, prefix string, h *hub.Hub) *Subscriber {
	if prefix == "" {
		prefix = "broadcast"
	}
	return &Subscriber{
		client: client,
		prefix: prefix,
		hub:    h,
		doneCh: make(chan struct{}),
	}
}

// Done returns a channel closed when Run exits.
func (s *Subscriber) Done() <-chan struct{} { return s.doneCh }

// Run subscribes and delivers until ctx is done, reconnecting on errors.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.doneCh)
	l := log.L()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := s.runSubscription(ctx); err != nil && ctx.Err() == nil {
				l.Warn().Err(err).Msg("broadcast subscription error, reconnecting in 2s")
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
					continue
				}
			}
			return
		}
	}
}

func (s *Subscriber) runSubscription(ctx context.Context) error {
	pattern := s.prefix + ":*"
	pubsub := s.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	// Wait for the subscription to be active before reporting readiness.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			group := strings.TrimPrefix(msg.Channel, s.prefix+":")
			if group == "" || group == msg.Channel {
				continue
			}
			s.hub.Deliver(group, []byte(msg.Payload))
		}
	}
}
