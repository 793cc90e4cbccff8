package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	publishTimeout = 2 * time.Second

	publishQueueSize = 256
)

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// PublishClient is the part of *redis.Client the publisher needs
type PublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes notifications on one Redis channel. Every instance
// runs a Relay on that channel, the publishing one included.
//
// Publish only queues the frame; Run sends queued frames to Redis. A full
// queue drops the frame.
type RedisPublisher struct {
	rdb     PublishClient
	channel string
	queue   chan []byte
	log     zerolog.Logger
}

func NewRedisPublisher(rdb PublishClient, channel string, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		queue:   make(chan []byte, publishQueueSize),
		log:     log,
	}
}

func (p *RedisPublisher) Publish(_ context.Context, n Notification) {
	frame, err := json.Marshal(n)
	if err != nil {
		p.log.Error().Err(err).Str("entity_type", string(n.EntityType)).Msg("failed to encode notification")
		return
	}

	select {
	case p.queue <- frame:
	default:
		p.log.Warn().Str("entity_type", string(n.EntityType)).Str("action", string(n.Action)).Msg("publish queue full, notification dropped")
	}
}

// Run sends queued frames until ctx is cancelled. Failed publishes are
// logged and skipped.
func (p *RedisPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-p.queue:
			p.send(ctx, frame)
		}
	}
}

func (p *RedisPublisher) send(ctx context.Context, frame []byte) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.rdb.Publish(ctx, p.channel, frame).Err(); err != nil {
		p.log.Error().Err(err).Str("channel", p.channel).Msg("failed to publish notification")
	}
}

// Subscription is the part of *redis.PubSub the relay reads from
type Subscription interface {
	Receive(ctx context.Context) (interface{}, error)
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// Relay forwards frames from the Redis channel into the local hub
type Relay struct {
	subscribe func(ctx context.Context) Subscription
	channel   string
	hub       Broadcaster
	log       zerolog.Logger
}

func NewRelay(rdb *redis.Client, channel string, hub Broadcaster, log zerolog.Logger) *Relay {
	subscribe := func(ctx context.Context) Subscription {
		return rdb.Subscribe(ctx, channel)
	}
	return newRelay(subscribe, channel, hub, log)
}

func newRelay(subscribe func(ctx context.Context) Subscription, channel string, hub Broadcaster, log zerolog.Logger) *Relay {
	return &Relay{subscribe: subscribe, channel: channel, hub: hub, log: log}
}

// Run blocks until ctx is cancelled or the subscription fails
func (r *Relay) Run(ctx context.Context) error {
	sub := r.subscribe(ctx)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.log.Info().Str("channel", r.channel).Msg("relaying notifications from redis")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription to %s closed", r.channel)
			}
			if !r.hub.Broadcast([]byte(msg.Payload)) {
				r.log.Warn().Str("channel", r.channel).Msg("relayed notification dropped")
			}
		}
	}
}
