package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "blockfund:changes:"

// RedisBroker fans events out across API instances with Redis pub/sub.
type RedisBroker struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func NewRedisBroker(rdb *redis.Client, logger zerolog.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, logger: logger.With().Str("component", "realtime").Logger()}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channelPrefix+event.Table, payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, filter Filter) (<-chan Event, error) {
	var ps *redis.PubSub
	if filter.Table == "" {
		ps = b.rdb.PSubscribe(ctx, channelPrefix+"*")
	} else {
		ps = b.rdb.Subscribe(ctx, channelPrefix+filter.Table)
	}
	// Wait for the subscription confirmation so that a bad connection is
	// reported to the caller.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("realtime: subscribe: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		messages := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("drop malformed event")
					continue
				}
				if event.Table == "" {
					event.Table = strings.TrimPrefix(msg.Channel, channelPrefix)
				}
				if !filter.Match(event) {
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()
	return out, nil
}
