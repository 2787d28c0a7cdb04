// Package realtime fans out row change notifications to subscribers. Clients
// treat every event as a signal to re-fetch, so events carry identifiers only.
package realtime

import (
	"context"
	"sync"
	"time"
)

// ChangeType names the kind of row change.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
)

// Tables that publish changes.
const (
	TableCampaigns         = "campaigns"
	TableDonations         = "donations"
	TableVerificationVotes = "verification_votes"
)

const subscriberBuffer = 16

// Event describes one row change.
type Event struct {
	Table string     `json:"table"`
	Type  ChangeType `json:"type"`
	RowID string     `json:"row_id"`
	At    time.Time  `json:"at"`
}

// Filter selects events by table and optionally by row.
type Filter struct {
	Table string
	RowID string
}

// Match reports whether e passes the filter. Empty fields match anything.
func (f Filter) Match(e Event) bool {
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if f.RowID != "" && f.RowID != e.RowID {
		return false
	}
	return true
}

// Broker publishes events and hands out subscriptions. Subscription channels
// are closed once ctx is done.
type Broker interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, filter Filter) (<-chan Event, error)
}

type subscriber struct {
	filter Filter
	ch     chan Event
}

// MemoryBroker delivers events within a single process.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[*subscriber]struct{})}
}

// Publish never blocks. A subscriber whose buffer is full already has a
// re-fetch pending and misses nothing by skipping the event.
func (b *MemoryBroker) Publish(_ context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if !sub.filter.Match(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, filter Filter) (<-chan Event, error) {
	sub := &subscriber{filter: filter, ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, sub)
		close(sub.ch)
		b.mu.Unlock()
	}()
	return sub.ch, nil
}

// Subscribers returns the number of live subscriptions.
func (b *MemoryBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
