package orderbook

import (
	"context"

	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
)

// Event is one domain event emitted after a durable mutation, carrying the
// full post-mutation record (or just the hash for unpublish).
type Event struct {
	Name    string
	Payload interface{}
}

// Notifier is the outbound-event port. Implementations must never block the
// caller: publication and cleanup paths call it synchronously.
type Notifier interface {
	Notify(name string, payload interface{})
}

func eventName(kind data.OrderKind, suffix string) string {
	return string(kind) + "_" + suffix
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, interface{}) {}

// ChannelNotifier fans events out to registered sinks from a single consumer
// goroutine, preserving emission order. When the buffer is full the event is
// dropped and the drop is logged, never silently swallowed.
type ChannelNotifier struct {
	log   *logan.Entry
	ch    chan Event
	sinks []func(Event)
}

func NewChannelNotifier(log *logan.Entry, buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1024
	}
	return &ChannelNotifier{
		log: log,
		ch:  make(chan Event, buffer),
	}
}

// Subscribe registers a sink. Not safe to call after Run has started.
func (n *ChannelNotifier) Subscribe(sink func(Event)) {
	n.sinks = append(n.sinks, sink)
}

func (n *ChannelNotifier) Notify(name string, payload interface{}) {
	select {
	case n.ch <- Event{Name: name, Payload: payload}:
	default:
		n.log.WithField("event", name).Error("event buffer full, dropping event")
	}
}

// Run consumes the queue until the context is canceled.
func (n *ChannelNotifier) Run(ctx context.Context) {
	for {
		select {
		case evt := <-n.ch:
			for _, sink := range n.sinks {
				sink(evt)
			}
		case <-ctx.Done():
			return
		}
	}
}
