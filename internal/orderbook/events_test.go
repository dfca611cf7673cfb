package orderbook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gitlab.com/distributed_lab/logan/v3"
)

func TestChannelNotifierDeliversAndStopsOnCancel(t *testing.T) {
	n := NewChannelNotifier(logan.New().WithField("test", true), 4)
	sunk := make(chan Event, 4)
	n.Subscribe(func(e Event) { sunk <- e })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	n.Notify("app_published", nil)
	select {
	case evt := <-sunk:
		assert.Equal(t, "app_published", evt.Name)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier kept running after cancellation")
	}
}
