package watcher

import (
	"context"
	"testing"

	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func TestIngestAdvancesLastBlock(t *testing.T) {
	counters := newCountersStub()
	w := newTestWatcher(&ethStub{head: 42}, nil, counters)

	require.NoError(t, w.ingestOnce(context.Background()))
	assert.EqualValues(t, 42, counters.values[data.CounterLastBlock])
}

func TestIngestRetryBudgetEscalates(t *testing.T) {
	counters := newCountersStub()
	counters.getErr = errors.New("db down")
	w := newTestWatcher(&ethStub{head: 42}, nil, counters)
	ctx := context.Background()

	for i := 0; i < maxIngestFailures-1; i++ {
		require.Error(t, w.ingestOnce(ctx))
		select {
		case err := <-w.Fatal():
			t.Fatalf("escalated after %d failures: %v", i+1, err)
		default:
		}
	}

	require.Error(t, w.ingestOnce(ctx))
	select {
	case err := <-w.Fatal():
		assert.Contains(t, err.Error(), "retry budget exhausted")
	default:
		t.Fatal("expected a fatal escalation")
	}
}

func TestIngestSuccessResetsFailureBudget(t *testing.T) {
	counters := newCountersStub()
	counters.getErr = errors.New("db down")
	w := newTestWatcher(&ethStub{head: 42}, nil, counters)
	ctx := context.Background()

	require.Error(t, w.ingestOnce(ctx))
	require.Error(t, w.ingestOnce(ctx))

	counters.getErr = nil
	require.NoError(t, w.ingestOnce(ctx))
	assert.Zero(t, w.ingestFailures)
}
