package watcher

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gridmarket/orderbook-svc/internal/config"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type ethStub struct {
	head    uint64
	headErr error
	logs    []types.Log
	logsErr error
}

func (s *ethStub) BlockNumber(context.Context) (uint64, error) {
	return s.head, s.headErr
}

func (s *ethStub) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return s.logs, s.logsErr
}

func (s *ethStub) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions are not stubbed")
}

func (s *ethStub) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Time: 1700000000}, nil
}

type countersStub struct {
	values map[string]uint64
	getErr error
}

func newCountersStub() *countersStub {
	return &countersStub{values: map[string]uint64{}}
}

func (s *countersStub) Get(name string) (uint64, error) {
	if s.getErr != nil {
		return 0, s.getErr
	}
	return s.values[name], nil
}

func (s *countersStub) Raise(name string, value uint64) error {
	if value > s.values[name] {
		s.values[name] = value
	}
	return nil
}

func newTestWatcher(eth, ws *ethStub, counters *countersStub) *Watcher {
	w := &Watcher{
		log:      logan.New().WithField("test", true),
		counters: counters,
		eth:      eth,
		net: config.Network{
			BlockRange:         100,
			RequestTimeout:     time.Second,
			HeadDriftTolerance: 5,
		},
		fatal: make(chan error, 1),
	}
	if ws != nil {
		w.ws = ws
	}
	return w
}
