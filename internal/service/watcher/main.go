// Package watcher keeps the book consistent with on-chain state. A polling
// ingest worker advances the last_block counter in bounded batches, an
// optional websocket worker applies events with low latency, and a reconcile
// worker replays the confirmed range behind checkpoint_block so that any event
// dropped by either path is eventually applied. Every trigger on the book is
// idempotent, so the overlap between the three is harmless.
package watcher

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gridmarket/orderbook-svc/internal/config"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"github.com/gridmarket/orderbook-svc/internal/poco"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/running"
)

// ethReader is the slice of the RPC client the watcher needs from a
// transport. Both ethclient transports satisfy it.
type ethReader interface {
	ethereum.LogFilterer
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type Watcher struct {
	log      *logan.Entry
	book     *orderbook.Book
	counters data.Counters
	chain    *poco.Client
	eth      ethReader
	ws       ethReader
	net      config.Network

	fatal chan error

	driftStrikes   int
	ingestFailures int
}

type Opts struct {
	Log      *logan.Entry
	Book     *orderbook.Book
	Counters data.Counters
	Chain    *poco.Client
	Network  config.Network
}

func New(opts Opts) *Watcher {
	w := &Watcher{
		log:      opts.Log,
		book:     opts.Book,
		counters: opts.Counters,
		chain:    opts.Chain,
		eth:      opts.Network.EthClient,
		net:      opts.Network,
		fatal:    make(chan error, 1),
	}
	if opts.Network.WsClient != nil {
		w.ws = opts.Network.WsClient
	}
	return w
}

// Fatal reports unrecoverable conditions. The backoff runners recover worker
// panics and retry forever, so a condition that must stop the process is
// published here for the composition root to act on.
func (w *Watcher) Fatal() <-chan error {
	return w.fatal
}

func (w *Watcher) escalate(err error) error {
	select {
	case w.fatal <- err:
	default:
	}
	return err
}

// Run starts the workers and blocks until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	go running.WithBackOff(ctx, w.log, "ingest",
		w.ingestOnce, w.net.IndexPeriod, w.net.IndexPeriod, 5*time.Minute)
	go running.WithBackOff(ctx, w.log, "reconcile",
		w.reconcileOnce, w.net.ReconcilePeriod, w.net.ReconcilePeriod, 10*time.Minute)

	if w.ws != nil {
		go running.WithBackOff(ctx, w.log, "live",
			w.listenOnce, time.Second, time.Second, time.Minute)
		go running.WithBackOff(ctx, w.log, "health",
			w.checkHeadsOnce, w.net.IndexPeriod, w.net.IndexPeriod, time.Minute)
	}

	<-ctx.Done()
}
