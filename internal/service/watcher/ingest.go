package watcher

import (
	"context"
	"math/big"

	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const maxIngestFailures = 10

// ingestOnce replays one bounded batch of new blocks and advances last_block.
// Individual event failures are logged, not fatal: the counter still moves so
// one poison log cannot stall ingestion, and reconciliation retries the range
// before the checkpoint passes it. Failing the whole batch this many times in
// a row exhausts the retry budget and escalates through Fatal.
func (w *Watcher) ingestOnce(ctx context.Context) error {
	err := w.ingestBatch(ctx)
	if err == nil {
		w.ingestFailures = 0
		return nil
	}

	w.ingestFailures++
	if w.ingestFailures >= maxIngestFailures {
		return w.escalate(errors.Wrap(err, "ingestion retry budget exhausted"))
	}
	return err
}

func (w *Watcher) ingestBatch(ctx context.Context) error {
	last, err := w.counters.Get(data.CounterLastBlock)
	if err != nil {
		return errors.Wrap(err, "failed to get last block")
	}

	from := last + 1
	if w.net.StartBlock > 0 && from < w.net.StartBlock {
		from = w.net.StartBlock
	}

	head, err := w.eth.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get chain head")
	}
	if head < from {
		return nil
	}

	to := from + w.net.BlockRange - 1
	if to > head {
		to = head
	}

	failed, err := w.replayRange(ctx, from, to)
	if err != nil {
		return err
	}
	if failed > 0 {
		w.log.WithFields(logan.F{"from": from, "to": to, "failed": failed}).
			Warn("some events were not applied, waiting for reconciliation")
	}

	err = w.counters.Raise(data.CounterLastBlock, to)
	return errors.Wrap(err, "failed to raise last block")
}

// replayRange filters the watched contracts over [from, to] and applies every
// log in order. Returns how many logs failed to apply.
func (w *Watcher) replayRange(ctx context.Context, from, to uint64) (int, error) {
	child, cancel := context.WithTimeout(ctx, w.net.RequestTimeout)
	defer cancel()

	query := w.filterQuery(new(big.Int).SetUint64(from), new(big.Int).SetUint64(to))
	logs, err := w.eth.FilterLogs(child, query)
	if err != nil {
		return 0, errors.Wrap(err, "failed to filter logs", logan.F{"from": from, "to": to})
	}

	failed := 0
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		if err := w.dispatch(ctx, lg); err != nil {
			w.log.WithError(err).WithFields(logan.F{
				"block": lg.BlockNumber, "tx": lg.TxHash.Hex(), "index": lg.Index,
			}).Error("failed to apply event")
			failed++
		}
	}
	return failed, nil
}
