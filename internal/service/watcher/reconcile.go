package watcher

import (
	"context"

	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// reconcileOnce re-replays everything between checkpoint_block and the
// confirmed head. The checkpoint only advances when the whole range applied
// cleanly, so a failed event keeps its range eligible for the next pass.
// Replaying already-applied events is safe: every trigger is idempotent.
func (w *Watcher) reconcileOnce(ctx context.Context) error {
	checkpoint, err := w.counters.Get(data.CounterCheckpointBlock)
	if err != nil {
		return errors.Wrap(err, "failed to get checkpoint block")
	}

	head, err := w.eth.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get chain head")
	}
	if head < w.net.ConfirmationDepth {
		return nil
	}
	target := head - w.net.ConfirmationDepth

	from := checkpoint + 1
	if w.net.StartBlock > 0 && from < w.net.StartBlock {
		from = w.net.StartBlock
	}
	if from > target {
		return nil
	}

	totalFailed := 0
	for start := from; start <= target; start += w.net.BlockRange {
		end := start + w.net.BlockRange - 1
		if end > target {
			end = target
		}
		failed, err := w.replayRange(ctx, start, end)
		if err != nil {
			return err
		}
		totalFailed += failed
	}

	if totalFailed > 0 {
		w.log.WithFields(logan.F{"from": from, "to": target, "failed": totalFailed}).
			Warn("reconciliation left events unapplied, keeping checkpoint")
		return nil
	}

	err = w.counters.Raise(data.CounterCheckpointBlock, target)
	return errors.Wrap(err, "failed to raise checkpoint block")
}
