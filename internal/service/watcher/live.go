package watcher

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// listenOnce applies events from the websocket subscription as they arrive.
// The subscription is best-effort: counters stay owned by the polling path,
// and anything missed here is picked up by ingest or reconciliation.
func (w *Watcher) listenOnce(ctx context.Context) error {
	sink := make(chan types.Log)
	sub, err := w.ws.SubscribeFilterLogs(ctx, w.filterQuery(nil, nil), sink)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to logs")
	}
	defer sub.Unsubscribe()

	w.log.Info("live subscription established")

	for {
		select {
		case lg := <-sink:
			if lg.Removed {
				continue
			}
			if err = w.dispatch(ctx, lg); err != nil {
				w.log.WithError(err).WithFields(logan.F{
					"block": lg.BlockNumber, "tx": lg.TxHash.Hex(), "index": lg.Index,
				}).Error("failed to apply live event")
			}
		case err = <-sub.Err():
			return errors.Wrap(err, "subscription error occurred")
		case <-ctx.Done():
			return nil
		}
	}
}
