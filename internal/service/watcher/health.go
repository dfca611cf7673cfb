package watcher

import (
	"context"

	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const maxDriftStrikes = 3

// checkHeadsOnce compares the heads reported by the two transports. A
// persistent drift means one of them serves a stale or forked view, and
// neither path can be trusted, so the condition escalates through Fatal for a
// supervised restart.
func (w *Watcher) checkHeadsOnce(ctx context.Context) error {
	child, cancel := context.WithTimeout(ctx, w.net.RequestTimeout)
	defer cancel()

	httpHead, err := w.eth.BlockNumber(child)
	if err != nil {
		return errors.Wrap(err, "failed to get http head")
	}
	wsHead, err := w.ws.BlockNumber(child)
	if err != nil {
		return errors.Wrap(err, "failed to get ws head")
	}

	drift := httpHead - wsHead
	if wsHead > httpHead {
		drift = wsHead - httpHead
	}

	if drift <= w.net.HeadDriftTolerance {
		w.driftStrikes = 0
		return nil
	}

	w.driftStrikes++
	w.log.WithFields(logan.F{
		"http_head": httpHead, "ws_head": wsHead, "strikes": w.driftStrikes,
	}).Warn("rpc transports disagree on chain head")

	if w.driftStrikes >= maxDriftStrikes {
		return w.escalate(errors.Errorf("rpc transports diverged: http=%d ws=%d", httpHead, wsHead))
	}
	return nil
}
