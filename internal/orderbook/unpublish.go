package orderbook

import (
	"context"
	"sort"

	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// UnpublishTarget selects which of the signer's orders to withdraw.
type UnpublishTarget string

const (
	// TargetHash withdraws one specific order by hash.
	TargetHash UnpublishTarget = "hash"
	// TargetLast withdraws the signer's most recently published open order
	// for the resource.
	TargetLast UnpublishTarget = "last"
	// TargetAll withdraws every open order the signer holds for the resource.
	TargetAll UnpublishTarget = "all"
)

// Unpublish withdraws orders on the signer's request. Unlike the dead
// transition, withdrawal deletes rows outright: the payload stays valid
// on-chain and can be freely republished.
func (b *Book) Unpublish(ctx context.Context, chainID int64, kind data.OrderKind, target UnpublishTarget, ref string, identity Identity) ([]string, error) {
	if identity.ChainID != chainID || chainID != b.chainID {
		return nil, Authf("identity is not authorized for chain %d", chainID)
	}
	if !kind.Valid() {
		return nil, Validationf("unknown order kind %q", kind)
	}

	var victims []data.Order
	switch target {
	case TargetHash:
		rec, err := b.orders.Get(kind, ref)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get order")
		}
		if rec == nil {
			return nil, NotFoundf("order %s not found", ref)
		}
		if rec.Status != data.StatusOpen {
			return nil, Businessf("order %s is not open", ref)
		}
		if rec.Signer != data.Addr(identity.Address) {
			return nil, Businessf("order %s does not belong to %s", ref, identity.Address.Hex())
		}
		victims = []data.Order{*rec}

	case TargetLast, TargetAll:
		open, err := b.openByResource(kind, ref, identity)
		if err != nil {
			return nil, err
		}
		if len(open) == 0 {
			return nil, NotFoundf("no open %s orders for %s", kind, ref)
		}
		if target == TargetLast {
			open = open[:1]
		}
		victims = open

	default:
		return nil, Validationf("unknown unpublish target %q", target)
	}

	hashes := make([]string, 0, len(victims))
	for _, o := range victims {
		hashes = append(hashes, o.OrderHash)
	}
	if err := b.orders.Delete(kind, hashes); err != nil {
		return nil, errors.Wrap(err, "failed to delete orders")
	}
	for _, h := range hashes {
		b.notifier.Notify(eventName(kind, "unpublished"), h)
	}

	// withdrawing resource orders can raise the best price for dependents
	if kind == data.KindApp || kind == data.KindDataset {
		if err := b.CleanDependentRequests(ctx, kind, victims[0].Resource); err != nil {
			b.log.WithError(err).WithField("resource", victims[0].Resource).
				Error("failed to re-evaluate dependent request orders")
		}
	}
	return hashes, nil
}

// openByResource lists the signer's open orders for a resource, most recently
// published first (hash descending on equal timestamps keeps it
// deterministic).
func (b *Book) openByResource(kind data.OrderKind, resource string, identity Identity) ([]data.Order, error) {
	sel := data.OrdersSelector{
		Kind:   kind,
		Status: data.StatusOpen,
		Signer: data.Addr(identity.Address),
	}
	if kind == data.KindRequest {
		sel.Requester = data.Addr(identity.Address)
	} else {
		sel.Resource = resource
	}

	open, err := b.orders.Select(sel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select open orders")
	}

	// latest first
	sort.Slice(open, func(i, j int) bool {
		if !open[i].PublishedAt.Equal(open[j].PublishedAt) {
			return open[i].PublishedAt.After(open[j].PublishedAt)
		}
		return open[i].OrderHash > open[j].OrderHash
	})
	return open, nil
}
