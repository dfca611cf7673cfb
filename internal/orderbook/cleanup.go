package orderbook

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// MatchedDeal is the decoded OrdersMatched payload handed in by ingestion.
type MatchedDeal struct {
	DealID         common.Hash
	AppHash        common.Hash
	DatasetHash    common.Hash
	WorkerpoolHash common.Hash
	RequestHash    common.Hash
	Volume         *big.Int

	BlockNumber uint64
	TxHash      common.Hash
	Timestamp   int64
}

// CleanDependentRequests re-evaluates open request orders referencing the
// resource after its best price may have moved, and kills any that can no
// longer be matched. The best-price read happens after the triggering
// mutation is durable, so the scan never races against its own trigger.
func (b *Book) CleanDependentRequests(ctx context.Context, kind data.OrderKind, resource string) error {
	if kind != data.KindApp && kind != data.KindDataset {
		return nil
	}

	candidates, err := b.dependentCandidates(kind, resource)
	if err != nil {
		return err
	}

	var doomed []string
	for _, cand := range candidates {
		ok, err := b.matchableLeg(kind, viewOfRecord(cand))
		if err != nil {
			return err
		}
		if !ok {
			doomed = append(doomed, cand.OrderHash)
		}
	}

	return b.markDead(data.KindRequest, doomed)
}

// dependentCandidates narrows the scan to requests whose price ceiling sits
// below the current best price, evaluating the TEE-tagged subset against the
// TEE-specific best separately (a cheap non-TEE order is no help to a TEE
// request).
func (b *Book) dependentCandidates(kind data.OrderKind, resource string) ([]data.Order, error) {
	plain, err := b.candidatesBelowBest(kind, resource, nil)
	if err != nil {
		return nil, err
	}
	tee, err := b.candidatesBelowBest(kind, resource, []int64{TagBitTEE})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(plain))
	out := make([]data.Order, 0, len(plain)+len(tee))
	for _, set := range [][]data.Order{plain, tee} {
		for _, o := range set {
			if _, dup := seen[o.OrderHash]; dup {
				continue
			}
			seen[o.OrderHash] = struct{}{}
			out = append(out, o)
		}
	}
	return out, nil
}

func (b *Book) candidatesBelowBest(kind data.OrderKind, resource string, requiredTag []int64) ([]data.Order, error) {
	best, err := b.orders.BestOpen(data.BestSelector{
		Kind:        kind,
		Resource:    resource,
		RequiredTag: requiredTag,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find best counter-order")
	}

	sel := data.OrdersSelector{
		Kind:        data.KindRequest,
		Status:      data.StatusOpen,
		RequiredTag: requiredTag,
	}
	if kind == data.KindApp {
		sel.App = resource
	} else {
		sel.Dataset = resource
	}
	if best != nil {
		// orders at or above the best price are safe by construction
		if kind == data.KindApp {
			sel.AppMaxPriceBelow = best.Price
		} else {
			sel.DatasetMaxPriceBelow = best.Price
		}
	}

	candidates, err := b.orders.Select(sel)
	return candidates, errors.Wrap(err, "failed to select dependent request orders")
}

// OrderClosed applies an on-chain cancellation or full consumption observed
// via a Closed*Order event: open → canceled, then the dependent scan for
// resource kinds. Replays are no-ops because the transition is one-way.
func (b *Book) OrderClosed(ctx context.Context, kind data.OrderKind, orderHash common.Hash) error {
	closed, err := b.orders.Close(kind, data.Hash(orderHash))
	if err != nil {
		return errors.Wrap(err, "failed to close order")
	}
	if closed == nil {
		return nil
	}
	b.notifier.Notify(eventName(kind, "canceled"), *closed)

	return b.CleanDependentRequests(ctx, kind, closed.Resource)
}

// OrdersMatched applies a match: records the deal once and clamps every
// participating order's remaining to the chain-observed value. Remaining is
// monotonically non-increasing, so replayed or out-of-order events can never
// resurrect volume.
func (b *Book) OrdersMatched(ctx context.Context, deal MatchedDeal) error {
	legs := []struct {
		kind data.OrderKind
		hash common.Hash
	}{
		{data.KindApp, deal.AppHash},
		{data.KindDataset, deal.DatasetHash},
		{data.KindWorkerpool, deal.WorkerpoolHash},
		{data.KindRequest, deal.RequestHash},
	}

	records := make(map[data.OrderKind]*data.Order, len(legs))
	for _, leg := range legs {
		if leg.hash == (common.Hash{}) {
			continue
		}
		rec, err := b.applyConsumption(ctx, leg.kind, leg.hash)
		if err != nil {
			return err
		}
		records[leg.kind] = rec
	}

	inserted, err := b.deals.Insert(b.dealRecord(deal, records))
	if err != nil {
		return errors.Wrap(err, "failed to record deal")
	}
	if inserted {
		b.notifier.Notify("deal_created", deal)
	}
	return nil
}

func (b *Book) applyConsumption(ctx context.Context, kind data.OrderKind, orderHash common.Hash) (*data.Order, error) {
	rec, err := b.orders.Get(kind, data.Hash(orderHash))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get matched order")
	}
	if rec == nil {
		// matched directly on-chain, never published in this book
		return nil, nil
	}

	consumed, err := b.chain.Consumed(ctx, orderHash)
	if err != nil {
		return rec, errors.Wrap(err, "failed to get consumed volume", logan.F{"order_hash": orderHash.Hex()})
	}
	observed := new(big.Int).Sub(mustBig(rec.Volume), consumed)
	if observed.Sign() < 0 {
		observed.SetInt64(0)
	}

	updated, err := b.orders.ClampRemaining(kind, rec.OrderHash, observed.String())
	if err != nil {
		return rec, errors.Wrap(err, "failed to clamp order remaining")
	}
	if updated == nil {
		return rec, nil
	}

	if updated.Status == data.StatusFilled {
		b.notifier.Notify(eventName(kind, "filled"), *updated)
	} else {
		b.notifier.Notify(eventName(kind, "updated"), *updated)
	}
	return updated, nil
}

func (b *Book) dealRecord(deal MatchedDeal, legs map[data.OrderKind]*data.Order) data.Deal {
	rec := data.Deal{
		ChainID:        b.chainID,
		DealID:         data.Hash(deal.DealID),
		AppHash:        data.Hash(deal.AppHash),
		DatasetHash:    data.Hash(deal.DatasetHash),
		WorkerpoolHash: data.Hash(deal.WorkerpoolHash),
		RequestHash:    data.Hash(deal.RequestHash),
		Volume:         dec(deal.Volume),
		BlockNumber:    deal.BlockNumber,
		TxHash:         data.Hash(deal.TxHash),
	}
	if deal.Timestamp > 0 {
		rec.CreatedAt = time.Unix(deal.Timestamp, 0).UTC()
	}

	if app := legs[data.KindApp]; app != nil {
		rec.App, rec.AppOwner, rec.AppPrice = app.Resource, app.Signer, app.Price
	}
	if ds := legs[data.KindDataset]; ds != nil {
		rec.Dataset, rec.DatasetOwner, rec.DatasetPrice = ds.Resource, ds.Signer, ds.Price
	}
	if wp := legs[data.KindWorkerpool]; wp != nil {
		rec.Workerpool, rec.WorkerpoolOwner, rec.WorkerpoolPrice = wp.Resource, wp.Signer, wp.Price
		rec.Category = wp.Category
	}
	if req := legs[data.KindRequest]; req != nil {
		rec.Requester, rec.Beneficiary = req.Requester, req.Beneficiary
		rec.Category = req.Category
	}
	return rec
}

// StakeDecreased re-evaluates every open order whose stake assumption the
// transfer may have broken: workerpool orders against the 30% lock, request
// orders against the full escrow cost.
func (b *Book) StakeDecreased(ctx context.Context, owner common.Address) error {
	stake, err := b.chain.Stake(ctx, owner)
	if err != nil {
		return errors.Wrap(err, "failed to get owner stake")
	}

	pools, err := b.orders.Select(data.OrdersSelector{
		Kind: data.KindWorkerpool, Status: data.StatusOpen, Signer: data.Addr(owner),
	})
	if err != nil {
		return errors.Wrap(err, "failed to select open workerpool orders")
	}
	var doomedPools []string
	for _, o := range pools {
		if stake.Cmp(workerpoolLock(mustBig(o.Price), mustBig(o.Remaining))) < 0 {
			doomedPools = append(doomedPools, o.OrderHash)
		}
	}
	if err = b.markDead(data.KindWorkerpool, doomedPools); err != nil {
		return err
	}

	requests, err := b.orders.Select(data.OrdersSelector{
		Kind: data.KindRequest, Status: data.StatusOpen, Signer: data.Addr(owner),
	})
	if err != nil {
		return errors.Wrap(err, "failed to select open request orders")
	}
	var doomedRequests []string
	for _, o := range requests {
		cost := requestCost(mustBig(o.AppMaxPrice), mustBig(o.DatasetMaxPrice), mustBig(o.WorkerpoolMaxPrice), mustBig(o.Remaining))
		if stake.Cmp(cost) < 0 {
			doomedRequests = append(doomedRequests, o.OrderHash)
		}
	}
	return b.markDead(data.KindRequest, doomedRequests)
}

// OwnershipTransferred kills every open order the previous owner signed for
// the transferred resource; the new owner must republish. Dependents are then
// re-evaluated since the resource's best price may have disappeared with them.
func (b *Book) OwnershipTransferred(ctx context.Context, kind data.OrderKind, resource, previousOwner common.Address) error {
	if !kind.IsResource() {
		return nil
	}

	orphaned, err := b.orders.Select(data.OrdersSelector{
		Kind:     kind,
		Status:   data.StatusOpen,
		Resource: data.Addr(resource),
		Signer:   data.Addr(previousOwner),
	})
	if err != nil {
		return errors.Wrap(err, "failed to select previous owner's orders")
	}

	hashes := make([]string, 0, len(orphaned))
	for _, o := range orphaned {
		hashes = append(hashes, o.OrderHash)
	}
	if err = b.markDead(kind, hashes); err != nil {
		return err
	}
	if len(hashes) == 0 {
		return nil
	}

	return b.CleanDependentRequests(ctx, kind, data.Addr(resource))
}

// KYCRevoked kills every open order the revoked address signed, plus every
// open order whose restriction resolves to something the address owns. A
// later re-grant does not resurrect them: dead is terminal.
func (b *Book) KYCRevoked(ctx context.Context, revoked common.Address) error {
	addr := data.Addr(revoked)

	signed, err := b.orders.Select(data.OrdersSelector{Status: data.StatusOpen, Signer: addr})
	if err != nil {
		return errors.Wrap(err, "failed to select revoked signer's orders")
	}

	restricted, err := b.orders.Select(data.OrdersSelector{Status: data.StatusOpen, RequesterRestrict: addr})
	if err != nil {
		return errors.Wrap(err, "failed to select requester-restricted orders")
	}

	targeted, err := b.restrictionTargets(ctx, revoked)
	if err != nil {
		return err
	}

	doomed := map[data.OrderKind][]string{}
	seen := map[string]struct{}{}
	for _, set := range [][]data.Order{signed, restricted, targeted} {
		for _, o := range set {
			key := string(o.Kind) + o.OrderHash
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			doomed[o.Kind] = append(doomed[o.Kind], o.OrderHash)
		}
	}

	for kind, hashes := range doomed {
		if err = b.markDead(kind, hashes); err != nil {
			return err
		}
	}
	return nil
}

// restrictionTargets finds open orders whose app/dataset/workerpool
// restriction points at a resource currently owned by the revoked address.
func (b *Book) restrictionTargets(ctx context.Context, revoked common.Address) ([]data.Order, error) {
	candidates, err := b.orders.Select(data.OrdersSelector{Status: data.StatusOpen, Restricted: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to select restricted orders")
	}

	owners := map[string]bool{}
	ownedBy := func(kind data.OrderKind, resource string) (bool, error) {
		if resource == data.NullAddress {
			return false, nil
		}
		key := string(kind) + resource
		if hit, ok := owners[key]; ok {
			return hit, nil
		}
		owner, err := b.chain.ResourceOwner(ctx, kind, common.HexToAddress(resource))
		if err != nil {
			return false, errors.Wrap(err, "failed to resolve restriction owner")
		}
		hit := owner == revoked
		owners[key] = hit
		return hit, nil
	}

	var out []data.Order
	for _, o := range candidates {
		for _, ref := range []struct {
			kind     data.OrderKind
			resource string
		}{
			{data.KindApp, o.AppRestrict},
			{data.KindDataset, o.DatasetRestrict},
			{data.KindWorkerpool, o.WorkerpoolRestrict},
		} {
			hit, err := ownedBy(ref.kind, ref.resource)
			if err != nil {
				return nil, err
			}
			if hit {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (b *Book) markDead(kind data.OrderKind, orderHashes []string) error {
	if len(orderHashes) == 0 {
		return nil
	}

	dead, err := b.orders.MarkDead(kind, orderHashes)
	if err != nil {
		return errors.Wrap(err, "failed to mark orders dead")
	}
	for _, o := range dead {
		b.notifier.Notify(eventName(kind, "cleaned"), o)
	}
	return nil
}
