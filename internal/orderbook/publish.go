package orderbook

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Publish validates a signed order against on-chain truth and admits it into
// the book. Every check must pass before anything is written; the first
// failure aborts the whole operation.
func (b *Book) Publish(ctx context.Context, chainID int64, order SignedOrder, identity Identity) (*data.Order, error) {
	if identity.ChainID != chainID || chainID != b.chainID {
		return nil, Authf("identity is not authorized for chain %d", chainID)
	}

	if err := order.validate(); err != nil {
		return nil, err
	}

	hash, err := b.hasher.Hash(order)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute order hash")
	}

	existing, err := b.orders.Get(order.Kind, data.Hash(hash))
	if err != nil {
		return nil, errors.Wrap(err, "failed to check existing order")
	}
	if existing != nil && existing.Status != data.StatusDead {
		return nil, Businessf("order %s is already published", hash.Hex())
	}

	signer, err := b.resolveSigner(ctx, order)
	if err != nil {
		return nil, err
	}
	if signer != identity.Address {
		return nil, Businessf("order must be published by its signer %s", signer.Hex())
	}

	ok, err := b.hasher.Verify(signer, hash, order.Signature)
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify order signature")
	}
	if !ok {
		return nil, Businessf("invalid signature for signer %s", signer.Hex())
	}

	open, err := b.orders.CountOpenBySigner(order.Kind, data.Addr(signer))
	if err != nil {
		return nil, errors.Wrap(err, "failed to count signer's open orders")
	}
	if open >= b.maxOpenOrders {
		return nil, Businessf("too many open %s orders for %s (max %d)", order.Kind, signer.Hex(), b.maxOpenOrders)
	}

	if err = b.checkWhitelisted(ctx, signer, order); err != nil {
		return nil, err
	}

	consumed, err := b.chain.Consumed(ctx, hash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get consumed volume")
	}
	remaining := new(big.Int).Sub(order.Volume, consumed)
	if remaining.Sign() <= 0 {
		return nil, Businessf("order %s is already fully consumed on-chain", hash.Hex())
	}

	if err = b.checkEconomics(ctx, order, signer, remaining); err != nil {
		return nil, err
	}

	record := order.toRecord(chainID, hash, signer, remaining, time.Now())
	stored, admitted, err := b.orders.Save(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}
	if !admitted {
		// lost a race with a concurrent publish of the same payload
		return nil, Businessf("order %s is already published", hash.Hex())
	}

	b.notifier.Notify(eventName(order.Kind, "published"), *stored)

	// the new order may now be the resource's best; re-evaluating dependents
	// here is a no-op for a cheaper best and keeps the scan on one code path
	if order.Kind == data.KindApp || order.Kind == data.KindDataset {
		if err = b.CleanDependentRequests(ctx, order.Kind, stored.Resource); err != nil {
			b.log.WithError(err).WithField("resource", stored.Resource).
				Error("failed to re-evaluate dependent request orders")
		}
	}
	return stored, nil
}

// resolveSigner derives who must have signed the order: the current registry
// owner for resource orders, the requester itself for request orders. The
// payload never carries the signer directly.
func (b *Book) resolveSigner(ctx context.Context, order SignedOrder) (common.Address, error) {
	if order.Kind == data.KindRequest {
		return order.Requester, nil
	}

	owner, err := b.chain.ResourceOwner(ctx, order.Kind, order.Resource)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to resolve resource owner")
	}
	if owner == (common.Address{}) {
		return common.Address{}, Businessf("%s %s is not registered", order.Kind, order.Resource.Hex())
	}
	return owner, nil
}

func (b *Book) checkWhitelisted(ctx context.Context, signer common.Address, order SignedOrder) error {
	if b.whitelist == nil {
		return nil
	}

	targets := []common.Address{signer}
	for _, a := range []common.Address{
		order.AppRestrict, order.DatasetRestrict, order.WorkerpoolRestrict, order.RequesterRestrict,
	} {
		if a != (common.Address{}) {
			targets = append(targets, a)
		}
	}

	for _, a := range targets {
		ok, err := b.whitelist.IsWhitelisted(ctx, a)
		if err != nil {
			return errors.Wrap(err, "failed to check whitelist")
		}
		if !ok {
			return Businessf("address %s is not authorized to trade", a.Hex())
		}
	}
	return nil
}

func (b *Book) checkEconomics(ctx context.Context, order SignedOrder, signer common.Address, remaining *big.Int) error {
	switch order.Kind {
	case data.KindWorkerpool:
		stake, err := b.chain.Stake(ctx, signer)
		if err != nil {
			return errors.Wrap(err, "failed to get signer stake")
		}
		if stake.Cmp(workerpoolLock(order.Price, remaining)) < 0 {
			return Businessf("insufficient stake to cover workerpool order lock")
		}

	case data.KindRequest:
		stake, err := b.chain.Stake(ctx, signer)
		if err != nil {
			return errors.Wrap(err, "failed to get requester stake")
		}
		if stake.Cmp(requestCost(order.AppMaxPrice, order.DatasetMaxPrice, order.WorkerpoolMaxPrice, remaining)) < 0 {
			return Businessf("insufficient stake to cover request order cost")
		}

		// a request no counter-order can serve today is rejected outright
		view := viewOfSigned(order)
		ok, err := b.matchableApp(view)
		if err != nil {
			return err
		}
		if !ok {
			return Businessf("no matchable app order for %s", order.App.Hex())
		}
		if order.Dataset != (common.Address{}) {
			ok, err = b.matchableDataset(view)
			if err != nil {
				return err
			}
			if !ok {
				return Businessf("no matchable dataset order for %s", order.Dataset.Hex())
			}
		}
	}
	return nil
}

// workerpoolLock is the 30% scheduler stake locked per unit of volume.
func workerpoolLock(price, remaining *big.Int) *big.Int {
	lock := new(big.Int).Mul(price, remaining)
	lock.Mul(lock, big.NewInt(stakeRatioNum))
	return lock.Div(lock, big.NewInt(stakeRatioDen))
}

// requestCost is the full escrow a requester must hold for the order.
func requestCost(appMax, datasetMax, workerpoolMax, remaining *big.Int) *big.Int {
	cost := new(big.Int).Add(appMax, datasetMax)
	cost.Add(cost, workerpoolMax)
	return cost.Mul(cost, remaining)
}
