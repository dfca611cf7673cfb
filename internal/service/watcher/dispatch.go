package watcher

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"github.com/gridmarket/orderbook-svc/internal/poco"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	topicOrdersMatched         = poco.HubABI.Events[poco.EventOrdersMatched].ID
	topicClosedAppOrder        = poco.HubABI.Events[poco.EventClosedAppOrder].ID
	topicClosedDatasetOrder    = poco.HubABI.Events[poco.EventClosedDatasetOrder].ID
	topicClosedWorkerpoolOrder = poco.HubABI.Events[poco.EventClosedWorkerpoolOrder].ID
	topicClosedRequestOrder    = poco.HubABI.Events[poco.EventClosedRequestOrder].ID
	topicCreateCategory        = poco.HubABI.Events[poco.EventCreateCategory].ID
	topicTransfer              = poco.RegistryABI.Events[poco.EventTransfer].ID
	topicRoleRevoked           = poco.TokenABI.Events[poco.EventRoleRevoked].ID

	roleKYCMember = crypto.Keccak256Hash([]byte("KYC_MEMBER_ROLE"))
)

func (w *Watcher) filterQuery(from, to *big.Int) ethereum.FilterQuery {
	addresses := []common.Address{
		w.net.Hub,
		w.net.StakingToken,
		w.net.AppRegistry,
		w.net.DatasetRegistry,
		w.net.WorkerpoolRegistry,
	}
	if w.net.KYCToken != (common.Address{}) {
		addresses = append(addresses, w.net.KYCToken)
	}

	return ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: addresses,
		Topics: [][]common.Hash{{
			topicOrdersMatched,
			topicClosedAppOrder,
			topicClosedDatasetOrder,
			topicClosedWorkerpoolOrder,
			topicClosedRequestOrder,
			topicCreateCategory,
			topicTransfer,
			topicRoleRevoked,
		}},
	}
}

func (w *Watcher) dispatch(ctx context.Context, lg types.Log) error {
	if len(lg.Topics) == 0 {
		return nil
	}

	switch lg.Address {
	case w.net.Hub:
		return w.dispatchHub(ctx, lg)
	case w.net.StakingToken:
		return w.dispatchStake(ctx, lg)
	case w.net.AppRegistry:
		return w.dispatchRegistry(ctx, data.KindApp, lg)
	case w.net.DatasetRegistry:
		return w.dispatchRegistry(ctx, data.KindDataset, lg)
	case w.net.WorkerpoolRegistry:
		return w.dispatchRegistry(ctx, data.KindWorkerpool, lg)
	case w.net.KYCToken:
		return w.dispatchKYC(ctx, lg)
	}
	return nil
}

func (w *Watcher) dispatchHub(ctx context.Context, lg types.Log) error {
	switch lg.Topics[0] {
	case topicOrdersMatched:
		return w.applyMatch(ctx, lg)

	case topicClosedAppOrder:
		return w.applyClose(ctx, data.KindApp, poco.EventClosedAppOrder, lg)
	case topicClosedDatasetOrder:
		return w.applyClose(ctx, data.KindDataset, poco.EventClosedDatasetOrder, lg)
	case topicClosedWorkerpoolOrder:
		return w.applyClose(ctx, data.KindWorkerpool, poco.EventClosedWorkerpoolOrder, lg)
	case topicClosedRequestOrder:
		return w.applyClose(ctx, data.KindRequest, poco.EventClosedRequestOrder, lg)

	case topicCreateCategory:
		return w.applyCategory(ctx, lg)
	}
	return nil
}

func (w *Watcher) applyMatch(ctx context.Context, lg types.Log) error {
	evt, err := poco.UnpackOrdersMatched(lg)
	if err != nil {
		return err
	}

	timestamp, err := w.blockTimestamp(ctx, lg.BlockNumber)
	if err != nil {
		return err
	}

	return w.book.OrdersMatched(ctx, orderbook.MatchedDeal{
		DealID:         common.Hash(evt.Dealid),
		AppHash:        common.Hash(evt.AppHash),
		DatasetHash:    common.Hash(evt.DatasetHash),
		WorkerpoolHash: common.Hash(evt.WorkerpoolHash),
		RequestHash:    common.Hash(evt.RequestHash),
		Volume:         evt.Volume,
		BlockNumber:    lg.BlockNumber,
		TxHash:         lg.TxHash,
		Timestamp:      timestamp,
	})
}

func (w *Watcher) applyClose(ctx context.Context, kind data.OrderKind, eventName string, lg types.Log) error {
	evt, err := poco.UnpackClosedOrder(eventName, lg)
	if err != nil {
		return err
	}
	return w.book.OrderClosed(ctx, kind, evt.OrderHash)
}

func (w *Watcher) applyCategory(ctx context.Context, lg types.Log) error {
	evt, err := poco.UnpackCreateCategory(lg)
	if err != nil {
		return err
	}

	cat, err := w.chain.Category(ctx, evt.Catid)
	if err != nil {
		return errors.Wrap(err, "failed to read category from hub")
	}

	return w.book.RecordCategory(data.Category{
		ChainID:          w.net.ChainID,
		CatID:            evt.Catid.Int64(),
		Name:             cat.Name,
		Description:      cat.Description,
		WorkClockTimeRef: cat.WorkClockTimeRef.Int64(),
		BlockNumber:      lg.BlockNumber,
		TxHash:           data.Hash(lg.TxHash),
	})
}

// dispatchStake treats any outgoing staking-token transfer as a potential
// stake drop for the sender and re-checks the economics of their open orders.
func (w *Watcher) dispatchStake(ctx context.Context, lg types.Log) error {
	if lg.Topics[0] != topicTransfer {
		return nil
	}
	evt, err := poco.UnpackTransfer(lg)
	if err != nil {
		return err
	}
	if evt.From == (common.Address{}) {
		return nil
	}
	return w.book.StakeDecreased(ctx, evt.From)
}

// dispatchRegistry handles resource ownership transfers. Mints come from the
// null address and cannot orphan anything, so they are skipped.
func (w *Watcher) dispatchRegistry(ctx context.Context, kind data.OrderKind, lg types.Log) error {
	if lg.Topics[0] != topicTransfer {
		return nil
	}
	evt, err := poco.UnpackTransfer(lg)
	if err != nil {
		return err
	}
	if evt.From == (common.Address{}) || evt.TokenID == nil {
		return nil
	}
	return w.book.OwnershipTransferred(ctx, kind, poco.TokenAddress(evt.TokenID), evt.From)
}

func (w *Watcher) dispatchKYC(ctx context.Context, lg types.Log) error {
	if lg.Topics[0] != topicRoleRevoked {
		return nil
	}
	evt, err := poco.UnpackRoleRevoked(lg)
	if err != nil {
		return err
	}
	if evt.Role != roleKYCMember {
		return nil
	}
	return w.book.KYCRevoked(ctx, evt.Account)
}

func (w *Watcher) blockTimestamp(ctx context.Context, blockNumber uint64) (int64, error) {
	child, cancel := context.WithTimeout(ctx, w.net.RequestTimeout)
	defer cancel()

	header, err := w.eth.HeaderByNumber(child, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get block header")
	}
	return int64(header.Time), nil
}
