package poco

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Event names as they appear in the contract ABIs.
const (
	EventOrdersMatched         = "OrdersMatched"
	EventClosedAppOrder        = "ClosedAppOrder"
	EventClosedDatasetOrder    = "ClosedDatasetOrder"
	EventClosedWorkerpoolOrder = "ClosedWorkerpoolOrder"
	EventClosedRequestOrder    = "ClosedRequestOrder"
	EventCreateCategory        = "CreateCategory"
	EventTransfer              = "Transfer"
	EventRoleRevoked           = "RoleRevoked"
)

type OrdersMatchedEvent struct {
	Dealid         [32]byte
	AppHash        [32]byte
	DatasetHash    [32]byte
	WorkerpoolHash [32]byte
	RequestHash    [32]byte
	Volume         *big.Int
}

type ClosedOrderEvent struct {
	OrderHash common.Hash
}

type CreateCategoryEvent struct {
	Catid *big.Int
}

// TransferEvent covers both the staking token (ERC20, value in data) and the
// registry tokens (ERC721, token id in the third topic). TokenID is nil for
// the ERC20 shape.
type TransferEvent struct {
	From    common.Address
	To      common.Address
	TokenID *big.Int
}

type RoleRevokedEvent struct {
	Role    common.Hash
	Account common.Address
}

func UnpackOrdersMatched(log types.Log) (OrdersMatchedEvent, error) {
	var evt OrdersMatchedEvent
	err := HubABI.UnpackIntoInterface(&evt, EventOrdersMatched, log.Data)
	return evt, errors.Wrap(err, "failed to unpack OrdersMatched")
}

func UnpackClosedOrder(eventName string, log types.Log) (ClosedOrderEvent, error) {
	var raw struct {
		AppHash        [32]byte
		DatasetHash    [32]byte
		WorkerpoolHash [32]byte
		RequestHash    [32]byte
	}
	if err := HubABI.UnpackIntoInterface(&raw, eventName, log.Data); err != nil {
		return ClosedOrderEvent{}, errors.Wrap(err, "failed to unpack closed order event")
	}

	var h [32]byte
	switch eventName {
	case EventClosedAppOrder:
		h = raw.AppHash
	case EventClosedDatasetOrder:
		h = raw.DatasetHash
	case EventClosedWorkerpoolOrder:
		h = raw.WorkerpoolHash
	case EventClosedRequestOrder:
		h = raw.RequestHash
	default:
		return ClosedOrderEvent{}, errors.Errorf("unexpected closed order event %q", eventName)
	}
	return ClosedOrderEvent{OrderHash: common.Hash(h)}, nil
}

func UnpackCreateCategory(log types.Log) (CreateCategoryEvent, error) {
	var evt CreateCategoryEvent
	err := HubABI.UnpackIntoInterface(&evt, EventCreateCategory, log.Data)
	return evt, errors.Wrap(err, "failed to unpack CreateCategory")
}

// UnpackTransfer decodes from the topics: ERC721 carries the token id as a
// third indexed arg, ERC20 carries the amount in data (which we do not need).
func UnpackTransfer(log types.Log) (TransferEvent, error) {
	if len(log.Topics) < 3 {
		return TransferEvent{}, errors.New("transfer log has too few topics")
	}
	evt := TransferEvent{
		From: common.BytesToAddress(log.Topics[1].Bytes()),
		To:   common.BytesToAddress(log.Topics[2].Bytes()),
	}
	if len(log.Topics) == 4 {
		evt.TokenID = new(big.Int).SetBytes(log.Topics[3].Bytes())
	}
	return evt, nil
}

func UnpackRoleRevoked(log types.Log) (RoleRevokedEvent, error) {
	if len(log.Topics) < 3 {
		return RoleRevokedEvent{}, errors.New("role revoked log has too few topics")
	}
	return RoleRevokedEvent{
		Role:    log.Topics[1],
		Account: common.BytesToAddress(log.Topics[2].Bytes()),
	}, nil
}

// TokenAddress maps an ERC721 token id back to the resource address the
// registries mint for it.
func TokenAddress(tokenID *big.Int) common.Address {
	return common.BigToAddress(tokenID)
}
