package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
)

// The gateway in front of the service authenticates wallets and forwards the
// proven identity in these headers.
const (
	headerAuthAddress = "X-Auth-Address"
	headerAuthChainID = "X-Auth-Chain-Id"
)

func identity(r *http.Request) (orderbook.Identity, error) {
	addr := r.Header.Get(headerAuthAddress)
	if !common.IsHexAddress(addr) {
		return orderbook.Identity{}, orderbook.Authf("missing or malformed %s header", headerAuthAddress)
	}

	chainID, err := strconv.ParseInt(r.Header.Get(headerAuthChainID), 10, 64)
	if err != nil {
		return orderbook.Identity{}, orderbook.Authf("missing or malformed %s header", headerAuthChainID)
	}

	return orderbook.Identity{
		Address: common.HexToAddress(addr),
		ChainID: chainID,
	}, nil
}
