package data

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NullAddress marks an unset address field (unrestricted, no dataset, etc).
const NullAddress = "0x0000000000000000000000000000000000000000"

type OrderKind string

const (
	KindApp        OrderKind = "app"
	KindDataset    OrderKind = "dataset"
	KindWorkerpool OrderKind = "workerpool"
	KindRequest    OrderKind = "request"
)

func (k OrderKind) Valid() bool {
	switch k {
	case KindApp, KindDataset, KindWorkerpool, KindRequest:
		return true
	}
	return false
}

// IsResource tells whether orders of this kind are signed by a registry owner
// rather than by the submitter itself.
func (k OrderKind) IsResource() bool {
	return k != KindRequest
}

type OrderStatus string

const (
	StatusOpen     OrderStatus = "open"
	StatusFilled   OrderStatus = "filled"
	StatusCanceled OrderStatus = "canceled"
	StatusDead     OrderStatus = "dead"
)

// Addr normalizes an address for storage and filtering.
func Addr(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// Hash normalizes a 32-byte hash for storage and filtering.
func Hash(h common.Hash) string {
	return strings.ToLower(h.Hex())
}
