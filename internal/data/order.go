package data

import (
	"time"

	"github.com/lib/pq"
	"gitlab.com/distributed_lab/kit/pgdb"
)

// Order is one signed order record. A single table holds all four kinds with a
// discriminator column; kind-specific fields are left at their zero values for
// the kinds that do not use them.
type Order struct {
	ID        int64       `structs:"-" db:"id" json:"-"`
	ChainID   int64       `structs:"chain_id" db:"chain_id" json:"chain_id"`
	Kind      OrderKind   `structs:"kind" db:"kind" json:"kind"`
	OrderHash string      `structs:"order_hash" db:"order_hash" json:"order_hash"`
	Status    OrderStatus `structs:"status" db:"status" json:"status"`

	// Signer is resolved at publish time: the registry owner for resource
	// orders, the requester for request orders.
	Signer string `structs:"signer" db:"signer" json:"signer"`

	// Resource is the priced asset of app/dataset/workerpool orders.
	Resource string `structs:"resource" db:"resource" json:"resource"`
	Price    string `structs:"price" db:"price" json:"price"`

	// Request order references and price ceilings.
	App                string `structs:"app" db:"app" json:"app"`
	AppMaxPrice        string `structs:"app_max_price" db:"app_max_price" json:"app_max_price"`
	Dataset            string `structs:"dataset" db:"dataset" json:"dataset"`
	DatasetMaxPrice    string `structs:"dataset_max_price" db:"dataset_max_price" json:"dataset_max_price"`
	Workerpool         string `structs:"workerpool" db:"workerpool" json:"workerpool"`
	WorkerpoolMaxPrice string `structs:"workerpool_max_price" db:"workerpool_max_price" json:"workerpool_max_price"`
	Requester          string `structs:"requester" db:"requester" json:"requester"`
	Beneficiary        string `structs:"beneficiary" db:"beneficiary" json:"beneficiary"`
	Callback           string `structs:"callback" db:"callback" json:"callback"`
	Params             string `structs:"params" db:"params" json:"params"`

	Category int64 `structs:"category" db:"category" json:"category"`
	Trust    int64 `structs:"trust" db:"trust" json:"trust"`

	AppRestrict        string `structs:"app_restrict" db:"app_restrict" json:"app_restrict"`
	DatasetRestrict    string `structs:"dataset_restrict" db:"dataset_restrict" json:"dataset_restrict"`
	WorkerpoolRestrict string `structs:"workerpool_restrict" db:"workerpool_restrict" json:"workerpool_restrict"`
	RequesterRestrict  string `structs:"requester_restrict" db:"requester_restrict" json:"requester_restrict"`

	Tag      string        `structs:"tag" db:"tag" json:"tag"`
	TagArray pq.Int64Array `structs:"tag_array" db:"tag_array" json:"-"`

	Volume    string `structs:"volume" db:"volume" json:"volume"`
	Remaining string `structs:"remaining" db:"remaining" json:"remaining"`

	Salt      string `structs:"salt" db:"salt" json:"salt"`
	Signature string `structs:"signature" db:"signature" json:"signature"`

	PublishedAt time.Time `structs:"published_at" db:"published_at" json:"published_at"`
}

// OrdersSelector filters order listings. Zero values mean "no constraint".
type OrdersSelector struct {
	Kind       OrderKind
	Status     OrderStatus
	Signer     string
	Resource   string
	App        string
	Dataset    string
	Workerpool string
	Requester  string
	Category   *int64
	// MinRemaining keeps orders with remaining >= the given decimal string.
	MinRemaining string
	// RequiredTag keeps orders whose tag array contains every listed bit.
	RequiredTag []int64
	// MaxTag keeps orders whose tag array is a subset of the listed bits.
	MaxTag []int64
	// AppMaxPriceBelow / DatasetMaxPriceBelow keep request orders whose price
	// ceiling is strictly below the given decimal string.
	AppMaxPriceBelow     string
	DatasetMaxPriceBelow string
	// RequesterRestrict keeps orders whose requester restriction equals the
	// given address.
	RequesterRestrict string
	// Restricted keeps orders carrying at least one non-null
	// app/dataset/workerpool restriction.
	Restricted bool

	PageParams *pgdb.OffsetPageParams
}

// BestSelector describes the "cheapest compatible open counter-order" lookup.
// Restrictions maps a restriction column to the candidate address that must be
// allowed by it (a null restriction always passes).
type BestSelector struct {
	Kind         OrderKind
	Resource     string
	RequiredTag  []int64
	Restrictions map[string]string
}

type Orders interface {
	Get(kind OrderKind, orderHash string) (*Order, error)
	Select(selector OrdersSelector) ([]Order, error)
	Count(selector OrdersSelector) (int64, error)
	CountOpenBySigner(kind OrderKind, signer string) (int64, error)

	// BestOpen returns the cheapest open order matching the selector, ties
	// broken by publication time then hash, or nil when none matches.
	BestOpen(selector BestSelector) (*Order, error)

	// Save admits a new record, reusing an existing row for the same
	// (kind, order_hash) only if that row is dead; returns false without
	// writing when a live row already holds the hash.
	Save(order Order) (*Order, bool, error)

	// MarkDead transitions the listed orders to dead with zero remaining,
	// skipping any that are no longer open; returns the transitioned records.
	MarkDead(kind OrderKind, orderHashes []string) ([]Order, error)

	// Close transitions an open order to canceled with zero remaining;
	// returns nil when the order is absent or already terminal.
	Close(kind OrderKind, orderHash string) (*Order, error)

	// ClampRemaining lowers remaining to min(stored, observed) and flips the
	// status to filled when it reaches zero; returns nil when the order is
	// absent or not open.
	ClampRemaining(kind OrderKind, orderHash string, observed string) (*Order, error)

	// Delete physically removes the listed orders.
	Delete(kind OrderKind, orderHashes []string) error
}
