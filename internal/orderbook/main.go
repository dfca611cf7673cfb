package orderbook

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
)

// ChainReader exposes the few on-chain reads the book needs to validate and
// clean orders. Implementations must bound every call with a timeout.
type ChainReader interface {
	// Consumed returns the volume already spent on-chain for the order hash.
	Consumed(ctx context.Context, orderHash common.Hash) (*big.Int, error)
	// Stake returns the address's free stake in the hub escrow.
	Stake(ctx context.Context, owner common.Address) (*big.Int, error)
	// ResourceOwner resolves the current registry owner of an
	// app/dataset/workerpool token.
	ResourceOwner(ctx context.Context, kind data.OrderKind, resource common.Address) (common.Address, error)
}

// OrderHasher computes and verifies the canonical signed-order hash.
type OrderHasher interface {
	Hash(order SignedOrder) (common.Hash, error)
	Verify(signer common.Address, hash common.Hash, signature []byte) (bool, error)
}

// Whitelist gates publication in enterprise deployments. A nil Whitelist on
// the book disables the gate entirely.
type Whitelist interface {
	IsWhitelisted(ctx context.Context, address common.Address) (bool, error)
}

// Identity is the authenticated caller of publish/unpublish operations.
// Authorization is chain-scoped: an identity never spans chains.
type Identity struct {
	Address common.Address
	ChainID int64
}

// Book is the order-book consistency engine: publication, cancellation,
// querying and the dependency-cleanup state machine over a single chain's
// store partition.
type Book struct {
	log        *logan.Entry
	chainID    int64
	orders     data.Orders
	deals      data.Deals
	categories data.Categories
	chain      ChainReader
	hasher     OrderHasher
	whitelist  Whitelist
	notifier   Notifier

	maxOpenOrders int64
}

type Opts struct {
	Log        *logan.Entry
	ChainID    int64
	Orders     data.Orders
	Deals      data.Deals
	Categories data.Categories
	Chain      ChainReader
	Hasher     OrderHasher
	Whitelist  Whitelist
	Notifier   Notifier

	MaxOpenOrdersPerWallet int64
}

const defaultMaxOpenOrders = 50

func New(opts Opts) *Book {
	if opts.MaxOpenOrdersPerWallet <= 0 {
		opts.MaxOpenOrdersPerWallet = defaultMaxOpenOrders
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	return &Book{
		log:           opts.Log,
		chainID:       opts.ChainID,
		orders:        opts.Orders,
		deals:         opts.Deals,
		categories:    opts.Categories,
		chain:         opts.Chain,
		hasher:        opts.Hasher,
		whitelist:     opts.Whitelist,
		notifier:      opts.Notifier,
		maxOpenOrders: opts.MaxOpenOrdersPerWallet,
	}
}

// Workerpool publication locks 30% of the pool price per unit of volume.
const (
	stakeRatioNum = 30
	stakeRatioDen = 100
)

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
