package poco

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Client reads marketplace state from the hub, the registries and the
// optional KYC token. Every call is bounded by the configured timeout.
type Client struct {
	eth *ethclient.Client

	hub        *bind.BoundContract
	registries map[data.OrderKind]*bind.BoundContract
	kyc        *bind.BoundContract

	timeout time.Duration
}

type ClientOpts struct {
	Eth                *ethclient.Client
	Hub                common.Address
	AppRegistry        common.Address
	DatasetRegistry    common.Address
	WorkerpoolRegistry common.Address
	// KYCToken enables the enterprise gate when non-nil.
	KYCToken *common.Address

	RequestTimeout time.Duration
}

func NewClient(opts ClientOpts) *Client {
	c := &Client{
		eth: opts.Eth,
		hub: bind.NewBoundContract(opts.Hub, HubABI, opts.Eth, opts.Eth, opts.Eth),
		registries: map[data.OrderKind]*bind.BoundContract{
			data.KindApp:        bind.NewBoundContract(opts.AppRegistry, RegistryABI, opts.Eth, opts.Eth, opts.Eth),
			data.KindDataset:    bind.NewBoundContract(opts.DatasetRegistry, RegistryABI, opts.Eth, opts.Eth, opts.Eth),
			data.KindWorkerpool: bind.NewBoundContract(opts.WorkerpoolRegistry, RegistryABI, opts.Eth, opts.Eth, opts.Eth),
		},
		timeout: opts.RequestTimeout,
	}
	if opts.KYCToken != nil {
		c.kyc = bind.NewBoundContract(*opts.KYCToken, TokenABI, opts.Eth, opts.Eth, opts.Eth)
	}
	return c
}

func (c *Client) callOpts(ctx context.Context) (*bind.CallOpts, context.CancelFunc) {
	child, cancel := context.WithTimeout(ctx, c.timeout)
	return &bind.CallOpts{Context: child}, cancel
}

func (c *Client) Consumed(ctx context.Context, orderHash common.Hash) (*big.Int, error) {
	opts, cancel := c.callOpts(ctx)
	defer cancel()

	var out []interface{}
	if err := c.hub.Call(opts, &out, "viewConsumed", orderHash); err != nil {
		return nil, errors.Wrap(err, "failed to call viewConsumed")
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Client) Stake(ctx context.Context, owner common.Address) (*big.Int, error) {
	opts, cancel := c.callOpts(ctx)
	defer cancel()

	var out []interface{}
	if err := c.hub.Call(opts, &out, "viewAccount", owner); err != nil {
		return nil, errors.Wrap(err, "failed to call viewAccount")
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Client) ResourceOwner(ctx context.Context, kind data.OrderKind, resource common.Address) (common.Address, error) {
	registry, ok := c.registries[kind]
	if !ok {
		return common.Address{}, errors.Errorf("no registry for order kind %q", kind)
	}

	opts, cancel := c.callOpts(ctx)
	defer cancel()

	var out []interface{}
	if err := registry.Call(opts, &out, "ownerOf", new(big.Int).SetBytes(resource.Bytes())); err != nil {
		// registries revert on unknown tokens; report that as unregistered
		if strings.Contains(err.Error(), "execution reverted") {
			return common.Address{}, nil
		}
		return common.Address{}, errors.Wrap(err, "failed to call ownerOf")
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Category is the hub's on-chain category record.
type Category struct {
	Name             string
	Description      string
	WorkClockTimeRef *big.Int
}

func (c *Client) Category(ctx context.Context, catID *big.Int) (Category, error) {
	opts, cancel := c.callOpts(ctx)
	defer cancel()

	var out []interface{}
	if err := c.hub.Call(opts, &out, "viewCategory", catID); err != nil {
		return Category{}, errors.Wrap(err, "failed to call viewCategory")
	}
	return Category{
		Name:             *abi.ConvertType(out[0], new(string)).(*string),
		Description:      *abi.ConvertType(out[1], new(string)).(*string),
		WorkClockTimeRef: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
	}, nil
}

func (c *Client) IsWhitelisted(ctx context.Context, address common.Address) (bool, error) {
	if c.kyc == nil {
		return true, nil
	}

	opts, cancel := c.callOpts(ctx)
	defer cancel()

	var out []interface{}
	if err := c.kyc.Call(opts, &out, "isKYC", address); err != nil {
		return false, errors.Wrap(err, "failed to call isKYC")
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	child, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	n, err := c.eth.BlockNumber(child)
	return n, errors.Wrap(err, "failed to get eth_blockNumber")
}
