package config

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Network struct {
	// EthClient is the polling transport; WsClient carries live
	// subscriptions and is nil when no ws_rpc endpoint is configured.
	EthClient *ethclient.Client
	WsClient  *ethclient.Client

	Hub                common.Address
	StakingToken       common.Address
	AppRegistry        common.Address
	DatasetRegistry    common.Address
	WorkerpoolRegistry common.Address
	// KYCToken enables the enterprise on-chain gate when non-zero.
	KYCToken common.Address

	ChainID            int64
	StartBlock         uint64
	BlockRange         uint64
	IndexPeriod        time.Duration
	ReconcilePeriod    time.Duration
	RequestTimeout     time.Duration
	ConfirmationDepth  uint64
	HeadDriftTolerance uint64
}

const defaultRequestTimeout = 10 * time.Second
const defaultBlockRange = 5000
const defaultConfirmationDepth = 12
const defaultHeadDriftTolerance = 10
const maxChainID int64 = math.MaxUint64/2 - 36

func (c *config) Network() Network {
	return c.networkOnce.Do(func() interface{} {
		var cfg struct {
			RPC                string         `fig:"rpc,required"`
			WsRPC              string         `fig:"ws_rpc"`
			Hub                common.Address `fig:"hub,required"`
			StakingToken       common.Address `fig:"staking_token,required"`
			AppRegistry        common.Address `fig:"app_registry,required"`
			DatasetRegistry    common.Address `fig:"dataset_registry,required"`
			WorkerpoolRegistry common.Address `fig:"workerpool_registry,required"`
			KYCToken           common.Address `fig:"kyc_token"`
			ChainID            int64          `fig:"chain_id,required"`
			StartBlock         uint64         `fig:"start_block"`
			BlockRange         uint64         `fig:"block_range"`
			IndexPeriod        time.Duration  `fig:"index_period,required"`
			ReconcilePeriod    time.Duration  `fig:"reconcile_period"`
			RequestTimeout     time.Duration  `fig:"request_timeout"`
			ConfirmationDepth  uint64         `fig:"confirmation_depth"`
			HeadDriftTolerance uint64         `fig:"head_drift_tolerance"`
		}

		err := figure.Out(&cfg).
			With(figure.EthereumHooks).
			From(kv.MustGetStringMap(c.getter, "network")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out network"))
		}

		if cfg.ChainID > maxChainID || cfg.ChainID <= 0 {
			panic("chain_id value out of range due to EIP 2294")
		}
		cli, err := ethclient.Dial(cfg.RPC)
		if err != nil {
			panic(errors.Wrap(err, "failed to connect to RPC provider"))
		}
		var ws *ethclient.Client
		if cfg.WsRPC != "" {
			ws, err = ethclient.Dial(cfg.WsRPC)
			if err != nil {
				panic(errors.Wrap(err, "failed to connect to ws RPC provider"))
			}
		}

		if cfg.RequestTimeout == 0 {
			cfg.RequestTimeout = defaultRequestTimeout
		}
		if cfg.BlockRange == 0 {
			cfg.BlockRange = defaultBlockRange
		}
		if cfg.ReconcilePeriod == 0 {
			cfg.ReconcilePeriod = 5 * cfg.IndexPeriod
		}
		if cfg.ConfirmationDepth == 0 {
			cfg.ConfirmationDepth = defaultConfirmationDepth
		}
		if cfg.HeadDriftTolerance == 0 {
			cfg.HeadDriftTolerance = defaultHeadDriftTolerance
		}

		return Network{
			EthClient:          cli,
			WsClient:           ws,
			Hub:                cfg.Hub,
			StakingToken:       cfg.StakingToken,
			AppRegistry:        cfg.AppRegistry,
			DatasetRegistry:    cfg.DatasetRegistry,
			WorkerpoolRegistry: cfg.WorkerpoolRegistry,
			KYCToken:           cfg.KYCToken,
			ChainID:            cfg.ChainID,
			StartBlock:         cfg.StartBlock,
			BlockRange:         cfg.BlockRange,
			IndexPeriod:        cfg.IndexPeriod,
			ReconcilePeriod:    cfg.ReconcilePeriod,
			RequestTimeout:     cfg.RequestTimeout,
			ConfirmationDepth:  cfg.ConfirmationDepth,
			HeadDriftTolerance: cfg.HeadDriftTolerance,
		}
	}).(Network)
}
