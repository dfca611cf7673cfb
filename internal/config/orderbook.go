package config

import (
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Orderbook struct {
	MaxOpenOrdersPerWallet int64
	EventBuffer            int
	// Enterprise turns on the KYC gate: the whitelist service when one is
	// configured, the on-chain kyc_token otherwise.
	Enterprise bool
}

func (c *config) Orderbook() Orderbook {
	return c.orderbookOnce.Do(func() interface{} {
		var cfg struct {
			MaxOpenOrdersPerWallet int64 `fig:"max_open_orders_per_wallet"`
			EventBuffer            int   `fig:"event_buffer"`
			Enterprise             bool  `fig:"enterprise"`
		}

		raw, err := c.getter.GetStringMap("orderbook")
		if err != nil {
			panic(errors.Wrap(err, "failed to get orderbook config"))
		}
		if raw != nil {
			if err := figure.Out(&cfg).From(raw).Please(); err != nil {
				panic(errors.Wrap(err, "failed to figure out orderbook"))
			}
		}

		return Orderbook{
			MaxOpenOrdersPerWallet: cfg.MaxOpenOrdersPerWallet,
			EventBuffer:            cfg.EventBuffer,
			Enterprise:             cfg.Enterprise,
		}
	}).(Orderbook)
}
