package config

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gridmarket/orderbook-svc/internal/whitelist"
	"gitlab.com/distributed_lab/figure/v3"
	jsonapi "gitlab.com/distributed_lab/json-api-connector"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/tokend/connectors/signed"
)

// Whitelist is the off-chain KYC directory client; nil when no endpoint is
// configured (enterprise mode then falls back to the on-chain token).
type Whitelist = *whitelist.Client

func (c *config) Whitelist() Whitelist {
	return c.whitelistOnce.Do(func() interface{} {
		raw, err := c.getter.GetStringMap("whitelist")
		if err != nil {
			panic(errors.Wrap(err, "failed to get whitelist config"))
		}
		if len(raw) == 0 {
			return (*whitelist.Client)(nil)
		}

		var cfg struct {
			Endpoint       *url.URL      `fig:"endpoint,required"`
			RequestTimeout time.Duration `fig:"request_timeout"`
		}
		err = figure.Out(&cfg).
			From(raw).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out whitelist"))
		}

		if cfg.RequestTimeout == 0 {
			cfg.RequestTimeout = defaultRequestTimeout
		}

		connector := jsonapi.NewConnector(signed.NewClient(&http.Client{Timeout: cfg.RequestTimeout}, cfg.Endpoint))
		return whitelist.NewClient(connector)
	}).(Whitelist)
}
