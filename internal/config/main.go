package config

import (
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Config interface {
	comfig.Logger
	pgdb.Databaser
	comfig.Listenerer

	Network() Network
	Orderbook() Orderbook
	Whitelist() Whitelist
	DatabaseURL() string
}

type config struct {
	comfig.Logger
	pgdb.Databaser
	comfig.Listenerer
	getter kv.Getter

	networkOnce   comfig.Once
	orderbookOnce comfig.Once
	whitelistOnce comfig.Once
}

func New(getter kv.Getter) Config {
	return &config{
		getter:     getter,
		Databaser:  pgdb.NewDatabaser(getter),
		Listenerer: comfig.NewListenerer(getter),
		Logger:     comfig.NewLogger(getter, comfig.LoggerOpts{}),
	}
}

func (c *config) DatabaseURL() string {
	var cfg struct {
		URL string `fig:"url,required"`
	}
	err := figure.Out(&cfg).
		From(kv.MustGetStringMap(c.getter, "db")).
		Please()
	if err != nil {
		panic(errors.Wrap(err, "failed to figure out db"))
	}
	return cfg.URL
}
