package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gridmarket/orderbook-svc/internal/config"
	"github.com/gridmarket/orderbook-svc/internal/data/postgres"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"github.com/gridmarket/orderbook-svc/internal/poco"
	"github.com/gridmarket/orderbook-svc/internal/service/watcher"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/logan/v3"
)

type service struct {
	log      *logan.Entry
	cfg      config.Config
	book     *orderbook.Book
	notifier *orderbook.ChannelNotifier
	watcher  *watcher.Watcher
	chainID  int64
}

func newService(cfg config.Config) *service {
	log := cfg.Log()
	net := cfg.Network()
	ob := cfg.Orderbook()
	db := cfg.DB()

	var kycToken *common.Address
	if net.KYCToken != (common.Address{}) {
		kycToken = &net.KYCToken
	}
	chain := poco.NewClient(poco.ClientOpts{
		Eth:                net.EthClient,
		Hub:                net.Hub,
		AppRegistry:        net.AppRegistry,
		DatasetRegistry:    net.DatasetRegistry,
		WorkerpoolRegistry: net.WorkerpoolRegistry,
		KYCToken:           kycToken,
		RequestTimeout:     net.RequestTimeout,
	})

	var wl orderbook.Whitelist
	if ob.Enterprise {
		if directory := cfg.Whitelist(); directory != nil {
			wl = directory
		} else if kycToken != nil {
			wl = chain
		} else {
			panic("enterprise mode requires a whitelist endpoint or a kyc_token")
		}
	}

	notifier := orderbook.NewChannelNotifier(log, ob.EventBuffer)
	notifier.Subscribe(func(evt orderbook.Event) {
		log.WithField("event", evt.Name).Debug("orderbook event")
	})

	book := orderbook.New(orderbook.Opts{
		Log:                    log,
		ChainID:                net.ChainID,
		Orders:                 postgres.NewOrders(db, net.ChainID),
		Deals:                  postgres.NewDeals(db, net.ChainID),
		Categories:             postgres.NewCategories(db, net.ChainID),
		Chain:                  chain,
		Hasher:                 poco.NewHasher(net.ChainID, net.Hub),
		Whitelist:              wl,
		Notifier:               notifier,
		MaxOpenOrdersPerWallet: ob.MaxOpenOrdersPerWallet,
	})

	return &service{
		log:      log,
		cfg:      cfg,
		book:     book,
		notifier: notifier,
		chainID:  net.ChainID,
		watcher: watcher.New(watcher.Opts{
			Log:      log,
			Book:     book,
			Counters: postgres.NewCounters(db, net.ChainID),
			Chain:    chain,
			Network:  net,
		}),
	}
}

func (s *service) run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.log.Info("service started")

	go s.notifier.Run(ctx)
	go s.watcher.Run(ctx)

	// The backoff runners keep their workers alive through panics, so
	// unrecoverable watcher conditions arrive here and take the whole
	// process down instead of spinning desynchronized.
	var fatal error
	go func() {
		select {
		case fatal = <-s.watcher.Fatal():
			s.log.WithError(fatal).Error("watcher is in an unrecoverable state, shutting down")
			stop()
		case <-ctx.Done():
		}
	}()

	ape.Serve(ctx, s.router(), s.cfg, ape.ServeOpts{})
	return fatal
}

func Run(cfg config.Config) {
	if err := newService(cfg).run(); err != nil {
		panic(err)
	}
}
