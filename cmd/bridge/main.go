package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sort"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dbkchain/bridge-service/bridge"
	"github.com/dbkchain/bridge-service/config"
	"github.com/dbkchain/bridge-service/db"
	"github.com/dbkchain/bridge-service/ethclient"
	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/monitor"
	"github.com/dbkchain/bridge-service/presenter"
	"github.com/dbkchain/bridge-service/pricefeed"
	"github.com/dbkchain/bridge-service/repository"
	"github.com/dbkchain/bridge-service/rollup"
)

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yml"
}

type bridgeServices struct {
	cfg       *config.BridgeConfig
	resolver  *bridge.StatusResolver
	executor  *bridge.ActionExecutor
	estimator *bridge.GasFeeEstimator
	monitor   *monitor.Monitor
}

func newBridgeServices(logger logging.Logger, cfg *config.Config, bridgeCfg *config.BridgeConfig, repo *repository.Repo, prices *pricefeed.Client) (*bridgeServices, error) {
	l1Rpc, err := ethclient.NewClient(bridgeCfg.L1.Chain.RPC.Host, bridgeCfg.L1.Chain.RPC.Timeout, bridgeCfg.L1.Chain.ChainID)
	if err != nil {
		return nil, err
	}
	l2Rpc, err := ethclient.NewClient(bridgeCfg.L2.Chain.RPC.Host, bridgeCfg.L2.Chain.RPC.Timeout, bridgeCfg.L2.Chain.ChainID)
	if err != nil {
		return nil, err
	}
	var l1Sender, l2Sender *rollup.TxSender
	if bridgeCfg.TxSignerKey != "" {
		if l1Sender, err = rollup.NewTxSender(l1Rpc, bridgeCfg.TxSignerKey); err != nil {
			return nil, err
		}
		if l2Sender, err = rollup.NewTxSender(l2Rpc, bridgeCfg.TxSignerKey); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("no tx signer key configured, running in read-only mode")
	}
	l1 := rollup.NewL1Client(logger.WithField("chain", bridgeCfg.L1.ChainName), l1Rpc, l2Rpc, l1Sender, bridgeCfg)
	l2 := rollup.NewL2Client(logger.WithField("chain", bridgeCfg.L2.ChainName), l2Rpc, l2Sender, bridgeCfg)

	resolver := bridge.NewStatusResolver(logger, l1, l2)
	return &bridgeServices{
		cfg:       bridgeCfg,
		resolver:  resolver,
		executor:  bridge.NewActionExecutor(logger, resolver, repo.BridgeRecords, l1, l2),
		estimator: bridge.NewGasFeeEstimator(logger, prices, l1, l2, cfg.PriceFeed.NativeToken()),
		monitor:   monitor.NewMonitor(logger, cfg.Monitor, bridgeCfg.ID, repo.BridgeRecords, resolver),
	}, nil
}

func main() {
	_ = godotenv.Load()

	logger := logging.New()
	cfg, err := config.ReadConfigFromFile(configPath())
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	if level, err2 := logrus.ParseLevel(cfg.LogLevel); err2 == nil {
		logger.SetLevel(level)
	}

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err2 := http.ListenAndServe(":2112", nil); err2 != nil {
			logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)
	prices := pricefeed.NewClient(cfg.PriceFeed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridgeIDs := make([]string, 0, len(cfg.Bridges))
	for id := range cfg.Bridges {
		bridgeIDs = append(bridgeIDs, id)
	}
	sort.Strings(bridgeIDs)

	for i, id := range bridgeIDs {
		bridgeLogger := logger.WithField("bridge_id", id)
		services, err2 := newBridgeServices(bridgeLogger, cfg, cfg.Bridges[id], repo, prices)
		if err2 != nil {
			bridgeLogger.WithError(err2).Fatal("can't initialize bridge services")
		}
		go services.monitor.Start(ctx)

		// the presenter binds a single address, it serves the first bridge
		if cfg.Presenter != nil && i == 0 {
			if len(bridgeIDs) > 1 {
				bridgeLogger.Warn("multiple bridges configured, the http api serves only this one")
			}
			pr := presenter.NewPresenter(bridgeLogger.WithField("service", "presenter"), repo,
				services.cfg, services.resolver, services.executor, services.estimator, services.monitor)
			go func() {
				if err3 := pr.Serve(cfg.Presenter.Host); err3 != nil {
					logger.WithError(err3).Fatal("can't serve presenter")
				}
			}()
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	cancel()
	logger.Warn("caught CTRL-C, gracefully terminating")
}
