package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dbkchain/bridge-service/bridge"
	"github.com/dbkchain/bridge-service/config"
	"github.com/dbkchain/bridge-service/db"
	"github.com/dbkchain/bridge-service/ethclient"
	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/repository"
	"github.com/dbkchain/bridge-service/rollup"
)

var (
	bridgeID    = flag.String("bridgeId", "", "bridge to resolve the status in")
	fromChainID = flag.String("fromChainId", "", "chain the transaction was sent on")
	txHash      = flag.String("txHash", "", "hash of the initiating transaction")
	configPath  = flag.String("config", "config.yml", "path to the service config")
)

// resolve-status looks up one recorded bridge leg and prints its current
// lifecycle status, read directly from both chains.
func main() {
	flag.Parse()
	_ = godotenv.Load()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	if *bridgeID == "" {
		logger.Fatal("bridgeId is not specified")
	}
	bridgeCfg, ok := cfg.Bridges[*bridgeID]
	if !ok {
		logger.WithField("bridge_id", *bridgeID).Fatal("bridge config for given bridgeId is not found")
	}
	if *fromChainID == "" || *txHash == "" {
		logger.Fatal("both fromChainId and txHash should be specified")
	}

	dbConn, err := db.NewDB(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database")
	}
	defer dbConn.Close()
	repo := repository.NewRepo(dbConn)

	ctx := context.Background()
	record, err := repo.BridgeRecords.GetByTxHash(ctx, *fromChainID, common.HexToHash(*txHash))
	if err != nil {
		logger.WithError(err).Fatal("can't find bridge record")
	}

	l1Rpc, err := ethclient.NewClient(bridgeCfg.L1.Chain.RPC.Host, bridgeCfg.L1.Chain.RPC.Timeout, bridgeCfg.L1.Chain.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial l1 rpc client")
	}
	l2Rpc, err := ethclient.NewClient(bridgeCfg.L2.Chain.RPC.Host, bridgeCfg.L2.Chain.RPC.Timeout, bridgeCfg.L2.Chain.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial l2 rpc client")
	}
	l1 := rollup.NewL1Client(logger.WithField("chain", bridgeCfg.L1.ChainName), l1Rpc, l2Rpc, nil, bridgeCfg)
	l2 := rollup.NewL2Client(logger.WithField("chain", bridgeCfg.L2.ChainName), l2Rpc, nil, bridgeCfg)

	resolver := bridge.NewStatusResolver(logger, l1, l2)
	status, err := resolver.ResolveStatus(ctx, record)
	if err != nil {
		logger.WithError(err).Fatal("can't resolve bridge record status")
	}
	logger.WithFields(logrus.Fields{
		"tx_hash":       record.TxHash,
		"from_chain_id": record.FromChainID,
		"is_deposit":    record.IsDeposit,
	}).Info("resolved bridge record status")
	fmt.Println(status)
}
