package rollup

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/dbkchain/bridge-service/config"
	"github.com/dbkchain/bridge-service/contract"
	bridgeabi "github.com/dbkchain/bridge-service/contract/abi"
	"github.com/dbkchain/bridge-service/ethclient"
	"github.com/dbkchain/bridge-service/logging"
)

// L2Client wraps the rollup-chain side of the bridge, the message passer
// predeploy that withdrawals are initiated through.
type L2Client struct {
	logger           logging.Logger
	client           ethclient.Client
	sender           *TxSender
	messagePasser    *contract.Contract
	withdrawGasLimit uint64
}

func NewL2Client(logger logging.Logger, client ethclient.Client, sender *TxSender, cfg *config.BridgeConfig) *L2Client {
	return &L2Client{
		logger:           logger,
		client:           client,
		sender:           sender,
		messagePasser:    contract.NewContract(client, L2ToL1MessagePasserAddr, bridgeabi.L2ToL1MessagePasser),
		withdrawGasLimit: cfg.WithdrawGasLimit,
	}
}

func (c *L2Client) ChainID() string {
	return c.client.ChainID()
}

func (c *L2Client) TransactionReceiptByHash(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.client.TransactionReceiptByHash(ctx, hash)
}

func (c *L2Client) initiateCalldata() ([]byte, error) {
	return c.messagePasser.Pack("initiateWithdrawal",
		c.sender.From(), new(big.Int).SetUint64(c.withdrawGasLimit), []byte{})
}

// InitiateWithdrawal starts a withdrawal of the given wei amount back to the
// caller's own address, with the configured fixed L1 message gas limit.
func (c *L2Client) InitiateWithdrawal(ctx context.Context, amount *big.Int) (common.Hash, error) {
	if c.sender == nil {
		return common.Hash{}, ErrNoSigner
	}
	data, err := c.initiateCalldata()
	if err != nil {
		return common.Hash{}, err
	}
	return c.sender.Send(ctx, L2ToL1MessagePasserAddr, amount, data, 0)
}

func (c *L2Client) EstimateInitiateWithdrawalGas(ctx context.Context, amount *big.Int) (uint64, error) {
	if c.sender == nil {
		return 0, ErrNoSigner
	}
	data, err := c.initiateCalldata()
	if err != nil {
		return 0, err
	}
	to := L2ToL1MessagePasserAddr
	return c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.sender.From(),
		To:    &to,
		Value: amount,
		Data:  data,
	})
}
