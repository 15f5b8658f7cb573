package rollup

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/stretchr/testify/require"

	"github.com/dbkchain/bridge-service/config"
)

type mockClient struct {
	chainID       string
	blockNum      uint64
	header        *types.Header
	receipts      map[common.Hash]*types.Receipt
	responses     map[string][]byte
	gasPrice      *big.Int
	nonce         uint64
	estimateGas   uint64
	estimateCalls int
	sent          []*types.Transaction
	proof         *gethclient.AccountResult
}

func (c *mockClient) ChainID() string { return c.chainID }

func (c *mockClient) BlockNumber(context.Context) (uint64, error) { return c.blockNum, nil }

func (c *mockClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return c.header, nil
}

func (c *mockClient) TransactionReceiptByHash(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if receipt, ok := c.receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

func (c *mockClient) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	if res, ok := c.responses[string(msg.Data[:4])]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("unexpected eth_call with selector %x", msg.Data[:4])
}

func (c *mockClient) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	c.estimateCalls++
	return c.estimateGas, nil
}

func (c *mockClient) SuggestGasPrice(context.Context) (*big.Int, error) { return c.gasPrice, nil }

func (c *mockClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return c.nonce, nil
}

func (c *mockClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.sent = append(c.sent, tx)
	return nil
}

func (c *mockClient) GetProof(context.Context, common.Address, []string, *big.Int) (*gethclient.AccountResult, error) {
	return c.proof, nil
}

// respond registers packed return data for a contract method.
func (c *mockClient) respond(t *testing.T, contractABI abi.ABI, name string, outputs ...interface{}) {
	t.Helper()
	method, ok := contractABI.Methods[name]
	require.True(t, ok, name)
	data, err := method.Outputs.Pack(outputs...)
	require.NoError(t, err)
	if c.responses == nil {
		c.responses = make(map[string][]byte)
	}
	c.responses[string(method.ID)] = data
}

func testBridgeConfig() *config.BridgeConfig {
	return &config.BridgeConfig{
		PortalAddress:       "0x63CA00232F471bE2A3Bf3C4e95Bc1d2B3EA5DB92",
		OutputOracleAddress: "0x0341bb689CF5a6c8d2e751B19f8b38a210bD8258",
		DepositGasLimit:     100000,
		WithdrawGasLimit:    100000,
	}
}

// well-known development key, never holds real funds
const testSignerKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

var testSignerAddr = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
