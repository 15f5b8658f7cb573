package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/pricefeed"
	"github.com/dbkchain/bridge-service/rollup"
)

type mockL1 struct {
	chainID        string
	portal         common.Address
	receipts       map[common.Hash]*types.Receipt
	status         entity.BridgeStatus
	statusErr      error
	depositTxHash  common.Hash
	depositErr     error
	depositAmounts []*big.Int
	depositGas     uint64
	proveParams    *rollup.ProveParams
	proveErr       error
	provenParams   []*rollup.ProveParams
	proveTxHash    common.Hash
	finalized      []*rollup.WithdrawalMessage
	finalizeTxHash common.Hash
	finalizeErr    error
}

func (m *mockL1) ChainID() string               { return m.chainID }
func (m *mockL1) PortalAddress() common.Address { return m.portal }

func (m *mockL1) TransactionReceiptByHash(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if receipt, ok := m.receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

func (m *mockL1) GetWithdrawalStatus(context.Context, *types.Receipt) (entity.BridgeStatus, error) {
	return m.status, m.statusErr
}

func (m *mockL1) DepositNative(_ context.Context, amount *big.Int) (common.Hash, error) {
	if m.depositErr != nil {
		return common.Hash{}, m.depositErr
	}
	m.depositAmounts = append(m.depositAmounts, amount)
	return m.depositTxHash, nil
}

func (m *mockL1) EstimateDepositGas(context.Context, *big.Int) (uint64, error) {
	return m.depositGas, nil
}

func (m *mockL1) WaitToProve(context.Context, *types.Receipt) (*rollup.ProveParams, error) {
	return m.proveParams, m.proveErr
}

func (m *mockL1) ProveWithdrawal(_ context.Context, params *rollup.ProveParams) (common.Hash, error) {
	m.provenParams = append(m.provenParams, params)
	return m.proveTxHash, nil
}

func (m *mockL1) FinalizeWithdrawal(_ context.Context, msg *rollup.WithdrawalMessage) (common.Hash, error) {
	if m.finalizeErr != nil {
		return common.Hash{}, m.finalizeErr
	}
	m.finalized = append(m.finalized, msg)
	return m.finalizeTxHash, nil
}

type mockL2 struct {
	chainID         string
	receipts        map[common.Hash]*types.Receipt
	withdrawTxHash  common.Hash
	withdrawErr     error
	withdrawAmounts []*big.Int
	withdrawGas     uint64
}

func (m *mockL2) ChainID() string { return m.chainID }

func (m *mockL2) TransactionReceiptByHash(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if receipt, ok := m.receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

func (m *mockL2) InitiateWithdrawal(_ context.Context, amount *big.Int) (common.Hash, error) {
	if m.withdrawErr != nil {
		return common.Hash{}, m.withdrawErr
	}
	m.withdrawAmounts = append(m.withdrawAmounts, amount)
	return m.withdrawTxHash, nil
}

func (m *mockL2) EstimateInitiateWithdrawalGas(context.Context, *big.Int) (uint64, error) {
	return m.withdrawGas, nil
}

type mockStore struct {
	records []*entity.BridgeRecord
	err     error
}

func (s *mockStore) Ensure(_ context.Context, record *entity.BridgeRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

type mockPrices struct {
	levels     map[string][]pricefeed.GasPriceLevel
	tokenPrice float64
}

func (p *mockPrices) GetGasPriceLevels(_ context.Context, chainID string) ([]pricefeed.GasPriceLevel, error) {
	return p.levels[chainID], nil
}

func (p *mockPrices) GetTokenPrice(context.Context, common.Address, string) (*pricefeed.TokenPrice, error) {
	return &pricefeed.TokenPrice{PriceUSD: p.tokenPrice}, nil
}
