package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/pricefeed"
	"github.com/dbkchain/bridge-service/rollup"
)

// ProveGasUnits is the typical gas a proveWithdrawalTransaction takes. The
// prove step cannot be estimated before the output root exists, so the fee
// display uses this value.
const ProveGasUnits = 206529

// PriceSource is the backend price API surface the estimator needs.
type PriceSource interface {
	GetGasPriceLevels(ctx context.Context, chainID string) ([]pricefeed.GasPriceLevel, error)
	GetTokenPrice(ctx context.Context, token common.Address, chainID string) (*pricefeed.TokenPrice, error)
}

type L1GasEstimator interface {
	ChainID() string
	EstimateDepositGas(ctx context.Context, amount *big.Int) (uint64, error)
}

type L2GasEstimator interface {
	ChainID() string
	EstimateInitiateWithdrawalGas(ctx context.Context, amount *big.Int) (uint64, error)
}

// GasFeeEstimate holds advisory USD fees for each bridge step. Recomputed on
// demand, never persisted, no correctness guarantee beyond best effort.
type GasFeeEstimate struct {
	DepositGasFee          float64 `json:"depositGasFee"`
	WithdrawGasFee         float64 `json:"withdrawGasFee1"`
	WithdrawProveGasFee    float64 `json:"withdrawProveGasFee"`
	WithdrawFinalizeGasFee float64 `json:"withdrawFinalizeGasFee"`
}

type GasFeeEstimator struct {
	logger      logging.Logger
	prices      PriceSource
	l1          L1GasEstimator
	l2          L2GasEstimator
	nativeToken common.Address
}

func NewGasFeeEstimator(logger logging.Logger, prices PriceSource, l1 L1GasEstimator, l2 L2GasEstimator, nativeToken common.Address) *GasFeeEstimator {
	return &GasFeeEstimator{
		logger:      logger,
		prices:      prices,
		l1:          l1,
		l2:          l2,
		nativeToken: nativeToken,
	}
}

// GasFeeUSD converts a gas amount into USD, gasPrice in wei.
func GasFeeUSD(gasPrice float64, gasUnits uint64, nativeTokenPrice float64) float64 {
	return gasPrice * float64(gasUnits) * nativeTokenPrice / 1e18
}

// Estimate computes the advisory fee for every step of bridging the given
// amount. Deposit and withdrawal initiation use live gas estimation, prove
// and finalize use their fixed gas values.
func (e *GasFeeEstimator) Estimate(ctx context.Context, amount string) (*GasFeeEstimate, error) {
	wei, err := ParseNativeAmount(amount)
	if err != nil {
		return nil, err
	}
	l1GasPrice, err := e.gasPrice(ctx, e.l1.ChainID())
	if err != nil {
		return nil, err
	}
	l2GasPrice, err := e.gasPrice(ctx, e.l2.ChainID())
	if err != nil {
		return nil, err
	}
	tokenPrice, err := e.prices.GetTokenPrice(ctx, e.nativeToken, e.l1.ChainID())
	if err != nil {
		return nil, fmt.Errorf("can't fetch native token price: %w", err)
	}
	depositGas, err := e.l1.EstimateDepositGas(ctx, wei)
	if err != nil {
		return nil, fmt.Errorf("can't estimate deposit gas: %w", err)
	}
	withdrawGas, err := e.l2.EstimateInitiateWithdrawalGas(ctx, wei)
	if err != nil {
		return nil, fmt.Errorf("can't estimate withdrawal gas: %w", err)
	}
	return &GasFeeEstimate{
		DepositGasFee:          GasFeeUSD(l1GasPrice, depositGas, tokenPrice.PriceUSD),
		WithdrawGasFee:         GasFeeUSD(l2GasPrice, withdrawGas, tokenPrice.PriceUSD),
		WithdrawProveGasFee:    GasFeeUSD(l1GasPrice, ProveGasUnits, tokenPrice.PriceUSD),
		WithdrawFinalizeGasFee: GasFeeUSD(l1GasPrice, rollup.FinalizeGasLimit, tokenPrice.PriceUSD),
	}, nil
}

func (e *GasFeeEstimator) gasPrice(ctx context.Context, chainID string) (float64, error) {
	levels, err := e.prices.GetGasPriceLevels(ctx, chainID)
	if err != nil {
		return 0, fmt.Errorf("can't fetch gas price for chain %s: %w", chainID, err)
	}
	for _, level := range levels {
		if level.Level == pricefeed.GasLevelNormal {
			return level.Price, nil
		}
	}
	if len(levels) > 0 {
		return levels[0].Price, nil
	}
	return 0, fmt.Errorf("price feed returned no gas levels for chain %s", chainID)
}
