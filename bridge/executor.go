package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/rollup"
)

// HistoryStore persists bridge records for submitted transactions.
type HistoryStore interface {
	Ensure(ctx context.Context, record *entity.BridgeRecord) error
}

// L1Bridger extends L1Reader with the settlement-chain write operations.
type L1Bridger interface {
	L1Reader
	ChainID() string
	DepositNative(ctx context.Context, amount *big.Int) (common.Hash, error)
	WaitToProve(ctx context.Context, l2Receipt *types.Receipt) (*rollup.ProveParams, error)
	ProveWithdrawal(ctx context.Context, params *rollup.ProveParams) (common.Hash, error)
	FinalizeWithdrawal(ctx context.Context, msg *rollup.WithdrawalMessage) (common.Hash, error)
}

// L2Bridger extends L2Reader with the rollup-chain write operations.
type L2Bridger interface {
	L2Reader
	ChainID() string
	InitiateWithdrawal(ctx context.Context, amount *big.Int) (common.Hash, error)
}

// ActionExecutor submits bridge transactions and records the resulting
// history entries. Prove and finalize are gated on the current status of the
// withdrawal, a premature call fails with ErrNotReady before anything is
// sent on-chain.
type ActionExecutor struct {
	logger   logging.Logger
	resolver *StatusResolver
	store    HistoryStore
	l1       L1Bridger
	l2       L2Bridger
}

func NewActionExecutor(logger logging.Logger, resolver *StatusResolver, store HistoryStore, l1 L1Bridger, l2 L2Bridger) *ActionExecutor {
	return &ActionExecutor{
		logger:   logger,
		resolver: resolver,
		store:    store,
		l1:       l1,
		l2:       l2,
	}
}

// InitiateDeposit sends the native deposit transaction on L1 and persists a
// deposit record for it. No record is written when the submission fails.
func (e *ActionExecutor) InitiateDeposit(ctx context.Context, user common.Address, amount string) (*entity.BridgeRecord, error) {
	wei, err := ParseNativeAmount(amount)
	if err != nil {
		return nil, err
	}
	txHash, err := e.l1.DepositNative(ctx, wei)
	if err != nil {
		return nil, fmt.Errorf("can't submit deposit transaction: %w", err)
	}
	record := &entity.BridgeRecord{
		UserAddress: user,
		FromChainID: e.l1.ChainID(),
		ToChainID:   e.l2.ChainID(),
		TxHash:      txHash,
		IsDeposit:   true,
		Amount:      amount,
	}
	if err = e.store.Ensure(ctx, record); err != nil {
		return nil, fmt.Errorf("deposit %s submitted but record was not persisted: %w", txHash, err)
	}
	e.logger.WithFields(logrus.Fields{
		"user":    user,
		"amount":  amount,
		"tx_hash": txHash,
	}).Info("initiated native deposit")
	return record, nil
}

// InitiateWithdrawal sends the withdrawal transaction to the message passer
// on L2 and persists a withdrawal record for it.
func (e *ActionExecutor) InitiateWithdrawal(ctx context.Context, user common.Address, amount string) (*entity.BridgeRecord, error) {
	wei, err := ParseNativeAmount(amount)
	if err != nil {
		return nil, err
	}
	txHash, err := e.l2.InitiateWithdrawal(ctx, wei)
	if err != nil {
		return nil, fmt.Errorf("can't submit withdrawal transaction: %w", err)
	}
	record := &entity.BridgeRecord{
		UserAddress: user,
		FromChainID: e.l2.ChainID(),
		ToChainID:   e.l1.ChainID(),
		TxHash:      txHash,
		IsDeposit:   false,
		Amount:      amount,
	}
	if err = e.store.Ensure(ctx, record); err != nil {
		return nil, fmt.Errorf("withdrawal %s submitted but record was not persisted: %w", txHash, err)
	}
	e.logger.WithFields(logrus.Fields{
		"user":    user,
		"amount":  amount,
		"tx_hash": txHash,
	}).Info("initiated native withdrawal")
	return record, nil
}

// ProveWithdrawal builds the storage proof for a withdrawal and submits the
// prove transaction on L1. The withdrawal must currently be ready-to-prove.
func (e *ActionExecutor) ProveWithdrawal(ctx context.Context, record *entity.BridgeRecord) (common.Hash, error) {
	l2Receipt, err := e.requireStatus(ctx, record, entity.StatusReadyToProve)
	if err != nil {
		return common.Hash{}, err
	}
	params, err := e.l1.WaitToProve(ctx, l2Receipt)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't build withdrawal proof: %w", err)
	}
	txHash, err := e.l1.ProveWithdrawal(ctx, params)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't submit prove transaction: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"withdrawal_tx_hash": record.TxHash,
		"tx_hash":            txHash,
	}).Info("proved withdrawal")
	return txHash, nil
}

// FinalizeWithdrawal submits the finalize transaction on L1. The withdrawal
// must currently be ready-to-finalize.
func (e *ActionExecutor) FinalizeWithdrawal(ctx context.Context, record *entity.BridgeRecord) (common.Hash, error) {
	l2Receipt, err := e.requireStatus(ctx, record, entity.StatusReadyToFinalize)
	if err != nil {
		return common.Hash{}, err
	}
	msg, err := rollup.ExtractWithdrawalMessage(l2Receipt)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't extract withdrawal message: %w", err)
	}
	txHash, err := e.l1.FinalizeWithdrawal(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't submit finalize transaction: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"withdrawal_tx_hash": record.TxHash,
		"tx_hash":            txHash,
	}).Info("finalized withdrawal")
	return txHash, nil
}

func (e *ActionExecutor) requireStatus(ctx context.Context, record *entity.BridgeRecord, want entity.BridgeStatus) (*types.Receipt, error) {
	if record.IsDeposit {
		return nil, fmt.Errorf("%w: record %s is a deposit", ErrNotReady, record.TxHash)
	}
	status, err := e.resolver.ResolveStatus(ctx, record)
	if err != nil {
		return nil, err
	}
	if status != want {
		return nil, fmt.Errorf("%w: withdrawal %s is %s, want %s", ErrNotReady, record.TxHash, status, want)
	}
	return e.l2.TransactionReceiptByHash(ctx, record.TxHash)
}
