package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/rollup"
)

// L1Reader is the settlement-chain surface the resolver needs, read-only.
type L1Reader interface {
	TransactionReceiptByHash(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	GetWithdrawalStatus(ctx context.Context, l2Receipt *types.Receipt) (entity.BridgeStatus, error)
	PortalAddress() common.Address
}

// L2Reader is the rollup-chain surface the resolver needs, read-only.
type L2Reader interface {
	TransactionReceiptByHash(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// StatusResolver derives the lifecycle status of bridge records from live
// chain state. It never mutates anything.
type StatusResolver struct {
	logger logging.Logger
	l1     L1Reader
	l2     L2Reader
}

func NewStatusResolver(logger logging.Logger, l1 L1Reader, l2 L2Reader) *StatusResolver {
	return &StatusResolver{
		logger: logger,
		l1:     l1,
		l2:     l2,
	}
}

// ResolveStatus maps one record to its current lifecycle status. A missing
// receipt on the source chain degrades to StatusDepositPending for deposits
// and to ErrStatusUnknown for withdrawals, it is not a failure.
func (r *StatusResolver) ResolveStatus(ctx context.Context, record *entity.BridgeRecord) (entity.BridgeStatus, error) {
	if record.IsDeposit {
		return r.resolveDeposit(ctx, record)
	}
	return r.resolveWithdrawal(ctx, record)
}

func (r *StatusResolver) resolveDeposit(ctx context.Context, record *entity.BridgeRecord) (entity.BridgeStatus, error) {
	l1Receipt, err := r.l1.TransactionReceiptByHash(ctx, record.TxHash)
	if errors.Is(err, ethereum.NotFound) {
		return entity.StatusDepositPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("can't fetch deposit receipt: %w", err)
	}
	hashes, err := rollup.DerivedDepositHashes(r.l1.PortalAddress(), l1Receipt)
	if err != nil {
		return "", fmt.Errorf("can't derive deposit hashes: %w", err)
	}
	for _, hash := range hashes {
		_, err = r.l2.TransactionReceiptByHash(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return entity.StatusDepositPending, nil
		}
		if err != nil {
			return "", fmt.Errorf("can't fetch derived deposit receipt: %w", err)
		}
	}
	return entity.StatusFinalized, nil
}

func (r *StatusResolver) resolveWithdrawal(ctx context.Context, record *entity.BridgeRecord) (entity.BridgeStatus, error) {
	l2Receipt, err := r.l2.TransactionReceiptByHash(ctx, record.TxHash)
	if errors.Is(err, ethereum.NotFound) {
		return "", ErrStatusUnknown
	}
	if err != nil {
		return "", fmt.Errorf("can't fetch withdrawal receipt: %w", err)
	}
	status, err := r.l1.GetWithdrawalStatus(ctx, l2Receipt)
	if err != nil {
		return "", fmt.Errorf("can't query withdrawal status: %w", err)
	}
	return status, nil
}

// RecordKey identifies a record within a batch result.
type RecordKey struct {
	FromChainID string
	TxHash      common.Hash
}

func Key(record *entity.BridgeRecord) RecordKey {
	return RecordKey{FromChainID: record.FromChainID, TxHash: record.TxHash}
}

// ResolvedRecord pairs a record with its status for this poll. An empty
// status means the poll produced no information for the record.
type ResolvedRecord struct {
	Record *entity.BridgeRecord
	Status entity.BridgeStatus
}

type BatchResult struct {
	Items map[RecordKey]*ResolvedRecord
	// PendingCount counts records not yet known to be finalized, including
	// records whose status could not be determined this poll.
	PendingCount int
}

// resolveConcurrency caps the number of in-flight rpc lookups per batch.
const resolveConcurrency = 16

// ResolveBatch resolves every record independently, at most
// resolveConcurrency records at a time. A failing record is logged and
// reported with an empty status, it never affects the other records.
func (r *StatusResolver) ResolveBatch(ctx context.Context, records []*entity.BridgeRecord) *BatchResult {
	items := make(map[RecordKey]*ResolvedRecord, len(records))
	sem := make(chan struct{}, resolveConcurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, record := range records {
		record := record
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			status, err := r.ResolveStatus(ctx, record)
			if err != nil && !errors.Is(err, ErrStatusUnknown) {
				r.logger.WithError(err).WithFields(logrus.Fields{
					"from_chain_id": record.FromChainID,
					"tx_hash":       record.TxHash,
				}).Warn("can't resolve bridge record status")
			}
			mu.Lock()
			items[Key(record)] = &ResolvedRecord{Record: record, Status: status}
			mu.Unlock()
		}()
	}
	wg.Wait()

	pending := 0
	for _, item := range items {
		if !item.Status.IsTerminal() {
			pending++
		}
	}
	return &BatchResult{Items: items, PendingCount: pending}
}
