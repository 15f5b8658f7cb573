package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dbkchain/bridge-service/db"
	"github.com/dbkchain/bridge-service/entity"
)

type bridgeRecordsRepo struct {
	table string
	db    *db.DB
}

func NewBridgeRecordsRepo(table string, db *db.DB) entity.BridgeRecordsRepo {
	return &bridgeRecordsRepo{table: table, db: db}
}

func (r *bridgeRecordsRepo) Ensure(ctx context.Context, record *entity.BridgeRecord) error {
	q, args, err := sq.Insert(r.table).
		Columns("user_address", "from_chain_id", "to_chain_id", "tx_hash", "is_deposit", "amount").
		Values(record.UserAddress, record.FromChainID, record.ToChainID, record.TxHash, record.IsDeposit, record.Amount).
		Suffix("ON CONFLICT (from_chain_id, tx_hash) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert bridge record: %w", err)
	}
	return nil
}

func (r *bridgeRecordsRepo) GetByTxHash(ctx context.Context, fromChainID string, txHash common.Hash) (*entity.BridgeRecord, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"from_chain_id": fromChainID, "tx_hash": txHash}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	record := new(entity.BridgeRecord)
	err = r.db.GetContext(ctx, record, q, args...)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("can't get bridge record: %w", err)
	}
	return record, nil
}

func (r *bridgeRecordsRepo) FindByUserAddress(ctx context.Context, user common.Address, limit, offset uint) ([]*entity.BridgeRecord, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"user_address": user}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	var records []*entity.BridgeRecord
	err = r.db.SelectContext(ctx, &records, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select bridge records: %w", err)
	}
	return records, nil
}

func (r *bridgeRecordsRepo) FindAll(ctx context.Context, limit, offset uint) ([]*entity.BridgeRecord, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	var records []*entity.BridgeRecord
	err = r.db.SelectContext(ctx, &records, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select bridge records: %w", err)
	}
	return records, nil
}
