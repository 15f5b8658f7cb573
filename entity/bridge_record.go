package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BridgeRecord is one user-initiated bridge leg. It is written exactly once,
// when the initiating transaction hash is known, and never updated. The
// lifecycle status is not part of the record, it is derived from chain state
// on every read.
type BridgeRecord struct {
	ID          uint           `db:"id"`
	UserAddress common.Address `db:"user_address"`
	FromChainID string         `db:"from_chain_id"`
	ToChainID   string         `db:"to_chain_id"`
	TxHash      common.Hash    `db:"tx_hash"`
	IsDeposit   bool           `db:"is_deposit"`
	Amount      string         `db:"amount"`
	CreatedAt   *time.Time     `db:"created_at"`
}

type BridgeRecordsRepo interface {
	Ensure(ctx context.Context, record *BridgeRecord) error
	GetByTxHash(ctx context.Context, fromChainID string, txHash common.Hash) (*BridgeRecord, error)
	FindByUserAddress(ctx context.Context, user common.Address, limit, offset uint) ([]*BridgeRecord, error)
	FindAll(ctx context.Context, limit, offset uint) ([]*BridgeRecord, error)
}
