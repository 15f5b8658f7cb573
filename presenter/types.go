package presenter

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dbkchain/bridge-service/entity"
)

type CreateRecordRequest struct {
	UserAddress string `json:"userAddress" validate:"required,eth_addr"`
	FromChainID string `json:"fromChainId" validate:"required,number"`
	ToChainID   string `json:"toChainId" validate:"required,number"`
	TxHash      string `json:"txHash" validate:"required,len=66,startswith=0x"`
	IsDeposit   *bool  `json:"isDeposit" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
}

type InitiateRequest struct {
	UserAddress string `json:"userAddress" validate:"required,eth_addr"`
	Amount      string `json:"amount" validate:"required"`
}

type RecordResult struct {
	UserAddress common.Address      `json:"userAddress"`
	FromChainID string              `json:"fromChainId"`
	ToChainID   string              `json:"toChainId"`
	TxHash      common.Hash         `json:"txHash"`
	IsDeposit   bool                `json:"isDeposit"`
	Amount      string              `json:"amount"`
	Status      entity.BridgeStatus `json:"status,omitempty"`
	CreatedAt   *time.Time          `json:"createdAt,omitempty"`
}

type HistoryResult struct {
	Records      []*RecordResult `json:"records"`
	PendingCount int             `json:"pendingCount"`
}

type StatusResult struct {
	TxHash common.Hash         `json:"txHash"`
	Status entity.BridgeStatus `json:"status"`
}

type TxResult struct {
	TxHash common.Hash `json:"txHash"`
}
