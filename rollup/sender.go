package rollup

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dbkchain/bridge-service/ethclient"
)

// TxSender signs and submits transactions on a single chain with a locally
// held key. The nonce is read from the pending pool on every submission, the
// service does at most one write per user action so no local nonce tracking
// is needed.
type TxSender struct {
	client ethclient.Client
	key    *ecdsa.PrivateKey
	signer types.Signer
	from   common.Address
}

func NewTxSender(client ethclient.Client, hexKey string) (*TxSender, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("can't parse signer key: %w", err)
	}
	chainID, ok := new(big.Int).SetString(client.ChainID(), 10)
	if !ok {
		return nil, fmt.Errorf("can't parse chainID %q", client.ChainID())
	}
	return &TxSender{
		client: client,
		key:    key,
		signer: types.LatestSignerForChainID(chainID),
		from:   crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *TxSender) From() common.Address {
	return s.from
}

// Send signs and submits a transaction. A zero gasLimit requests estimation,
// a non-zero gasLimit is used as-is with no other gas field set.
func (s *TxSender) Send(ctx context.Context, to common.Address, value *big.Int, data []byte, gasLimit uint64) (common.Hash, error) {
	if value == nil {
		value = new(big.Int)
	}
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't fetch pending nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't fetch gas price: %w", err)
	}
	if gasLimit == 0 {
		gasLimit, err = s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:     s.from,
			To:       &to,
			Value:    value,
			Data:     data,
			GasPrice: gasPrice,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("can't estimate gas: %w", err)
		}
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't sign transaction: %w", err)
	}
	if err = s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("can't submit transaction: %w", err)
	}
	return signed.Hash(), nil
}
