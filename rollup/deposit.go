package rollup

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dbkchain/bridge-service/contract"
	bridgeabi "github.com/dbkchain/bridge-service/contract/abi"
)

const depositTxType = 0x7e

// opaqueData layout: 32 bytes mint, 32 bytes value, 8 bytes gas limit,
// 1 byte isCreation flag, remainder calldata.
const minOpaqueDataLen = 73

// depositTx mirrors the rollup's EIP-2718 deposit transaction payload.
// Only the hash derivation is needed here, the sequencer owns execution.
type depositTx struct {
	SourceHash          common.Hash
	From                common.Address
	To                  *common.Address `rlp:"nil"`
	Mint                *big.Int        `rlp:"nil"`
	Value               *big.Int
	Gas                 uint64
	IsSystemTransaction bool
	Data                []byte
}

func (tx *depositTx) hash() (common.Hash, error) {
	payload, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't rlp-encode deposit tx: %w", err)
	}
	return crypto.Keccak256Hash(append([]byte{depositTxType}, payload...)), nil
}

// userDepositSourceHash is the rollup's deposit source hash,
// keccak256(bytes32(0) ++ keccak256(l1BlockHash ++ uint256(logIndex))).
func userDepositSourceHash(l1BlockHash common.Hash, logIndex uint) common.Hash {
	var index [32]byte
	binary.BigEndian.PutUint64(index[24:], uint64(logIndex))
	depositIDHash := crypto.Keccak256Hash(l1BlockHash.Bytes(), index[:])
	var domain [32]byte
	return crypto.Keccak256Hash(domain[:], depositIDHash.Bytes())
}

func unmarshalDepositLog(log *types.Log, values map[string]interface{}) (*depositTx, error) {
	version := values["version"].(*big.Int)
	if version.Sign() != 0 {
		return nil, fmt.Errorf("unsupported TransactionDeposited version %s", version)
	}
	opaque := values["opaqueData"].([]byte)
	if len(opaque) < minOpaqueDataLen {
		return nil, fmt.Errorf("opaque deposit data too short: %d bytes", len(opaque))
	}
	from := values["from"].(common.Address)
	to := values["to"].(common.Address)

	mint := new(big.Int).SetBytes(opaque[0:32])
	value := new(big.Int).SetBytes(opaque[32:64])
	gas := binary.BigEndian.Uint64(opaque[64:72])
	isCreation := opaque[72] != 0
	data := opaque[73:]

	tx := &depositTx{
		SourceHash: userDepositSourceHash(log.BlockHash, log.Index),
		From:       from,
		Value:      value,
		Gas:        gas,
		Data:       data,
	}
	if !isCreation {
		tx.To = &to
	}
	if mint.Sign() != 0 {
		tx.Mint = mint
	}
	return tx, nil
}

// DerivedDepositHashes computes the L2 transaction hashes that the rollup
// deterministically derives from the TransactionDeposited events of an L1
// deposit receipt. The derivation is the rollup's canonical cross-chain
// message scheme, nothing here is invented.
func DerivedDepositHashes(portal common.Address, receipt *types.Receipt) ([]common.Hash, error) {
	var hashes []common.Hash
	for _, log := range receipt.Logs {
		if log.Address != portal {
			continue
		}
		name, values, err := contract.ParseLog(bridgeabi.Portal, log)
		if err != nil {
			return nil, fmt.Errorf("can't parse portal log: %w", err)
		}
		if name != "TransactionDeposited" {
			continue
		}
		tx, err := unmarshalDepositLog(log, values)
		if err != nil {
			return nil, err
		}
		hash, err := tx.hash()
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	if len(hashes) == 0 {
		return nil, ErrNoDepositMessage
	}
	return hashes, nil
}
