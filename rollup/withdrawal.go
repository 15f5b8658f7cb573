package rollup

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dbkchain/bridge-service/contract"
	bridgeabi "github.com/dbkchain/bridge-service/contract/abi"
)

// L2ToL1MessagePasserAddr is the rollup predeploy emitting MessagePassed
// events for every initiated withdrawal.
var L2ToL1MessagePasserAddr = common.HexToAddress("0x4200000000000000000000000000000000000016")

// WithdrawalMessage is the withdrawal tuple committed to by the
// L2ToL1MessagePasser, in the exact field order the portal contract hashes.
type WithdrawalMessage struct {
	Nonce    *big.Int
	Sender   common.Address
	Target   common.Address
	Value    *big.Int
	GasLimit *big.Int
	Data     []byte
}

var withdrawalHashArguments abi.Arguments

func init() {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	withdrawalHashArguments = abi.Arguments{
		{Type: uint256Type},
		{Type: addressType},
		{Type: addressType},
		{Type: uint256Type},
		{Type: uint256Type},
		{Type: bytesType},
	}
}

// Hash computes the canonical withdrawal hash,
// keccak256(abi.encode(nonce, sender, target, value, gasLimit, data)).
func (w *WithdrawalMessage) Hash() (common.Hash, error) {
	packed, err := withdrawalHashArguments.Pack(w.Nonce, w.Sender, w.Target, w.Value, w.GasLimit, w.Data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't encode withdrawal tuple: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}

// StorageSlot is the sentMessages mapping slot for this withdrawal in the
// message passer contract, keccak256(withdrawalHash ++ uint256(0)).
func (w *WithdrawalMessage) StorageSlot() (common.Hash, error) {
	hash, err := w.Hash()
	if err != nil {
		return common.Hash{}, err
	}
	var mappingPosition [32]byte
	return crypto.Keccak256Hash(hash.Bytes(), mappingPosition[:]), nil
}

// ExtractWithdrawalMessage finds the MessagePassed event in an L2 withdrawal
// receipt and decodes the committed tuple.
func ExtractWithdrawalMessage(receipt *types.Receipt) (*WithdrawalMessage, error) {
	for _, log := range receipt.Logs {
		if log.Address != L2ToL1MessagePasserAddr {
			continue
		}
		name, values, err := contract.ParseLog(bridgeabi.L2ToL1MessagePasser, log)
		if err != nil {
			return nil, fmt.Errorf("can't parse message passer log: %w", err)
		}
		if name != "MessagePassed" {
			continue
		}
		return &WithdrawalMessage{
			Nonce:    values["nonce"].(*big.Int),
			Sender:   values["sender"].(common.Address),
			Target:   values["target"].(common.Address),
			Value:    values["value"].(*big.Int),
			GasLimit: values["gasLimit"].(*big.Int),
			Data:     values["data"].([]byte),
		}, nil
	}
	return nil, ErrNoWithdrawalMessage
}
