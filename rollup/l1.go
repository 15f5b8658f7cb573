package rollup

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/dbkchain/bridge-service/config"
	"github.com/dbkchain/bridge-service/contract"
	bridgeabi "github.com/dbkchain/bridge-service/contract/abi"
	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/ethclient"
	"github.com/dbkchain/bridge-service/logging"
	"github.com/dbkchain/bridge-service/utils"
)

// FinalizeGasLimit is a fixed gas limit for finalizeWithdrawalTransaction.
// Gas estimation for that call is unreliable on some rpc providers, so the
// submission always uses this value and sets no other gas field.
const FinalizeGasLimit = 700000

const waitToProveInterval = 30 * time.Second

// OutputRootProof is the proof of the L2 output root the withdrawal is
// proven against, in portal calldata layout.
type OutputRootProof struct {
	Version                  common.Hash
	StateRoot                common.Hash
	MessagePasserStorageRoot common.Hash
	LatestBlockhash          common.Hash
}

// ProveParams is everything proveWithdrawalTransaction needs.
type ProveParams struct {
	Withdrawal      *WithdrawalMessage
	L2OutputIndex   *big.Int
	OutputRootProof OutputRootProof
	WithdrawalProof [][]byte
}

type outputProposal struct {
	OutputRoot    [32]byte
	Timestamp     *big.Int
	L2BlockNumber *big.Int
}

// L1Client wraps the settlement-chain side of the bridge: the portal and
// output oracle contracts plus transaction submission. The embedded L2 rpc
// client is only used to read headers and storage proofs while building
// prove calldata.
type L1Client struct {
	logger          logging.Logger
	client          ethclient.Client
	l2              ethclient.Client
	sender          *TxSender
	portal          *contract.Contract
	oracle          *contract.Contract
	depositGasLimit uint64
}

func NewL1Client(logger logging.Logger, client, l2 ethclient.Client, sender *TxSender, cfg *config.BridgeConfig) *L1Client {
	return &L1Client{
		logger:          logger,
		client:          client,
		l2:              l2,
		sender:          sender,
		portal:          contract.NewContract(client, cfg.Portal(), bridgeabi.Portal),
		oracle:          contract.NewContract(client, cfg.OutputOracle(), bridgeabi.L2OutputOracle),
		depositGasLimit: cfg.DepositGasLimit,
	}
}

func (c *L1Client) ChainID() string {
	return c.client.ChainID()
}

func (c *L1Client) PortalAddress() common.Address {
	return c.portal.Address()
}

func (c *L1Client) TransactionReceiptByHash(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.client.TransactionReceiptByHash(ctx, hash)
}

// DepositNative bridges the given wei amount to the caller's own address on
// L2 by calling the portal's depositTransaction with empty calldata and the
// configured fixed L2 gas limit.
func (c *L1Client) DepositNative(ctx context.Context, amount *big.Int) (common.Hash, error) {
	if c.sender == nil {
		return common.Hash{}, ErrNoSigner
	}
	data, err := c.portal.Pack("depositTransaction", c.sender.From(), amount, c.depositGasLimit, false, []byte{})
	if err != nil {
		return common.Hash{}, err
	}
	return c.sender.Send(ctx, c.portal.Address(), amount, data, 0)
}

// EstimateDepositGas estimates the L1 gas a native deposit of the given
// amount would take. Used for advisory fee display only.
func (c *L1Client) EstimateDepositGas(ctx context.Context, amount *big.Int) (uint64, error) {
	if c.sender == nil {
		return 0, ErrNoSigner
	}
	data, err := c.portal.Pack("depositTransaction", c.sender.From(), amount, c.depositGasLimit, false, []byte{})
	if err != nil {
		return 0, err
	}
	to := c.portal.Address()
	return c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.sender.From(),
		To:    &to,
		Value: amount,
		Data:  data,
	})
}

// GetWithdrawalStatus maps a withdrawal's L2 receipt to its lifecycle status
// by reading the portal and output oracle state. The progression it encodes
// is the rollup's, this method only consumes contract state.
func (c *L1Client) GetWithdrawalStatus(ctx context.Context, l2Receipt *types.Receipt) (entity.BridgeStatus, error) {
	msg, err := ExtractWithdrawalMessage(l2Receipt)
	if err != nil {
		return "", err
	}
	hash, err := msg.Hash()
	if err != nil {
		return "", err
	}
	finalizedRes, err := c.portal.Call(ctx, "finalizedWithdrawals", hash)
	if err != nil {
		return "", err
	}
	if finalizedRes[0].(bool) {
		return entity.StatusFinalized, nil
	}
	provenRes, err := c.portal.Call(ctx, "provenWithdrawals", hash)
	if err != nil {
		return "", err
	}
	provenAt := provenRes[1].(*big.Int)
	if provenAt.Sign() > 0 {
		periodRes, err2 := c.oracle.Call(ctx, "FINALIZATION_PERIOD_SECONDS")
		if err2 != nil {
			return "", err2
		}
		deadline := new(big.Int).Add(provenAt, periodRes[0].(*big.Int))
		if deadline.Cmp(big.NewInt(time.Now().Unix())) <= 0 {
			return entity.StatusReadyToFinalize, nil
		}
		return entity.StatusWaitingToFinalize, nil
	}
	latestRes, err := c.oracle.Call(ctx, "latestBlockNumber")
	if err != nil {
		return "", err
	}
	if latestRes[0].(*big.Int).Cmp(l2Receipt.BlockNumber) >= 0 {
		return entity.StatusReadyToProve, nil
	}
	return entity.StatusWaitingToProve, nil
}

// WaitToProve blocks until the output root covering the withdrawal's L2
// block is published, then builds the prove calldata. Calling it before the
// root is available legitimately waits out the waiting-to-prove phase.
func (c *L1Client) WaitToProve(ctx context.Context, l2Receipt *types.Receipt) (*ProveParams, error) {
	for {
		latestRes, err := c.oracle.Call(ctx, "latestBlockNumber")
		if err != nil {
			return nil, err
		}
		if latestRes[0].(*big.Int).Cmp(l2Receipt.BlockNumber) >= 0 {
			break
		}
		c.logger.WithField("l2_block", l2Receipt.BlockNumber).Info("withdrawal output root not yet published, waiting")
		if !utils.Sleep(ctx, waitToProveInterval) {
			return nil, ctx.Err()
		}
	}
	return c.BuildProveWithdrawal(ctx, l2Receipt)
}

// BuildProveWithdrawal assembles the output root proof and the storage proof
// of the withdrawal slot at the proposed output block.
func (c *L1Client) BuildProveWithdrawal(ctx context.Context, l2Receipt *types.Receipt) (*ProveParams, error) {
	msg, err := ExtractWithdrawalMessage(l2Receipt)
	if err != nil {
		return nil, err
	}
	slot, err := msg.StorageSlot()
	if err != nil {
		return nil, err
	}
	indexRes, err := c.oracle.Call(ctx, "getL2OutputIndexAfter", l2Receipt.BlockNumber)
	if err != nil {
		return nil, err
	}
	index := indexRes[0].(*big.Int)
	outputRes, err := c.oracle.Call(ctx, "getL2Output", index)
	if err != nil {
		return nil, err
	}
	proposal := abi.ConvertType(outputRes[0], new(outputProposal)).(*outputProposal)

	header, err := c.l2.HeaderByNumber(ctx, proposal.L2BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("can't fetch output block header: %w", err)
	}
	proof, err := c.l2.GetProof(ctx, L2ToL1MessagePasserAddr, []string{slot.Hex()}, proposal.L2BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("can't fetch withdrawal storage proof: %w", err)
	}
	if len(proof.StorageProof) == 0 {
		return nil, fmt.Errorf("storage proof for slot %s is empty", slot)
	}
	withdrawalProof := make([][]byte, len(proof.StorageProof[0].Proof))
	for i, node := range proof.StorageProof[0].Proof {
		withdrawalProof[i], err = hexutil.Decode(node)
		if err != nil {
			return nil, fmt.Errorf("can't decode storage proof node: %w", err)
		}
	}
	return &ProveParams{
		Withdrawal:    msg,
		L2OutputIndex: index,
		OutputRootProof: OutputRootProof{
			StateRoot:                header.Root,
			MessagePasserStorageRoot: proof.StorageHash,
			LatestBlockhash:          header.Hash(),
		},
		WithdrawalProof: withdrawalProof,
	}, nil
}

func (c *L1Client) ProveWithdrawal(ctx context.Context, params *ProveParams) (common.Hash, error) {
	if c.sender == nil {
		return common.Hash{}, ErrNoSigner
	}
	data, err := c.portal.Pack("proveWithdrawalTransaction",
		params.Withdrawal, params.L2OutputIndex, params.OutputRootProof, params.WithdrawalProof)
	if err != nil {
		return common.Hash{}, err
	}
	return c.sender.Send(ctx, c.portal.Address(), nil, data, 0)
}

func (c *L1Client) FinalizeWithdrawal(ctx context.Context, msg *WithdrawalMessage) (common.Hash, error) {
	if c.sender == nil {
		return common.Hash{}, ErrNoSigner
	}
	data, err := c.portal.Pack("finalizeWithdrawalTransaction", msg)
	if err != nil {
		return common.Hash{}, err
	}
	return c.sender.Send(ctx, c.portal.Address(), nil, data, FinalizeGasLimit)
}
