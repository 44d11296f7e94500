// Package engine hosts an EVM on a sandbox account. It accepts RLP encoded,
// EIP-155 signed legacy transactions and executes them against in-memory state,
// one sandbox block per submission.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
	"github.com/pushchain/evm-workspace-demo/workspace/sandbox"
)

const component = "engine"

// viewGas bounds read-only calls.
const viewGas = 50_000_000

var big0 = new(big.Int)

// SubmitResult describes an executed transaction.
type SubmitResult struct {
	TxHash          ethcommon.Hash
	Sender          ethcommon.Address
	Nonce           uint64
	Status          TransactionStatus
	GasUsed         uint64
	Block           uint64
	ContractAddress *ethcommon.Address
}

// Engine is an EVM deployed on a sandbox account.
type Engine struct {
	mu          sync.Mutex
	logger      zerolog.Logger
	worker      *sandbox.Worker
	accountID   string
	initCfg     InitConfig
	chainID     *big.Int
	chainConfig *params.ChainConfig
	signer      types.Signer
	statedb     *state.StateDB
}

// DeployAndInit deploys the engine on accountID and initialises it with cfg.
// The account must exist and must not host another contract.
func DeployAndInit(ctx context.Context, worker *sandbox.Worker, accountID string, cfg InitConfig, logger zerolog.Logger) (*Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := worker.Account(accountID); err != nil {
		return nil, err
	}

	statedb, err := state.New(types.EmptyRootHash, state.NewDatabase(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil), nil))
	if err != nil {
		return nil, wserrors.NewInternalError(component, "failed to create state", err)
	}

	if err := worker.DeployContract(accountID, ContractName); err != nil {
		return nil, err
	}

	chainID := new(big.Int).SetUint64(cfg.ChainID)
	chainConfig := *params.AllDevChainProtocolChanges
	chainConfig.ChainID = chainID

	e := &Engine{
		logger:      logger.With().Str("component", component).Str("account_id", accountID).Logger(),
		worker:      worker,
		accountID:   accountID,
		initCfg:     cfg,
		chainID:     chainID,
		chainConfig: &chainConfig,
		signer:      types.LatestSignerForChainID(chainID),
		statedb:     statedb,
	}

	e.logger.Info().
		Uint64("chain_id", cfg.ChainID).
		Str("owner_id", cfg.OwnerID).
		Str("prover_id", cfg.ProverID).
		Bool("eth_prover", cfg.EthProverConfig != nil).
		Msg("engine deployed")
	return e, nil
}

// AccountID returns the sandbox account hosting the engine.
func (e *Engine) AccountID() string {
	return e.accountID
}

// ChainID returns the EVM chain id.
func (e *Engine) ChainID() uint64 {
	return e.initCfg.ChainID
}

// InitConfig returns the configuration the engine was initialised with.
func (e *Engine) InitConfig() InitConfig {
	return e.initCfg
}

// Submit decodes, verifies and executes a signed transaction. Malformed,
// unprotected, wrong-chain and wrong-nonce transactions are rejected without
// producing a block, as are transactions the EVM refuses to execute or fails
// with an error no status covers. A rejected transaction leaves the state and
// the sender nonce untouched.
func (e *Engine) Submit(ctx context.Context, raw []byte) (*SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, wserrors.NewTransactionError(component, "failed to decode transaction", err)
	}
	if tx.Type() != types.LegacyTxType {
		return nil, wserrors.NewTransactionError(component,
			fmt.Sprintf("unsupported transaction type %d", tx.Type()), nil)
	}
	if !tx.Protected() {
		return nil, wserrors.NewTransactionError(component, "transaction is not replay protected", nil)
	}
	if tx.ChainId().Cmp(e.chainID) != 0 {
		return nil, wserrors.NewTransactionError(component,
			fmt.Sprintf("invalid chain id %s, expected %s", tx.ChainId(), e.chainID), nil).
			WithContext("tx_hash", tx.Hash().Hex())
	}

	msg, err := core.TransactionToMessage(tx, e.signer, big0)
	if err != nil {
		return nil, wserrors.NewTransactionError(component, "failed to recover sender", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if expected := e.statedb.GetNonce(msg.From); msg.Nonce != expected {
		return nil, wserrors.NewTransactionError(component,
			fmt.Sprintf("invalid nonce %d for %s, expected %d", msg.Nonce, msg.From.Hex(), expected), nil).
			WithContext("tx_hash", tx.Hash().Hex()).
			WithContext("expected_nonce", expected)
	}

	head, err := e.worker.PendingBlock()
	if err != nil {
		return nil, err
	}

	evm := e.newEVM(head, e.statedb)
	evm.SetTxContext(core.NewEVMTxContext(msg))
	e.statedb.SetTxContext(tx.Hash(), 0)

	snap := e.statedb.Snapshot()
	result, err := core.ApplyMessage(evm, msg, new(core.GasPool).AddGas(math.MaxUint64))
	if err != nil {
		e.statedb.RevertToSnapshot(snap)
		return nil, wserrors.NewTransactionError(component, "transaction rejected", err).
			WithContext("tx_hash", tx.Hash().Hex())
	}

	status, ok := statusFromError(result.Err, result.ReturnData)
	if !ok {
		// No status covers the error, so the transaction is dropped as a whole
		// and its nonce stays unused.
		e.statedb.RevertToSnapshot(snap)
		e.logger.Warn().
			Err(result.Err).
			Str("tx_hash", tx.Hash().Hex()).
			Uint64("pending_block", head.Height).
			Msg("evm error")
		return nil, wserrors.NewTransactionError(component, "evm execution failed", result.Err).
			WithContext("tx_hash", tx.Hash().Hex())
	}

	if err := e.worker.CommitBlock(head); err != nil {
		e.statedb.RevertToSnapshot(snap)
		return nil, err
	}
	e.statedb.Finalise(true)

	res := &SubmitResult{
		TxHash:  tx.Hash(),
		Sender:  msg.From,
		Nonce:   msg.Nonce,
		GasUsed: result.UsedGas,
		Block:   head.Height,
	}
	if msg.To == nil && status.Succeed() {
		addr := crypto.CreateAddress(msg.From, msg.Nonce)
		res.ContractAddress = &addr
		status.Output = addr.Bytes()
	}
	res.Status = status

	e.logger.Debug().
		Str("tx_hash", res.TxHash.Hex()).
		Str("sender", res.Sender.Hex()).
		Uint64("nonce", res.Nonce).
		Stringer("status", status.Kind).
		Uint64("gas_used", res.GasUsed).
		Uint64("block", res.Block).
		Msg("transaction executed")
	return res, nil
}

// View runs a read-only call against a copy of the current state.
func (e *Engine) View(ctx context.Context, from, to ethcommon.Address, data []byte) (TransactionStatus, error) {
	if err := ctx.Err(); err != nil {
		return TransactionStatus{}, err
	}

	e.mu.Lock()
	snapshot := e.statedb.Copy()
	e.mu.Unlock()

	msg := &core.Message{
		From:      from,
		To:        &to,
		Nonce:     snapshot.GetNonce(from),
		Value:     new(big.Int),
		GasLimit:  viewGas,
		GasPrice:  new(big.Int),
		GasFeeCap: new(big.Int),
		GasTipCap: new(big.Int),
		Data:      data,
	}
	evm := e.newEVM(e.worker.Head(), snapshot)
	evm.SetTxContext(core.NewEVMTxContext(msg))

	result, err := core.ApplyMessage(evm, msg, new(core.GasPool).AddGas(viewGas))
	if err != nil {
		return TransactionStatus{}, wserrors.NewTransactionError(component, "view call rejected", err)
	}
	status, ok := statusFromError(result.Err, result.ReturnData)
	if !ok {
		return TransactionStatus{}, wserrors.NewTransactionError(component, "view call failed", result.Err)
	}
	return status, nil
}

// Nonce returns the next nonce expected from addr.
func (e *Engine) Nonce(addr ethcommon.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statedb.GetNonce(addr)
}

// Code returns the code deployed at addr.
func (e *Engine) Code(addr ethcommon.Address) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ethcommon.CopyBytes(e.statedb.GetCode(addr))
}

// Balance returns the balance of addr in wei.
func (e *Engine) Balance(addr ethcommon.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statedb.GetBalance(addr).ToBig()
}

// Fund credits addr with amount wei.
func (e *Engine) Fund(addr ethcommon.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return wserrors.NewValidationError(component, "fund amount must not be negative")
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return wserrors.NewValidationError(component, "fund amount exceeds 256 bits")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.statedb.AddBalance(addr, value, tracing.BalanceIncreaseGenesisBalance)
	e.statedb.Finalise(true)

	e.logger.Debug().Str("address", addr.Hex()).Str("amount", amount.String()).Msg("account funded")
	return nil
}

// StateRoot returns the root hash of the current state.
func (e *Engine) StateRoot() ethcommon.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statedb.IntermediateRoot(true)
}

func (e *Engine) newEVM(head sandbox.Head, statedb *state.StateDB) *vm.EVM {
	random := head.Random
	blockCtx := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash: func(n uint64) ethcommon.Hash {
			hash, _ := e.worker.BlockHash(n)
			return hash
		},
		Coinbase:    ethcommon.Address{},
		GasLimit:    math.MaxUint64,
		BlockNumber: new(big.Int).SetUint64(head.Height),
		Time:        uint64(head.Time.Unix()),
		Difficulty:  big0,
		BaseFee:     big0,
		BlobBaseFee: big0,
		Random:      &random,
	}
	return vm.NewEVM(blockCtx, statedb, e.chainConfig, vm.Config{NoBaseFee: true})
}
