package txbuilder

import (
	"bytes"
	"math"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LocalChainID is the chain identifier of the sandbox EVM engine.
const LocalChainID uint64 = 1313161556

// MaxGas is the gas allowance of every sandbox transaction. It is effectively
// unmetered and only meaningful against the local sandbox engine.
const MaxGas uint64 = math.MaxUint64

// UnsignedTransaction is a legacy-format transaction ready for signing. Fields
// are declared in their canonical order.
type UnsignedTransaction struct {
	ChainID  uint64
	Nonce    uint64
	GasPrice *big.Int
	// To is nil for contract creation.
	To    *ethcommon.Address
	Value *big.Int
	Data  []byte
	Gas   uint64
}

func newSandboxTransaction(nonce uint64, to *ethcommon.Address, data []byte) *UnsignedTransaction {
	return &UnsignedTransaction{
		ChainID:  LocalChainID,
		Nonce:    nonce,
		GasPrice: new(big.Int),
		To:       to,
		Value:    new(big.Int),
		Data:     data,
		Gas:      MaxGas,
	}
}

// IsCreate reports whether the transaction deploys a contract.
func (tx *UnsignedTransaction) IsCreate() bool {
	return tx.To == nil
}

// LegacyTx converts the transaction into a go-ethereum legacy transaction. The
// result shares no memory with tx.
func (tx *UnsignedTransaction) LegacyTx() *types.Transaction {
	var to *ethcommon.Address
	if tx.To != nil {
		addr := *tx.To
		to = &addr
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    tx.Nonce,
		GasPrice: bigOrZero(tx.GasPrice),
		Gas:      tx.Gas,
		To:       to,
		Value:    bigOrZero(tx.Value),
		Data:     bytes.Clone(tx.Data),
	})
}

// Signer returns the EIP-155 signer for the transaction's chain.
func (tx *UnsignedTransaction) Signer() types.Signer {
	return types.NewEIP155Signer(new(big.Int).SetUint64(tx.ChainID))
}

// SigningHash returns the EIP-155 hash that must be signed.
func (tx *UnsignedTransaction) SigningHash() ethcommon.Hash {
	return tx.Signer().Hash(tx.LegacyTx())
}

// Equal reports whether two transactions have identical fields.
func (tx *UnsignedTransaction) Equal(other *UnsignedTransaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}
	if (tx.To == nil) != (other.To == nil) {
		return false
	}
	if tx.To != nil && *tx.To != *other.To {
		return false
	}
	return tx.ChainID == other.ChainID &&
		tx.Nonce == other.Nonce &&
		bigOrZero(tx.GasPrice).Cmp(bigOrZero(other.GasPrice)) == 0 &&
		bigOrZero(tx.Value).Cmp(bigOrZero(other.Value)) == 0 &&
		bytes.Equal(tx.Data, other.Data) &&
		tx.Gas == other.Gas
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
