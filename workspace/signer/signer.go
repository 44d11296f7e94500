// Package signer signs unsigned sandbox transactions with a secp256k1 key using
// the EIP-155 scheme for the transaction's chain.
package signer

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pushchain/evm-workspace-demo/workspace/txbuilder"
)

// DevKeyHex is the well-known development key of the demo: 32 bytes of 0x58.
var DevKeyHex = strings.Repeat("58", 32)

// Signer holds a private key and produces EIP-155 signed transactions.
type Signer struct {
	key     *ecdsa.PrivateKey
	address ethcommon.Address
}

// FromHex creates a signer from a hex-encoded private key, with or without 0x.
func FromHex(keyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return FromKey(key), nil
}

// FromBytes creates a signer from a raw 32-byte private key.
func FromBytes(raw [32]byte) (*Signer, error) {
	key, err := crypto.ToECDSA(raw[:])
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return FromKey(key), nil
}

// FromKey wraps an existing private key.
func FromKey(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Dev returns the signer for DevKeyHex.
func Dev() *Signer {
	s, err := FromHex(DevKeyHex)
	if err != nil {
		panic(err) // constant key
	}
	return s
}

// Address returns the Ethereum address of the key.
func (s *Signer) Address() ethcommon.Address {
	return s.address
}

// Sign signs tx and returns the signed go-ethereum transaction.
func (s *Signer) Sign(tx *txbuilder.UnsignedTransaction) (*types.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}
	signed, err := types.SignTx(tx.LegacyTx(), tx.Signer(), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// SignRaw signs tx and returns its RLP encoding, ready for submission.
func (s *Signer) SignRaw(tx *txbuilder.UnsignedTransaction) ([]byte, error) {
	signed, err := s.Sign(tx)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
	}
	return raw, nil
}

// Recover returns the sender of a signed transaction for the given chain.
func Recover(tx *types.Transaction) (ethcommon.Address, error) {
	if !tx.Protected() {
		return ethcommon.Address{}, fmt.Errorf("transaction is not replay protected")
	}
	return types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
}

// Verify checks that raw is a transaction signed by s.
func (s *Signer) Verify(raw []byte) error {
	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("failed to decode transaction: %w", err)
	}
	from, err := Recover(&tx)
	if err != nil {
		return err
	}
	if !bytes.Equal(from.Bytes(), s.address.Bytes()) {
		return fmt.Errorf("signed by %s, expected %s", from.Hex(), s.address.Hex())
	}
	return nil
}
