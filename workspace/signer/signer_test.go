package signer

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/evm-workspace-demo/workspace/txbuilder"
)

func sampleTx(nonce uint64) *txbuilder.UnsignedTransaction {
	to := ethcommon.HexToAddress("0x1234567890123456789012345678901234567890")
	return &txbuilder.UnsignedTransaction{
		ChainID:  txbuilder.LocalChainID,
		Nonce:    nonce,
		GasPrice: new(big.Int),
		To:       &to,
		Value:    new(big.Int),
		Data:     []byte{0xde, 0xad, 0xbe, 0xef},
		Gas:      txbuilder.MaxGas,
	}
}

func TestFromHex(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		expectError bool
	}{
		{name: "dev key", key: DevKeyHex},
		{name: "0x prefix", key: "0x" + DevKeyHex},
		{name: "too short", key: "5858", expectError: true},
		{name: "not hex", key: "zz", expectError: true},
		{name: "zero key", key: "0000000000000000000000000000000000000000000000000000000000000000", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromHex(tt.key)
			if tt.expectError {
				assert.ErrorContains(t, err, "invalid private key")
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Dev().Address(), s.Address())
		})
	}
}

func TestFromBytesMatchesHex(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = 0x58
	}
	s, err := FromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, Dev().Address(), s.Address())
}

func TestSign(t *testing.T) {
	s := Dev()
	utx := sampleTx(3)

	signed, err := s.Sign(utx)
	require.NoError(t, err)

	assert.Equal(t, uint8(types.LegacyTxType), signed.Type())
	assert.True(t, signed.Protected())
	assert.Equal(t, new(big.Int).SetUint64(txbuilder.LocalChainID), signed.ChainId())
	assert.Equal(t, utx.Nonce, signed.Nonce())
	assert.Equal(t, utx.Data, signed.Data())

	from, err := Recover(signed)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), from)

	v, r, sv := signed.RawSignatureValues()
	sig := make([]byte, 65)
	r.FillBytes(sig[:32])
	sv.FillBytes(sig[32:64])
	chainMul := new(big.Int).SetUint64(txbuilder.LocalChainID * 2)
	sig[64] = byte(new(big.Int).Sub(v, chainMul).Uint64() - 35)
	pub, err := crypto.SigToPub(utx.SigningHash().Bytes(), sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))

	_, err = s.Sign(nil)
	assert.ErrorContains(t, err, "transaction is nil")
}

func TestSignRaw(t *testing.T) {
	s := Dev()

	raw, err := s.SignRaw(sampleTx(0))
	require.NoError(t, err)
	require.NoError(t, s.Verify(raw))

	again, err := s.SignRaw(sampleTx(0))
	require.NoError(t, err)
	assert.Equal(t, raw, again, "RFC 6979 signatures are deterministic")

	other, err := FromHex("0x" + "11" + DevKeyHex[2:])
	require.NoError(t, err)
	assert.ErrorContains(t, other.Verify(raw), "expected")

	assert.ErrorContains(t, s.Verify([]byte{0x01, 0x02}), "failed to decode transaction")
}

func TestRecoverRejectsUnprotected(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx, err := types.SignTx(sampleTx(0).LegacyTx(), types.HomesteadSigner{}, key)
	require.NoError(t, err)

	_, err = Recover(tx)
	assert.ErrorContains(t, err, "not replay protected")
}
