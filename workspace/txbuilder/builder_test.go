package txbuilder

import (
	"bytes"
	"encoding/hex"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/evm-workspace-demo/workspace/artifact"
	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
)

const (
	tokenABI = `[
		{"type":"constructor","inputs":[{"name":"supply","type":"uint256"}],"stateMutability":"nonpayable"},
		{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
		{"type":"function","name":"foo","inputs":[{"name":"x","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"mint","inputs":[{"name":"x","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"mint","inputs":[{"name":"x","type":"uint256"},{"name":"to","type":"address"}],"outputs":[],"stateMutability":"nonpayable"}
	]`
	randomABI = `[{"inputs":[],"name":"randomSeed","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"view","type":"function"}]`
)

var (
	tokenCode  = []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	randomCode = []byte{0x60, 0x15, 0x60, 0x0c}
	recipient  = ethcommon.HexToAddress("0x1234567890123456789012345678901234567890")
)

func mustArtifact(t *testing.T, name, abiJSON string, code []byte) *artifact.ContractArtifact {
	t.Helper()
	a, err := artifact.Parse(name, []byte(abiJSON), hex.EncodeToString(code))
	require.NoError(t, err)
	return a
}

func TestBuildDeploy(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)

	tx, err := BuildDeploy(token, 0, big.NewInt(1000))
	require.NoError(t, err)

	uint256Type, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)
	encoded, err := abi.Arguments{{Type: uint256Type}}.Pack(big.NewInt(1000))
	require.NoError(t, err)

	assert.True(t, tx.IsCreate())
	assert.Nil(t, tx.To)
	assert.Equal(t, append(append([]byte{}, tokenCode...), encoded...), tx.Data)
	assert.Len(t, tx.Data, len(tokenCode)+32)
	assertSandboxPolicy(t, tx)
}

func TestBuildDeploy_Deterministic(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)

	first, err := BuildDeploy(token, 7, big.NewInt(42))
	require.NoError(t, err)
	second, err := BuildDeploy(token, 7, big.NewInt(42))
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, first.SigningHash(), second.SigningHash())
}

func TestBuildDeploy_WithoutConstructor(t *testing.T) {
	random := mustArtifact(t, "Random", randomABI, randomCode)

	tx, err := BuildDeploy(random, 0)
	require.NoError(t, err)

	assert.Equal(t, randomCode, tx.Data)
	assert.Nil(t, tx.To)

	t.Run("payload does not alias the artifact", func(t *testing.T) {
		tx.Data[0] = 0xff
		assert.Equal(t, randomCode, random.Bytecode())
	})

	t.Run("arguments rejected", func(t *testing.T) {
		_, err := BuildDeploy(random, 0, big.NewInt(1))
		var encErr *wserrors.EncodingError
		require.ErrorAs(t, err, &encErr)
		assert.Equal(t, "constructor()", encErr.Target)
		assert.Equal(t, 0, encErr.Expected)
		assert.Equal(t, 1, encErr.Actual)
	})
}

func TestBuildDeploy_EncodingErrors(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)

	tests := []struct {
		name          string
		args          []interface{}
		expectedCount int
		actualCount   int
		param         string
	}{
		{name: "missing argument", args: nil, expectedCount: 1, actualCount: 0},
		{name: "extra argument", args: []interface{}{big.NewInt(1), big.NewInt(2)}, expectedCount: 1, actualCount: 2},
		{name: "wrong type", args: []interface{}{"one thousand"}, param: "#0 uint256 supply"},
		{name: "native int instead of big", args: []interface{}{1000}, param: "#0 uint256 supply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := BuildDeploy(token, 0, tt.args...)
			assert.Nil(t, tx)

			var encErr *wserrors.EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, "constructor(uint256)", encErr.Target)
			assert.True(t, wserrors.IsCode(err, wserrors.ErrCodeEncoding))
			if tt.param != "" {
				assert.Equal(t, tt.param, encErr.Param)
				assert.Error(t, encErr.Cause)
			} else {
				assert.Equal(t, tt.expectedCount, encErr.Expected)
				assert.Equal(t, tt.actualCount, encErr.Actual)
			}
		})
	}
}

func TestBuildCall(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)

	tx, err := BuildCall(token, recipient, 3, "transfer", recipient, big.NewInt(5))
	require.NoError(t, err)

	require.NotNil(t, tx.To)
	assert.Equal(t, recipient, *tx.To)
	assert.False(t, tx.IsCreate())
	assert.Equal(t, uint64(3), tx.Nonce)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(tx.Data[:4]))
	assert.Len(t, tx.Data, 4+64)
	assertSandboxPolicy(t, tx)
}

func TestBuildCall_SelectorIndependentOfArguments(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)
	expected := crypto.Keccak256([]byte("foo(uint256)"))[:4]

	for _, v := range []int64{0, 1, 1 << 40} {
		tx, err := BuildCall(token, recipient, 0, "foo", big.NewInt(v))
		require.NoError(t, err)
		assert.Equal(t, expected, tx.Data[:4])
		assert.Equal(t, expected, Selector("foo(uint256)"))
	}
}

func TestBuildCall_RandomSeed(t *testing.T) {
	random := mustArtifact(t, "Random", randomABI, randomCode)

	tx, err := BuildCall(random, recipient, 1, "randomSeed")
	require.NoError(t, err)
	assert.Equal(t, Selector("randomSeed()"), tx.Data)
}

func TestBuildCall_NonceIsTheOnlyDifference(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)

	a, err := BuildCall(token, recipient, 1, "foo", big.NewInt(9))
	require.NoError(t, err)
	b, err := BuildCall(token, recipient, 2, "foo", big.NewInt(9))
	require.NoError(t, err)

	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.SigningHash(), b.SigningHash())

	b.Nonce = a.Nonce
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.LegacyTx().Hash(), b.LegacyTx().Hash())
}

func TestBuildCall_LookupErrors(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)

	t.Run("missing function", func(t *testing.T) {
		tx, err := BuildCall(token, recipient, 0, "bar")
		assert.Nil(t, tx)

		var lookupErr *wserrors.LookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, "bar", lookupErr.Name)
		assert.False(t, lookupErr.Ambiguous())
	})

	t.Run("ambiguous function", func(t *testing.T) {
		_, err := BuildCall(token, recipient, 0, "mint", big.NewInt(1))

		var lookupErr *wserrors.LookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, []string{"mint(uint256)", "mint(uint256,address)"}, lookupErr.Candidates)
	})

	t.Run("overload by signature", func(t *testing.T) {
		tx, err := BuildCall(token, recipient, 0, "mint(uint256,address)", big.NewInt(1), recipient)
		require.NoError(t, err)
		assert.Equal(t, Selector("mint(uint256,address)"), tx.Data[:4])
	})

	t.Run("signature with spaces", func(t *testing.T) {
		tx, err := BuildCall(token, recipient, 0, " mint( uint256, address )", big.NewInt(1), recipient)
		require.NoError(t, err)
		assert.Equal(t, Selector("mint(uint256,address)"), tx.Data[:4])
	})
}

func TestBuild_NilArtifact(t *testing.T) {
	tx, err := BuildDeploy(nil, 0)
	assert.Nil(t, tx)
	var encErr *wserrors.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "constructor", encErr.Target)
	assert.ErrorIs(t, err, errNilArtifact)

	tx, err = BuildCall(nil, recipient, 0, "randomSeed")
	assert.Nil(t, tx)
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "randomSeed", encErr.Target)
	assert.True(t, wserrors.IsCode(err, wserrors.ErrCodeEncoding))
}

func TestBuildCall_EncodingErrors(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)

	_, err := BuildCall(token, recipient, 0, "transfer", recipient)
	var encErr *wserrors.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "transfer(address,uint256)", encErr.Target)
	assert.Equal(t, 2, encErr.Expected)
	assert.Equal(t, 1, encErr.Actual)

	_, err = BuildCall(token, recipient, 0, "transfer", "not-an-address", big.NewInt(1))
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "#0 address to", encErr.Param)
}

func TestBuildCall_Concurrent(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)
	reference, err := BuildCall(token, recipient, 0, "foo", big.NewInt(77))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*UnsignedTransaction, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := BuildCall(token, recipient, 0, "foo", big.NewInt(77))
			if err == nil {
				results[i] = tx
			}
		}(i)
	}
	wg.Wait()

	for _, tx := range results {
		require.NotNil(t, tx)
		assert.True(t, bytes.Equal(reference.Data, tx.Data))
	}
}

func TestUnsignedTransaction_LegacyTx(t *testing.T) {
	token := mustArtifact(t, "Token", tokenABI, tokenCode)
	utx, err := BuildCall(token, recipient, 5, "foo", big.NewInt(1))
	require.NoError(t, err)

	tx := utx.LegacyTx()
	assert.Equal(t, uint8(0), tx.Type())
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, uint64(math.MaxUint64), tx.Gas())
	assert.Zero(t, tx.GasPrice().Sign())
	assert.Zero(t, tx.Value().Sign())
	assert.Equal(t, recipient, *tx.To())
	assert.Equal(t, utx.Data, tx.Data())

	tx.To()[0] = 0xff
	assert.Equal(t, recipient, *utx.To)
}

func TestDeployedContract(t *testing.T) {
	random := mustArtifact(t, "Random", randomABI, randomCode)

	_, err := NewDeployedContract(random, ethcommon.Address{})
	assert.ErrorContains(t, err, "contract address is required")
	_, err = NewDeployedContract(nil, recipient)
	assert.ErrorContains(t, err, "artifact is required")

	contract, err := NewDeployedContract(random, recipient)
	require.NoError(t, err)
	assert.Equal(t, recipient, contract.Address())

	tx, err := contract.CallTransaction(4, "randomSeed")
	require.NoError(t, err)
	assert.Equal(t, recipient, *tx.To)
	assert.Equal(t, uint64(4), tx.Nonce)

	seed := ethcommon.HexToHash("0xabcdef")
	out, err := contract.Unpack("randomSeed", seed.Bytes())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, [32]byte(seed), out[0])
}

func assertSandboxPolicy(t *testing.T, tx *UnsignedTransaction) {
	t.Helper()
	assert.Equal(t, LocalChainID, tx.ChainID)
	assert.Zero(t, tx.GasPrice.Sign())
	assert.Zero(t, tx.Value.Sign())
	assert.Equal(t, uint64(math.MaxUint64), tx.Gas)
}
