package sandbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
)

var genesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	w, err := New(Config{
		BlockInterval: 2 * time.Second,
		GenesisTime:   genesisTime,
		Seed:          []byte("seed"),
	}, zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestValidAccountID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"aurora.test.near", true},
		{"owner.test.near", true},
		{"a-b_c.near", true},
		{"ab", true},
		{"a", false},
		{"", false},
		{"Upper.near", false},
		{"double..dot", false},
		{".leading", false},
		{"trailing.", false},
		{"dash-.near", false},
		{"-dash.near", false},
		{"with space", false},
		{"a234567890123456789012345678901234567890123456789012345678901234", true},
		{"a2345678901234567890123456789012345678901234567890123456789012345", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidAccountID(tt.id))
		})
	}
}

func TestCreateTopLevelAccount(t *testing.T) {
	w := newTestWorker(t)

	acc, err := w.CreateTopLevelAccount("aurora.test.near")
	require.NoError(t, err)
	assert.Equal(t, "aurora.test.near", acc.ID())
	assert.Equal(t, uint64(0), acc.CreatedAt())
	assert.Empty(t, acc.Contract())

	pub, err := ParsePublicKey(acc.PublicKey())
	require.NoError(t, err)
	assert.Len(t, pub, 32)
	assert.Contains(t, acc.SecretKey(), "ed25519:")

	sig := acc.Sign([]byte("payload"))
	assert.True(t, acc.Verify([]byte("payload"), sig))
	assert.False(t, acc.Verify([]byte("other"), sig))

	found, err := w.Account("aurora.test.near")
	require.NoError(t, err)
	assert.Same(t, acc, found)

	_, err = w.CreateTopLevelAccount("aurora.test.near")
	require.Error(t, err)
	assert.True(t, wserrors.IsCode(err, wserrors.ErrCodeSandbox))
	assert.Contains(t, err.Error(), "already exists")

	_, err = w.CreateTopLevelAccount("Not Valid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid account id")

	_, err = w.Account("missing.test.near")
	assert.ErrorContains(t, err, "does not exist")

	_, err = w.CreateTopLevelAccount("owner.test.near")
	require.NoError(t, err)
	assert.Equal(t, []string{"aurora.test.near", "owner.test.near"}, w.Accounts())
}

func TestParsePublicKey_Errors(t *testing.T) {
	for _, key := range []string{"", "ed25519:", "secp256k1:abc", "ed25519:0OIl", "ed25519:3yZe7d"} {
		_, err := ParsePublicKey(key)
		assert.Error(t, err, key)
	}
}

func TestProduceBlockAndFastForward(t *testing.T) {
	w := newTestWorker(t)

	genesis := w.Head()
	assert.Equal(t, uint64(0), genesis.Height)
	assert.Equal(t, genesisTime, genesis.Time)

	next, err := w.ProduceBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Height)
	assert.Equal(t, genesisTime.Add(2*time.Second), next.Time)
	assert.NotEqual(t, genesis.Random, next.Random)
	assert.NotEqual(t, genesis.Hash, next.Hash)

	require.NoError(t, w.FastForward(context.Background(), 10))
	head := w.Head()
	assert.Equal(t, uint64(11), head.Height)
	assert.Equal(t, genesisTime.Add(22*time.Second), head.Time)

	require.NoError(t, w.FastForward(context.Background(), 0))
	assert.Equal(t, head, w.Head())
}

func TestPendingAndCommitBlock(t *testing.T) {
	w := newTestWorker(t)
	genesis := w.Head()

	pending, err := w.PendingBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pending.Height)
	assert.Equal(t, genesis, w.Head(), "pending block is not appended")

	again, err := w.PendingBlock()
	require.NoError(t, err)
	assert.Equal(t, pending, again)

	require.NoError(t, w.CommitBlock(pending))
	assert.Equal(t, pending, w.Head())
	hash, ok := w.BlockHash(1)
	require.True(t, ok)
	assert.Equal(t, pending.Hash, hash)

	t.Run("stale after the chain moved", func(t *testing.T) {
		stale, err := w.PendingBlock()
		require.NoError(t, err)
		_, err = w.ProduceBlock()
		require.NoError(t, err)

		err = w.CommitBlock(stale)
		require.Error(t, err)
		assert.True(t, wserrors.IsCode(err, wserrors.ErrCodeSandbox))
		assert.Equal(t, uint64(2), w.Head().Height)
	})

	t.Run("matches ProduceBlock", func(t *testing.T) {
		other := newTestWorker(t)
		p, err := other.PendingBlock()
		require.NoError(t, err)
		produced, err := newTestWorker(t).ProduceBlock()
		require.NoError(t, err)
		assert.Equal(t, produced, p)
	})
}

func TestRandomnessIsSeeded(t *testing.T) {
	a := newTestWorker(t)
	b := newTestWorker(t)

	require.NoError(t, a.FastForward(context.Background(), 5))
	require.NoError(t, b.FastForward(context.Background(), 5))
	assert.Equal(t, a.Head(), b.Head())

	c, err := New(Config{GenesisTime: genesisTime}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotEqual(t, a.Head().Random, c.Head().Random)
}

func TestFastForwardCancelled(t *testing.T) {
	w := newTestWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.FastForward(ctx, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), w.Head().Height)
}

func TestDeployContract(t *testing.T) {
	w := newTestWorker(t)
	_, err := w.CreateTopLevelAccount("aurora.test.near")
	require.NoError(t, err)

	require.NoError(t, w.DeployContract("aurora.test.near", "evm"))
	acc, err := w.Account("aurora.test.near")
	require.NoError(t, err)
	assert.Equal(t, "evm", acc.Contract())
	assert.Equal(t, uint64(1), w.Head().Height)

	err = w.DeployContract("aurora.test.near", "evm")
	assert.ErrorContains(t, err, "already hosts contract")

	err = w.DeployContract("missing.test.near", "evm")
	assert.ErrorContains(t, err, "does not exist")
}

func TestClose(t *testing.T) {
	w := newTestWorker(t)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err := w.ProduceBlock()
	assert.ErrorContains(t, err, "sandbox is closed")
	assert.ErrorContains(t, w.FastForward(context.Background(), 1), "sandbox is closed")
	_, err = w.CreateTopLevelAccount("late.test.near")
	assert.ErrorContains(t, err, "sandbox is closed")
	_, err = w.PendingBlock()
	assert.ErrorContains(t, err, "sandbox is closed")
	assert.ErrorContains(t, w.CommitBlock(Head{Height: 1}), "sandbox is closed")

	// Reads still work after close.
	assert.Equal(t, uint64(0), w.Head().Height)
}

func TestConcurrentBlockProduction(t *testing.T) {
	w := newTestWorker(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := w.ProduceBlock()
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(200), w.Head().Height)
}

func TestBlockHashWindow(t *testing.T) {
	w := newTestWorker(t)

	genesis := w.Head()
	hash, ok := w.BlockHash(0)
	require.True(t, ok)
	assert.Equal(t, genesis.Hash, hash)

	require.NoError(t, w.FastForward(context.Background(), 300))

	_, ok = w.BlockHash(0)
	assert.False(t, ok, "genesis falls out of the window")
	_, ok = w.BlockHash(44)
	assert.False(t, ok)

	hash, ok = w.BlockHash(300)
	require.True(t, ok)
	assert.Equal(t, w.Head().Hash, hash)

	_, ok = w.BlockHash(45)
	assert.True(t, ok)
	_, ok = w.BlockHash(301)
	assert.False(t, ok)
}
