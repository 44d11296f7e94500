// Package sandbox provides a disposable in-process chain: named accounts, a
// block height that only moves forward, and per-block randomness.
package sandbox

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
)

// Config configures a Worker.
type Config struct {
	// BlockInterval is the simulated time between two blocks.
	BlockInterval time.Duration
	// GenesisTime is the timestamp of block 0. Zero means now.
	GenesisTime time.Time
	// Seed derives the per-block randomness. Empty means a random seed.
	Seed []byte
}

// DefaultConfig returns a one second block interval starting now.
func DefaultConfig() Config {
	return Config{BlockInterval: time.Second}
}

// Head describes the latest block.
type Head struct {
	Height uint64
	Time   time.Time
	Random ethcommon.Hash
	Hash   ethcommon.Hash
}

// Worker is a handle to one sandbox network.
type Worker struct {
	mu       sync.RWMutex
	logger   zerolog.Logger
	interval time.Duration
	head     Head
	recent   map[uint64]ethcommon.Hash
	accounts map[string]*Account
	closed   bool
}

// blockHashWindow is how many recent block hashes stay queryable.
const blockHashWindow = 256

// New starts a sandbox at height 0.
func New(cfg Config, logger zerolog.Logger) (*Worker, error) {
	if cfg.BlockInterval <= 0 {
		cfg.BlockInterval = time.Second
	}
	if cfg.GenesisTime.IsZero() {
		cfg.GenesisTime = time.Now().UTC().Truncate(time.Second)
	}
	seed := cfg.Seed
	if len(seed) == 0 {
		seed = make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return nil, wserrors.NewSandboxError("failed to generate seed", err)
		}
	}

	genesis := Head{
		Height: 0,
		Time:   cfg.GenesisTime,
		Random: crypto.Keccak256Hash(seed),
	}
	genesis.Hash = blockHash(ethcommon.Hash{}, genesis)

	w := &Worker{
		logger:   logger.With().Str("component", "sandbox").Logger(),
		interval: cfg.BlockInterval,
		head:     genesis,
		recent:   map[uint64]ethcommon.Hash{0: genesis.Hash},
		accounts: make(map[string]*Account),
	}
	w.logger.Info().
		Time("genesis_time", genesis.Time).
		Dur("block_interval", cfg.BlockInterval).
		Msg("sandbox started")
	return w, nil
}

// Head returns the latest block.
func (w *Worker) Head() Head {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.head
}

// ProduceBlock appends one block and returns it.
func (w *Worker) ProduceBlock() (Head, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Head{}, errClosed()
	}
	w.advance()
	return w.head, nil
}

// PendingBlock returns the block ProduceBlock would append, without appending
// it. Pass it to CommitBlock once the block contents are final.
func (w *Worker) PendingBlock() (Head, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return Head{}, errClosed()
	}
	return w.next(), nil
}

// CommitBlock appends a block obtained from PendingBlock. It fails if the
// chain moved since.
func (w *Worker) CommitBlock(h Head) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errClosed()
	}
	if next := w.next(); next.Hash != h.Hash {
		return wserrors.NewSandboxError(
			fmt.Sprintf("stale pending block %d, head is at %d", h.Height, w.head.Height), nil)
	}
	w.commit(h)
	return nil
}

// FastForward skips blocks ahead. It stops early if ctx is cancelled.
func (w *Worker) FastForward(ctx context.Context, blocks uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errClosed()
	}

	start := w.head.Height
	for i := uint64(0); i < blocks; i++ {
		if err := ctx.Err(); err != nil {
			return wserrors.NewSandboxError(
				fmt.Sprintf("fast forward interrupted after %d of %d blocks", i, blocks), err)
		}
		w.advance()
	}
	w.logger.Debug().
		Uint64("from", start).
		Uint64("to", w.head.Height).
		Msg("fast forwarded")
	return nil
}

// advance must be called with mu held.
func (w *Worker) advance() {
	w.commit(w.next())
}

func (w *Worker) next() Head {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], w.head.Height+1)

	next := Head{
		Height: w.head.Height + 1,
		Time:   w.head.Time.Add(w.interval),
		Random: crypto.Keccak256Hash(w.head.Random.Bytes(), buf[:]),
	}
	next.Hash = blockHash(w.head.Hash, next)
	return next
}

func (w *Worker) commit(h Head) {
	w.head = h
	w.recent[h.Height] = h.Hash
	if h.Height >= blockHashWindow {
		delete(w.recent, h.Height-blockHashWindow)
	}
}

// BlockHash returns the hash of one of the last 256 blocks.
func (w *Worker) BlockHash(height uint64) (ethcommon.Hash, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	hash, ok := w.recent[height]
	return hash, ok
}

func blockHash(parent ethcommon.Hash, h Head) ethcommon.Hash {
	var meta [16]byte
	binary.BigEndian.PutUint64(meta[:8], h.Height)
	binary.BigEndian.PutUint64(meta[8:], uint64(h.Time.Unix()))
	return crypto.Keccak256Hash(parent.Bytes(), meta[:], h.Random.Bytes())
}

// CreateTopLevelAccount registers a new account with a fresh ed25519 key.
func (w *Worker) CreateTopLevelAccount(id string) (*Account, error) {
	if !ValidAccountID(id) {
		return nil, wserrors.NewSandboxError(fmt.Sprintf("invalid account id %q", id), nil).
			WithContext("account_id", id)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, wserrors.NewSandboxError("failed to generate account key", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, errClosed()
	}
	if _, exists := w.accounts[id]; exists {
		return nil, wserrors.NewSandboxError(fmt.Sprintf("account %s already exists", id), nil).
			WithContext("account_id", id)
	}

	acc := &Account{
		id:         id,
		publicKey:  pub,
		privateKey: priv,
		createdAt:  w.head.Height,
	}
	w.accounts[id] = acc

	w.logger.Info().
		Str("account_id", id).
		Str("public_key", acc.PublicKey()).
		Msg("account created")
	return acc, nil
}

// Account looks up an existing account.
func (w *Worker) Account(id string) (*Account, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	acc, ok := w.accounts[id]
	if !ok {
		return nil, wserrors.NewSandboxError(fmt.Sprintf("account %s does not exist", id), nil).
			WithContext("account_id", id)
	}
	return acc, nil
}

// Accounts returns all account ids in sorted order.
func (w *Worker) Accounts() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make([]string, 0, len(w.accounts))
	for id := range w.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeployContract marks the account as hosting contract. An account hosts at
// most one contract.
func (w *Worker) DeployContract(accountID, contract string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errClosed()
	}
	acc, ok := w.accounts[accountID]
	if !ok {
		return wserrors.NewSandboxError(fmt.Sprintf("account %s does not exist", accountID), nil).
			WithContext("account_id", accountID)
	}
	if acc.contract != "" {
		return wserrors.NewSandboxError(
			fmt.Sprintf("account %s already hosts contract %s", accountID, acc.contract), nil).
			WithContext("account_id", accountID)
	}
	acc.contract = contract
	w.advance()

	w.logger.Info().
		Str("account_id", accountID).
		Str("contract", contract).
		Uint64("height", w.head.Height).
		Msg("contract deployed")
	return nil
}

// Close shuts the sandbox down. Further mutations fail.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.logger.Info().Uint64("height", w.head.Height).Msg("sandbox stopped")
	return nil
}

func errClosed() error {
	return wserrors.NewSandboxError("sandbox is closed", nil)
}

func errInvalidKey(s string, cause error) error {
	return wserrors.NewSandboxError(fmt.Sprintf("invalid public key %q", s), cause)
}
