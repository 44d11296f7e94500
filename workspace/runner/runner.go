// Package runner wires the sandbox, the engine and the transaction builder into
// the demo flow: deploy a contract, skip ahead a few blocks, then call it in a
// loop and print every result.
package runner

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pushchain/evm-workspace-demo/workspace/api"
	"github.com/pushchain/evm-workspace-demo/workspace/artifact"
	"github.com/pushchain/evm-workspace-demo/workspace/db"
	"github.com/pushchain/evm-workspace-demo/workspace/engine"
	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
	"github.com/pushchain/evm-workspace-demo/workspace/metrics"
	"github.com/pushchain/evm-workspace-demo/workspace/sandbox"
	"github.com/pushchain/evm-workspace-demo/workspace/signer"
	"github.com/pushchain/evm-workspace-demo/workspace/store"
	"github.com/pushchain/evm-workspace-demo/workspace/txbuilder"
)

const component = "runner"

// Result summarises a finished run.
type Result struct {
	RunID           string
	ContractAddress ethcommon.Address
	Outputs         [][]byte
}

// Runner executes the demo flow. Journal and metrics are optional.
type Runner struct {
	cfg     Config
	signer  *signer.Signer
	journal *db.DB
	metrics *metrics.Metrics
	out     io.Writer
	logger  zerolog.Logger

	mu       sync.RWMutex
	runID    string
	worker   *sandbox.Worker
	engine   *engine.Engine
	contract *txbuilder.DeployedContract
}

// New creates a runner. Results are printed to out.
func New(cfg Config, s *signer.Signer, journal *db.DB, m *metrics.Metrics, out io.Writer, logger zerolog.Logger) *Runner {
	if cfg.OutputLabel == "" {
		cfg.OutputLabel = DefaultOutputLabel
	}
	if cfg.SubmitRetry == nil {
		cfg.SubmitRetry = wserrors.DefaultRetryConfig()
	}
	return &Runner{
		cfg:     cfg,
		signer:  s,
		journal: journal,
		metrics: m,
		out:     out,
		logger:  logger.With().Str("component", component).Logger(),
	}
}

// Run starts a fresh sandbox and executes the whole flow. The sandbox stays
// up after Run returns so it can be inspected; Close shuts it down.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	// Deploy and call transactions are always signed for the local chain.
	if id := r.cfg.Init.ChainID; id != 0 && id != txbuilder.LocalChainID {
		return nil, wserrors.NewValidationError(component,
			fmt.Sprintf("engine chain id %d does not match transaction chain id %d", id, txbuilder.LocalChainID))
	}

	runID := uuid.NewString()
	logger := r.logger.With().Str("run_id", runID).Logger()

	worker, err := sandbox.New(sandbox.Config{BlockInterval: r.cfg.BlockInterval}, logger)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.worker != nil {
		_ = r.worker.Close()
	}
	r.runID, r.worker, r.engine, r.contract = runID, worker, nil, nil
	r.mu.Unlock()

	for _, id := range uniqueIDs(r.cfg.EngineAccountID, r.cfg.Init.OwnerID, r.cfg.Init.ProverID) {
		if _, err := worker.CreateTopLevelAccount(id); err != nil {
			return nil, err
		}
	}

	eng, err := engine.DeployAndInit(ctx, worker, r.cfg.EngineAccountID, r.cfg.Init, logger)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.engine = eng
	r.mu.Unlock()

	art, err := artifact.Load(r.cfg.AbiPath, r.cfg.BytecodePath)
	if err != nil {
		return nil, wserrors.WrapError(err, wserrors.ErrCodeValidation, component, "failed to load contract artifact")
	}

	contract, err := r.deploy(ctx, runID, eng, art)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.contract = contract
	r.mu.Unlock()

	logger.Info().
		Str("contract", contract.Address().Hex()).
		Str("artifact", art.Name()).
		Msg("contract deployed")

	if err := worker.FastForward(ctx, r.cfg.FastForwardBlocks); err != nil {
		return nil, err
	}
	r.setBlockHeight(worker)

	result := &Result{RunID: runID, ContractAddress: contract.Address()}
	for i := 0; i < r.cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		utx, err := contract.CallTransaction(eng.Nonce(r.signer.Address()), r.cfg.Method)
		if err != nil {
			return result, err
		}
		res, err := r.submit(ctx, runID, eng, store.KindCall, r.cfg.Method, utx)
		if err != nil {
			return result, err
		}
		if !res.Status.Succeed() {
			logger.Warn().
				Int("iteration", i).
				Stringer("status", res.Status).
				Msg("call did not succeed")
			continue
		}

		result.Outputs = append(result.Outputs, res.Status.Output)
		fmt.Fprintf(r.out, "%s: %s\n", r.cfg.OutputLabel, hex.EncodeToString(res.Status.Output))
	}

	if r.metrics != nil {
		r.metrics.RunCompleted()
	}
	logger.Info().
		Int("iterations", r.cfg.Iterations).
		Int("outputs", len(result.Outputs)).
		Msg("run completed")
	return result, nil
}

// deploy submits the creation transaction and binds the returned address.
func (r *Runner) deploy(ctx context.Context, runID string, eng *engine.Engine, art *artifact.ContractArtifact) (*txbuilder.DeployedContract, error) {
	utx, err := txbuilder.BuildDeploy(art, eng.Nonce(r.signer.Address()))
	if err != nil {
		return nil, err
	}

	res, err := r.submit(ctx, runID, eng, store.KindDeploy, "", utx)
	if err != nil {
		return nil, err
	}
	if !res.Status.Succeed() || len(res.Status.Output) != ethcommon.AddressLength {
		return nil, wserrors.NewTransactionError(component,
			fmt.Sprintf("deploy of %s failed: %s", art.Name(), res.Status), nil).
			WithContext("tx_hash", res.TxHash.Hex())
	}

	return txbuilder.NewDeployedContract(art, ethcommon.BytesToAddress(res.Status.Output))
}

// submit signs utx, submits it with retries and records the outcome.
func (r *Runner) submit(ctx context.Context, runID string, eng *engine.Engine, kind, method string, utx *txbuilder.UnsignedTransaction) (*engine.SubmitResult, error) {
	signed, err := r.signer.Sign(utx)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, wserrors.NewInternalError(component, "failed to encode transaction", err)
	}

	var res *engine.SubmitResult
	op := &wserrors.RetryOperation{
		Name: "submit " + kind,
		Fn: func() error {
			var submitErr error
			res, submitErr = eng.Submit(ctx, raw)
			return submitErr
		},
		Config: r.cfg.SubmitRetry,
		OnRetry: func(attempt int, err error) {
			r.logger.Warn().Err(err).Int("attempt", attempt).Str("kind", kind).Msg("retrying submission")
		},
	}
	submitErr := op.Execute(ctx)

	entry := &store.SubmittedTransaction{
		RunID:  runID,
		TxHash: signed.Hash().Hex(),
		Kind:   kind,
		Method: method,
		Nonce:  utx.Nonce,
		Sender: r.signer.Address().Hex(),
	}
	if utx.To != nil {
		entry.To = utx.To.Hex()
	}

	if submitErr != nil {
		r.logger.Error().
			Err(submitErr).
			Str("kind", kind).
			Str("severity", string(wserrors.GetSeverity(submitErr))).
			Msg("submission failed")
		entry.Status = store.StatusError
		entry.ErrorMsg = submitErr.Error()
		r.record(entry, 0)
		return nil, submitErr
	}

	entry.Status = res.Status.Kind.String()
	entry.GasUsed = res.GasUsed
	entry.Block = res.Block
	if len(res.Status.Output) > 0 {
		entry.Output = hexutil.Encode(res.Status.Output)
	}
	if res.ContractAddress != nil {
		entry.Contract = res.ContractAddress.Hex()
	}
	r.record(entry, res.GasUsed)
	r.setBlockHeight(nil)
	return res, nil
}

// record writes the journal entry and metrics. Journal failures are logged
// and do not abort the run.
func (r *Runner) record(entry *store.SubmittedTransaction, gasUsed uint64) {
	if r.metrics != nil {
		r.metrics.ObserveSubmission(entry.Kind, entry.Status, gasUsed)
	}
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordTransaction(entry); err != nil {
		r.logger.Error().Err(err).Str("tx_hash", entry.TxHash).Msg("failed to record transaction")
	}
}

func (r *Runner) setBlockHeight(worker *sandbox.Worker) {
	if r.metrics == nil {
		return
	}
	if worker == nil {
		r.mu.RLock()
		worker = r.worker
		r.mu.RUnlock()
	}
	if worker != nil {
		r.metrics.SetBlockHeight(worker.Head().Height)
	}
}

// Status reports the current run for the query API.
func (r *Runner) Status() api.StatusInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info := api.StatusInfo{
		RunID:           r.runID,
		ChainID:         r.cfg.Init.ChainID,
		EngineAccountID: r.cfg.EngineAccountID,
		Sender:          r.signer.Address().Hex(),
	}
	if r.worker != nil {
		head := r.worker.Head()
		info.BlockHeight = head.Height
		info.BlockTime = head.Time
		info.BlockHash = head.Hash.Hex()
	}
	if r.engine != nil {
		info.StateRoot = r.engine.StateRoot().Hex()
	}
	if r.contract != nil {
		info.ContractAddress = r.contract.Address().Hex()
	}
	return info
}

// Engine returns the engine of the current run, or nil before deployment.
func (r *Runner) Engine() *engine.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engine
}

// Close shuts down the sandbox of the last run.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.worker == nil {
		return nil
	}
	return r.worker.Close()
}

func uniqueIDs(ids ...string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
