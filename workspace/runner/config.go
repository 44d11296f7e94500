package runner

import (
	"strings"
	"time"

	"github.com/pushchain/evm-workspace-demo/workspace/config"
	"github.com/pushchain/evm-workspace-demo/workspace/engine"
	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
)

// DefaultOutputLabel prefixes every printed call result.
const DefaultOutputLabel = "Random seed"

// Config drives one demo run.
type Config struct {
	EngineAccountID string
	Init            engine.InitConfig

	AbiPath      string
	BytecodePath string

	Method            string
	Iterations        int
	FastForwardBlocks uint64
	OutputLabel       string

	BlockInterval time.Duration
	SubmitRetry   *wserrors.RetryConfig
}

// ConfigFromWorkspace maps the on-disk configuration onto a run.
func ConfigFromWorkspace(cfg config.Config) Config {
	var prover *engine.EthProverConfig
	if cfg.EthProverConfig.Enabled() {
		prover = &engine.EthProverConfig{
			AccountID:           cfg.EthProverConfig.AccountID,
			EvmCustodianAddress: strings.TrimPrefix(cfg.EthProverConfig.CustodianAddress, "0x"),
		}
	}

	retry := wserrors.DefaultRetryConfig()
	retry.MaxAttempts = cfg.SubmitMaxRetries

	return Config{
		EngineAccountID: cfg.EngineAccountID,
		Init: engine.InitConfig{
			OwnerID:         cfg.OwnerID,
			ProverID:        cfg.ProverID,
			EthProverConfig: prover,
			ChainID:         cfg.ChainID,
		},
		AbiPath:           cfg.AbiPath,
		BytecodePath:      cfg.BytecodePath,
		Method:            cfg.Method,
		Iterations:        cfg.Iterations,
		FastForwardBlocks: cfg.FastForwardBlocks,
		OutputLabel:       DefaultOutputLabel,
		BlockInterval:     time.Duration(cfg.BlockIntervalMs) * time.Millisecond,
		SubmitRetry:       retry,
	}
}
