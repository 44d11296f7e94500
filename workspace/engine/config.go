package engine

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"

	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
	"github.com/pushchain/evm-workspace-demo/workspace/sandbox"
)

// ContractName is the name the engine registers on its host account.
const ContractName = "evm"

// EthProverConfig configures the bridge prover the engine trusts.
type EthProverConfig struct {
	AccountID           string
	EvmCustodianAddress string
}

// DefaultEthProverConfig returns the prover settings of a local network.
func DefaultEthProverConfig() *EthProverConfig {
	return &EthProverConfig{
		AccountID:           "prover.test.near",
		EvmCustodianAddress: "096DE9C2B8A5B8c22cEe3289B101f6960d68E51E",
	}
}

// InitConfig is passed to the engine when it is deployed.
type InitConfig struct {
	OwnerID         string
	ProverID        string
	EthProverConfig *EthProverConfig
	ChainID         uint64
}

// Validate checks account ids, the chain id and the optional prover config,
// reporting every invalid field.
func (c InitConfig) Validate() error {
	errs := wserrors.NewErrorGroup()
	if !sandbox.ValidAccountID(c.OwnerID) {
		errs.Add(invalidInit("owner_id", c.OwnerID))
	}
	if !sandbox.ValidAccountID(c.ProverID) {
		errs.Add(invalidInit("prover_id", c.ProverID))
	}
	if c.ChainID == 0 {
		errs.Add(wserrors.NewValidationError("engine", "chain id must not be zero"))
	}
	if p := c.EthProverConfig; p != nil {
		if !sandbox.ValidAccountID(p.AccountID) {
			errs.Add(invalidInit("eth_prover_config.account_id", p.AccountID))
		}
		if !ethcommon.IsHexAddress(p.EvmCustodianAddress) {
			errs.Add(invalidInit("eth_prover_config.evm_custodian_address", p.EvmCustodianAddress))
		}
	}
	return errs.ErrOrNil()
}

func invalidInit(field, value string) error {
	return wserrors.NewValidationError("engine", fmt.Sprintf("invalid %s %q", field, value)).
		WithContext("field", field)
}
