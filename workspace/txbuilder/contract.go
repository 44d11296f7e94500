package txbuilder

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/pushchain/evm-workspace-demo/workspace/artifact"
)

// DeployedContract binds an artifact to the address returned by a successful
// deploy transaction.
type DeployedContract struct {
	artifact *artifact.ContractArtifact
	address  ethcommon.Address
}

// NewDeployedContract binds an artifact to an address. Callers must only create
// it after the deploy transaction reported success.
func NewDeployedContract(a *artifact.ContractArtifact, address ethcommon.Address) (*DeployedContract, error) {
	if a == nil {
		return nil, errNilArtifact
	}
	if address == (ethcommon.Address{}) {
		return nil, fmt.Errorf("contract address is required")
	}
	return &DeployedContract{artifact: a, address: address}, nil
}

// Address returns the contract address.
func (c *DeployedContract) Address() ethcommon.Address {
	return c.address
}

// Artifact returns the bound artifact.
func (c *DeployedContract) Artifact() *artifact.ContractArtifact {
	return c.artifact
}

// CallTransaction builds a call to method on the deployed contract.
func (c *DeployedContract) CallTransaction(nonce uint64, method string, args ...interface{}) (*UnsignedTransaction, error) {
	return BuildCall(c.artifact, c.address, nonce, method, args...)
}

// Unpack decodes the return data of method.
func (c *DeployedContract) Unpack(method string, output []byte) ([]interface{}, error) {
	fn, err := c.artifact.Function(method)
	if err != nil {
		return nil, err
	}
	return fn.Outputs.Unpack(output)
}
