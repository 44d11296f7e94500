// Package txbuilder turns a deploy or call intent plus contract metadata into
// an unsigned legacy transaction. Builders are pure: no I/O, no logging, no
// shared state, safe for concurrent use.
package txbuilder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pushchain/evm-workspace-demo/workspace/artifact"
	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
)

var errNilArtifact = errors.New("contract artifact is required")

// BuildDeploy builds a contract creation transaction. The payload is the
// artifact bytecode followed by the ABI-encoded constructor arguments. An
// artifact without a constructor takes zero arguments.
func BuildDeploy(a *artifact.ContractArtifact, nonce uint64, args ...interface{}) (*UnsignedTransaction, error) {
	if a == nil {
		return nil, &wserrors.EncodingError{Target: "constructor", Cause: errNilArtifact}
	}
	ctor := a.Constructor()
	encoded, err := encodeArguments(constructorSignature(ctor.Inputs), ctor.Inputs, args)
	if err != nil {
		return nil, err
	}

	data := append(a.Bytecode(), encoded...)
	return newSandboxTransaction(nonce, nil, data), nil
}

// BuildCall builds a call to a function of a deployed contract. method is a bare
// function name that must match exactly one function, or a canonical signature
// such as "add(uint256)". The payload is the 4-byte selector followed by the
// ABI-encoded arguments.
func BuildCall(a *artifact.ContractArtifact, to ethcommon.Address, nonce uint64, method string, args ...interface{}) (*UnsignedTransaction, error) {
	if a == nil {
		return nil, &wserrors.EncodingError{Target: method, Cause: errNilArtifact}
	}
	fn, err := a.Function(method)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeArguments(fn.Sig, fn.Inputs, args)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(fn.ID)+len(encoded))
	data = append(data, fn.ID...)
	data = append(data, encoded...)

	dest := to
	return newSandboxTransaction(nonce, &dest, data), nil
}

// Selector returns the 4-byte selector of a canonical function signature.
func Selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// encodeArguments type-checks each value against its declared parameter before
// packing, so failures name the offending parameter.
func encodeArguments(target string, inputs abi.Arguments, args []interface{}) ([]byte, error) {
	if len(args) != len(inputs) {
		return nil, &wserrors.EncodingError{Target: target, Expected: len(inputs), Actual: len(args)}
	}
	for i, input := range inputs {
		if _, err := (abi.Arguments{input}).Pack(args[i]); err != nil {
			return nil, &wserrors.EncodingError{
				Target: target,
				Param:  paramLabel(i, input),
				Cause:  err,
			}
		}
	}

	encoded, err := inputs.Pack(args...)
	if err != nil {
		return nil, &wserrors.EncodingError{Target: target, Cause: err}
	}
	return encoded, nil
}

func paramLabel(i int, input abi.Argument) string {
	if input.Name != "" {
		return fmt.Sprintf("#%d %s %s", i, input.Type.String(), input.Name)
	}
	return fmt.Sprintf("#%d %s", i, input.Type.String())
}

func constructorSignature(inputs abi.Arguments) string {
	types := make([]string, len(inputs))
	for i, input := range inputs {
		types[i] = input.Type.String()
	}
	return "constructor(" + strings.Join(types, ",") + ")"
}
