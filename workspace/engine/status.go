package engine

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
)

// StatusKind enumerates the outcomes of an executed transaction.
type StatusKind uint8

const (
	StatusSucceed StatusKind = iota
	StatusRevert
	StatusOutOfGas
	StatusOutOfFund
	StatusOutOfOffset
	StatusCallTooDeep
)

func (k StatusKind) String() string {
	switch k {
	case StatusSucceed:
		return "succeed"
	case StatusRevert:
		return "revert"
	case StatusOutOfGas:
		return "out_of_gas"
	case StatusOutOfFund:
		return "out_of_fund"
	case StatusOutOfOffset:
		return "out_of_offset"
	case StatusCallTooDeep:
		return "call_too_deep"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// TransactionStatus is the result of executing a transaction. Output is set
// for Succeed and Revert only.
type TransactionStatus struct {
	Kind   StatusKind
	Output []byte
}

// Succeed reports whether execution finished without error.
func (s TransactionStatus) Succeed() bool {
	return s.Kind == StatusSucceed
}

func (s TransactionStatus) String() string {
	if s.Kind == StatusSucceed || s.Kind == StatusRevert {
		return fmt.Sprintf("%s(%s)", s.Kind, hexutil.Encode(s.Output))
	}
	return s.Kind.String()
}

// statusFromError maps an EVM execution error onto a status. ok is false for
// errors that have no status of their own.
func statusFromError(err error, ret []byte) (TransactionStatus, bool) {
	switch {
	case err == nil:
		return TransactionStatus{Kind: StatusSucceed, Output: ret}, true
	case errors.Is(err, vm.ErrExecutionReverted):
		return TransactionStatus{Kind: StatusRevert, Output: ret}, true
	case errors.Is(err, vm.ErrOutOfGas),
		errors.Is(err, vm.ErrCodeStoreOutOfGas),
		errors.Is(err, vm.ErrGasUintOverflow):
		return TransactionStatus{Kind: StatusOutOfGas}, true
	case errors.Is(err, vm.ErrInsufficientBalance):
		return TransactionStatus{Kind: StatusOutOfFund}, true
	case errors.Is(err, vm.ErrReturnDataOutOfBounds):
		return TransactionStatus{Kind: StatusOutOfOffset}, true
	case errors.Is(err, vm.ErrDepth):
		return TransactionStatus{Kind: StatusCallTooDeep}, true
	default:
		return TransactionStatus{}, false
	}
}
