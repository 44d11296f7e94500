package txbuilder

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cast"

	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
)

// ParseArgs converts textual arguments (as typed on a command line) into the Go
// values expected by the ABI encoder for the given parameters. Only elementary
// types are supported.
func ParseArgs(target string, inputs abi.Arguments, raw []string) ([]interface{}, error) {
	if len(raw) != len(inputs) {
		return nil, &wserrors.EncodingError{Target: target, Expected: len(inputs), Actual: len(raw)}
	}

	values := make([]interface{}, len(raw))
	for i, input := range inputs {
		value, err := parseValue(input.Type, strings.TrimSpace(raw[i]))
		if err != nil {
			return nil, &wserrors.EncodingError{Target: target, Param: paramLabel(i, input), Cause: err}
		}
		values[i] = value
	}
	return values, nil
}

func parseValue(t abi.Type, s string) (interface{}, error) {
	switch t.T {
	case abi.UintTy:
		return parseUint(t, s)
	case abi.IntTy:
		return parseInt(t, s)
	case abi.BoolTy:
		return cast.ToBoolE(s)
	case abi.StringTy:
		return s, nil
	case abi.AddressTy:
		if !ethcommon.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return ethcommon.HexToAddress(s), nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

func parseUint(t abi.Type, s string) (interface{}, error) {
	if t.Size > 64 || !isNativeWidth(t.Size) {
		v, ok := new(big.Int).SetString(s, 0)
		if !ok || v.Sign() < 0 || v.BitLen() > t.Size {
			return nil, fmt.Errorf("invalid %s value %q", t.String(), s)
		}
		return v, nil
	}

	v, err := cast.ToUint64E(s)
	if err != nil {
		return nil, err
	}
	if t.Size < 64 && v>>uint(t.Size) != 0 {
		return nil, fmt.Errorf("value %d overflows %s", v, t.String())
	}
	return reflect.ValueOf(v).Convert(t.GetType()).Interface(), nil
}

func parseInt(t abi.Type, s string) (interface{}, error) {
	if t.Size > 64 || !isNativeWidth(t.Size) {
		v, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid %s value %q", t.String(), s)
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("value %s overflows %s", v, t.String())
		}
		return v, nil
	}

	v, err := cast.ToInt64E(s)
	if err != nil {
		return nil, err
	}
	if t.Size < 64 {
		limit := int64(1) << uint(t.Size-1)
		if v >= limit || v < -limit {
			return nil, fmt.Errorf("value %d overflows %s", v, t.String())
		}
	}
	return reflect.ValueOf(v).Convert(t.GetType()).Interface(), nil
}

// isNativeWidth reports whether go-ethereum maps the integer width to a Go
// integer type instead of *big.Int.
func isNativeWidth(size int) bool {
	return size == 8 || size == 16 || size == 32 || size == 64
}
