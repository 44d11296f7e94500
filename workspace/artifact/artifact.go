// Package artifact loads compiled contract artifacts: a parsed ABI paired with
// the creation bytecode. Artifacts are read once at startup and never mutated.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	wserrors "github.com/pushchain/evm-workspace-demo/workspace/errors"
)

// ContractArtifact pairs a contract interface with its creation bytecode.
type ContractArtifact struct {
	name     string
	abi      abi.ABI
	bytecode []byte
}

// New creates an artifact from an already parsed ABI and raw bytecode.
func New(name string, contractABI abi.ABI, bytecode []byte) *ContractArtifact {
	return &ContractArtifact{
		name:     name,
		abi:      contractABI,
		bytecode: bytes.Clone(bytecode),
	}
}

// Parse creates an artifact from ABI JSON and hex-encoded bytecode text.
func Parse(name string, abiJSON []byte, bytecodeHex string) (*ContractArtifact, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}
	code, err := DecodeBytecode(bytecodeHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode for %s: %w", name, err)
	}
	return &ContractArtifact{name: name, abi: parsed, bytecode: code}, nil
}

// Load reads a JSON ABI file and a hex bytecode file. The artifact is named
// after the ABI file without its extension.
func Load(abiPath, bytecodePath string) (*ContractArtifact, error) {
	abiJSON, err := os.ReadFile(filepath.Clean(abiPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read ABI file: %w", err)
	}
	code, err := os.ReadFile(filepath.Clean(bytecodePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read bytecode file: %w", err)
	}
	return Parse(nameFromPath(abiPath), abiJSON, string(code))
}

// combinedArtifact is the Hardhat/Foundry output shape. Foundry nests the
// bytecode under "object".
type combinedArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// LoadCombined reads a single JSON artifact holding both "abi" and "bytecode".
func LoadCombined(path string) (*ContractArtifact, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}

	var raw combinedArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", path)
	}

	code, err := bytecodeField(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	name := raw.ContractName
	if name == "" {
		name = nameFromPath(path)
	}
	return Parse(name, raw.ABI, code)
}

func bytecodeField(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing bytecode")
	}
	var code string
	if err := json.Unmarshal(raw, &code); err == nil {
		return code, nil
	}
	var nested struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return "", fmt.Errorf("unsupported bytecode field: %w", err)
	}
	return nested.Object, nil
}

// DecodeBytecode decodes hex bytecode text, tolerating an optional 0x prefix and
// surrounding whitespace.
func DecodeBytecode(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		text = "0x" + text
	}
	if len(text) == 2 {
		return nil, fmt.Errorf("empty bytecode")
	}
	return hexutil.Decode(strings.ToLower(text))
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Name returns the contract name.
func (a *ContractArtifact) Name() string {
	return a.name
}

// ABI returns the parsed contract interface.
func (a *ContractArtifact) ABI() abi.ABI {
	return a.abi
}

// Bytecode returns a copy of the creation bytecode.
func (a *ContractArtifact) Bytecode() []byte {
	return bytes.Clone(a.bytecode)
}

// Constructor returns the declared constructor, or a zero-argument constructor
// when the ABI declares none.
func (a *ContractArtifact) Constructor() abi.Method {
	return a.abi.Constructor
}

// Function resolves a function by bare name or signature. A bare name must
// match exactly one function. Whitespace in a signature is ignored, so
// "mint(uint256, address)" resolves to "mint(uint256,address)".
func (a *ContractArtifact) Function(name string) (abi.Method, error) {
	if strings.Contains(name, "(") {
		sig := strings.Join(strings.Fields(name), "")
		for _, method := range a.abi.Methods {
			if method.Sig == sig {
				return method, nil
			}
		}
		return abi.Method{}, &wserrors.LookupError{Name: name}
	}

	var matches []abi.Method
	for _, method := range a.abi.Methods {
		if method.RawName == name {
			matches = append(matches, method)
		}
	}

	switch len(matches) {
	case 0:
		return abi.Method{}, &wserrors.LookupError{Name: name}
	case 1:
		return matches[0], nil
	default:
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, m.Sig)
		}
		sort.Strings(candidates)
		return abi.Method{}, &wserrors.LookupError{Name: name, Candidates: candidates}
	}
}

// Signatures lists the canonical signatures of all functions, sorted.
func (a *ContractArtifact) Signatures() []string {
	sigs := make([]string, 0, len(a.abi.Methods))
	for _, method := range a.abi.Methods {
		sigs = append(sigs, method.Sig)
	}
	sort.Strings(sigs)
	return sigs
}
