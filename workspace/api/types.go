package api

import (
	"time"

	"github.com/pushchain/evm-workspace-demo/workspace/store"
)

// QueryResponse represents the standard query response format
type QueryResponse struct {
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusInfo is returned by GET /api/v1/status.
type StatusInfo struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	ChainID         uint64    `json:"chain_id" yaml:"chain_id"`
	EngineAccountID string    `json:"engine_account_id" yaml:"engine_account_id"`
	ContractAddress string    `json:"contract_address,omitempty" yaml:"contract_address,omitempty"`
	Sender          string    `json:"sender" yaml:"sender"`
	BlockHeight     uint64    `json:"block_height" yaml:"block_height"`
	BlockTime       time.Time `json:"block_time" yaml:"block_time"`
	BlockHash       string    `json:"block_hash" yaml:"block_hash"`
	StateRoot       string    `json:"state_root" yaml:"state_root"`
}

// Transaction is the JSON form of a journal entry.
type Transaction struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	TxHash    string    `json:"tx_hash" yaml:"tx_hash"`
	Kind      string    `json:"kind" yaml:"kind"`
	Method    string    `json:"method,omitempty" yaml:"method,omitempty"`
	Nonce     uint64    `json:"nonce" yaml:"nonce"`
	Sender    string    `json:"sender" yaml:"sender"`
	To        string    `json:"to,omitempty" yaml:"to,omitempty"`
	Contract  string    `json:"contract,omitempty" yaml:"contract,omitempty"`
	Status    string    `json:"status" yaml:"status"`
	Output    string    `json:"output,omitempty" yaml:"output,omitempty"`
	GasUsed   uint64    `json:"gas_used" yaml:"gas_used"`
	Block     uint64    `json:"block" yaml:"block"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func newTransaction(tx store.SubmittedTransaction) Transaction {
	return Transaction{
		RunID:     tx.RunID,
		TxHash:    tx.TxHash,
		Kind:      tx.Kind,
		Method:    tx.Method,
		Nonce:     tx.Nonce,
		Sender:    tx.Sender,
		To:        tx.To,
		Contract:  tx.Contract,
		Status:    tx.Status,
		Output:    tx.Output,
		GasUsed:   tx.GasUsed,
		Block:     tx.Block,
		Error:     tx.ErrorMsg,
		CreatedAt: tx.CreatedAt,
	}
}
