package api

import "github.com/pushchain/evm-workspace-demo/workspace/store"

// StatusProvider reports the state of the running workspace.
type StatusProvider interface {
	Status() StatusInfo
}

// JournalReader reads submitted transactions.
type JournalReader interface {
	ListTransactions(runID string) ([]store.SubmittedTransaction, error)
	GetTransaction(hash string) (*store.SubmittedTransaction, error)
}
