// Package store contains GORM-backed SQLite models for the run journal.
//
// Database Structure (database file: journal.db):
//
//	databases/
//	└── journal.db
//	    └── submitted_transactions
package store

import (
	"gorm.io/gorm"
)

// Transaction kinds.
const (
	KindDeploy = "deploy"
	KindCall   = "call"
)

// Status recorded for submissions that never produced an execution status.
const StatusError = "error"

// SubmittedTransaction records one transaction submitted to the engine during
// a run.
type SubmittedTransaction struct {
	gorm.Model
	RunID    string `gorm:"uniqueIndex:idx_run_tx_hash;not null"`       // Run the submission belongs to
	TxHash   string `gorm:"uniqueIndex:idx_run_tx_hash;index;not null"` // Signed transaction hash
	Kind     string `gorm:"index"`                                      // "deploy" or "call"
	Method   string // Called method; empty for deploys
	Nonce    uint64
	Sender   string
	To       string // Empty for deploys
	Contract string // Address created by a successful deploy
	Status   string `gorm:"index"` // "succeed", "revert", ..., or "error"
	Output   string // Hex encoded return data
	GasUsed  uint64
	Block    uint64
	ErrorMsg string `gorm:"type:text"` // Error message if submission failed
}
