package db

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pushchain/evm-workspace-demo/workspace/store"
)

// ErrNotFound is returned when a journal entry does not exist.
var ErrNotFound = errors.New("transaction not found")

// RecordTransaction inserts a journal entry.
func (d *DB) RecordTransaction(tx *store.SubmittedTransaction) error {
	if tx.RunID == "" || tx.TxHash == "" {
		return errors.New("run id and tx hash are required")
	}
	if err := d.client.Create(tx).Error; err != nil {
		return errors.Wrapf(err, "failed to record transaction %s", tx.TxHash)
	}
	return nil
}

// ListTransactions returns the entries of a run in submission order. An empty
// runID lists every run.
func (d *DB) ListTransactions(runID string) ([]store.SubmittedTransaction, error) {
	query := d.client.Order("id ASC")
	if runID != "" {
		query = query.Where("run_id = ?", runID)
	}

	var txs []store.SubmittedTransaction
	if err := query.Find(&txs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list transactions")
	}
	return txs, nil
}

// GetTransaction looks up an entry by transaction hash. Fresh sandboxes replay
// identical transactions, so the most recent entry wins.
func (d *DB) GetTransaction(hash string) (*store.SubmittedTransaction, error) {
	var tx store.SubmittedTransaction
	err := d.client.Where("tx_hash = ?", hash).Order("id DESC").First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "hash %s", hash)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get transaction %s", hash)
	}
	return &tx, nil
}

// CountByStatus returns how many entries of a run ended in each status.
func (d *DB) CountByStatus(runID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := d.client.Model(&store.SubmittedTransaction{}).
		Select("status, COUNT(*) AS count").
		Where("run_id = ?", runID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count transactions")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// DeleteOlderThan permanently removes entries created before cutoff and
// returns how many were removed.
func (d *DB) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := d.client.Unscoped().
		Where("created_at < ?", cutoff.UTC()).
		Delete(&store.SubmittedTransaction{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete old transactions")
	}
	return res.RowsAffected, nil
}
