// Package db keeps the run journal in SQLite through GORM: every transaction
// submitted to the engine together with its outcome.
package db

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pushchain/evm-workspace-demo/workspace/store"
)

const (
	// InMemorySQLiteDSN opens a journal that disappears with the process.
	InMemorySQLiteDSN = ":memory:"

	// fileDSNOptions enables WAL and waits on a locked file instead of failing.
	fileDSNOptions = "?_journal_mode=WAL&_busy_timeout=5000&mode=rwc"

	dirPermissions = 0o750
)

// DB is a handle on one journal database.
type DB struct {
	client *gorm.DB
	path   string
}

// OpenFileDB opens dir/filename, creating the directory and file if needed.
// migrateSchema creates or updates the journal table.
func OpenFileDB(dir, filename string, migrateSchema bool) (*DB, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to prepare database path %s", dir)
	}

	path := filepath.Join(dir, filename)
	d, err := open(path+fileDSNOptions, migrateSchema)
	if err != nil {
		return nil, err
	}
	d.path = path
	return d, nil
}

// OpenInMemoryDB opens a journal that lives only as long as the handle.
func OpenInMemoryDB(migrateSchema bool) (*DB, error) {
	return open(InMemorySQLiteDSN, migrateSchema)
}

func open(dsn string, migrateSchema bool) (*DB, error) {
	client, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SQLite database")
	}

	sqlDB, err := client.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	// One connection: an in-memory database is per connection, and SQLite
	// allows a single writer anyway.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if migrateSchema {
		if err := client.AutoMigrate(&store.SubmittedTransaction{}); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrap(err, "failed to migrate journal schema")
		}
	}

	return &DB{client: client}, nil
}

// Path returns the database file, or "" for an in-memory journal.
func (d *DB) Path() string {
	return d.path
}

// Client exposes the GORM handle for ad-hoc queries.
func (d *DB) Client() *gorm.DB {
	return d.client
}

// Close releases the connection. Closing twice is a no-op.
func (d *DB) Close() error {
	sqlDB, err := d.client.DB()
	if err != nil {
		return errors.Wrap(err, "failed to retrieve native sql.DB")
	}
	return errors.Wrap(sqlDB.Close(), "failed to close database connection")
}
