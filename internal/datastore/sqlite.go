package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements the catalog on a local SQLite database.
type SQLiteStore struct {
	DataStore
	Path string
}

// New creates a catalog store backed by the SQLite database at path.
func New(path string) *SQLiteStore {
	return &SQLiteStore{Path: path}
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	if err := os.MkdirAll(filepath.Dir(store.Path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(store.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.AutoMigrate(&Recording{}); err != nil {
		return fmt.Errorf("migrating recordings schema: %w", err)
	}

	store.DB = db
	return nil
}

// Close releases the underlying database connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	db, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("getting underlying database: %w", err)
	}
	return db.Close()
}
