package health

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// SQLiteChecker checks SQLite database connectivity.
type SQLiteChecker struct {
	db *sql.DB
}

// NewSQLiteChecker creates a new SQLite health checker.
func NewSQLiteChecker(db *sql.DB) *SQLiteChecker {
	return &SQLiteChecker{db: db}
}

// Name returns the checker name.
func (c *SQLiteChecker) Name() string {
	return "sqlite"
}

// Check verifies the SQLite database is accessible.
func (c *SQLiteChecker) Check(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.db.PingContext(ctx)
}

// FileStoreChecker checks that the attachment directory exists and is
// a directory.
type FileStoreChecker struct {
	dir string
}

// NewFileStoreChecker creates a new file store health checker.
func NewFileStoreChecker(dir string) *FileStoreChecker {
	return &FileStoreChecker{dir: dir}
}

// Name returns the checker name.
func (c *FileStoreChecker) Name() string {
	return "filestore"
}

// Check verifies the attachment directory is usable.
func (c *FileStoreChecker) Check(ctx context.Context) error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("stat file store: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("file store path is not a directory")
	}
	return nil
}
