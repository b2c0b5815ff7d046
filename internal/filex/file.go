// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SQLitePath extracts the database file path from a SQLite DSN such as
// "site.db" or "file:data/site.db?_pragma=foreign_keys(1)". In-memory
// databases yield "".
func SQLitePath(dsn string) string {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return path
}

// EnsureSQLiteDir creates the directory that will hold the SQLite database
// named by dsn, so a fresh deployment can point at a not yet existing
// data directory. It is a no-op for in-memory databases.
func EnsureSQLiteDir(dsn string) error {
	path := SQLitePath(dsn)
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
