package users

import (
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/dberr"
)

var sqliteQueries = &queries{
	create: `INSERT INTO users (id, username, password_hash, email, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
	getByID: `SELECT id, username, password_hash, email, created_at FROM users
		 WHERE id = ?`,
	getByUsername: `SELECT id, username, password_hash, email, created_at FROM users
		 WHERE username = ?`,
	updateUsername:     `UPDATE users SET username = ? WHERE id = ?`,
	updatePasswordHash: `UPDATE users SET password_hash = ? WHERE id = ?`,
	updateEmail:        `UPDATE users SET email = ? WHERE id = ?`,
	delete:             `DELETE FROM users WHERE id = ?`,
}

// NewSQLiteRepository constructs a SQLite-backed repository bound to db.
// The connection must have foreign keys enabled for deletes to cascade.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries, classify: dberr.SQLite}
}
