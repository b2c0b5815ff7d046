package sessions

import (
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/dberr"
)

var sqliteQueries = &queries{
	insert: `INSERT INTO sessions (id, user_id, ip_address, user_agent, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	getByID: `SELECT id, user_id, ip_address, user_agent, created_at, expires_at
		 FROM sessions
		 WHERE id = ?`,
	deleteByID: `DELETE FROM sessions WHERE id = ?`,
	listByUser: `SELECT id, user_id, ip_address, user_agent, created_at, expires_at
		 FROM sessions
		 WHERE user_id = ? AND (expires_at = 0 OR expires_at > ?)
		 ORDER BY created_at DESC, id`,
	deleteByUserExcept: `DELETE FROM sessions WHERE user_id = ? AND id <> ?`,
	deleteExpired:      `DELETE FROM sessions WHERE expires_at <= ?`,
}

// NewSQLiteRepository constructs a SQLite-backed repository bound to db.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries, classify: dberr.SQLite}
}
