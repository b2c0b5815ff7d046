package sessions

import (
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/dberr"
)

var postgresQueries = &queries{
	insert: `INSERT INTO sessions (id, user_id, ip_address, user_agent, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
	getByID: `SELECT id, user_id, ip_address, user_agent, created_at, expires_at
		 FROM sessions
		 WHERE id = $1`,
	deleteByID: `DELETE FROM sessions WHERE id = $1`,
	listByUser: `SELECT id, user_id, ip_address, user_agent, created_at, expires_at
		 FROM sessions
		 WHERE user_id = $1 AND (expires_at = 0 OR expires_at > $2)
		 ORDER BY created_at DESC, id`,
	deleteByUserExcept: `DELETE FROM sessions WHERE user_id = $1 AND id <> $2`,
	deleteExpired:      `DELETE FROM sessions WHERE expires_at <= $1`,
}

// NewPostgresRepository constructs a PostgreSQL-backed repository bound to db.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries, classify: dberr.Postgres}
}
