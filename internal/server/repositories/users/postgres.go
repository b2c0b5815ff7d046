package users

import (
	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/dberr"
)

var postgresQueries = &queries{
	create: `INSERT INTO users (id, username, password_hash, email, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
	getByID: `SELECT id, username, password_hash, email, created_at FROM users
		 WHERE id = $1`,
	getByUsername: `SELECT id, username, password_hash, email, created_at FROM users
		 WHERE username = $1`,
	updateUsername:     `UPDATE users SET username = $1 WHERE id = $2`,
	updatePasswordHash: `UPDATE users SET password_hash = $1 WHERE id = $2`,
	updateEmail:        `UPDATE users SET email = $1 WHERE id = $2`,
	delete:             `DELETE FROM users WHERE id = $1`,
}

// NewPostgresRepository constructs a PostgreSQL-backed repository bound to db.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries, classify: dberr.Postgres}
}
