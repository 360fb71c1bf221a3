package db

import (
	"context"
	"database/sql"
)

// Database owns a connection pool and the schema behind it.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	DB() *sql.DB
}
