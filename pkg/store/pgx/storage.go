// Package pgx implements the store interfaces on PostgreSQL. Vector
// similarity runs on pgvector; the knowledge graph lives in plain
// relational tables walked with recursive queries.
package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// VectorStorage implements store.VectorStore on a pgvector-enabled
// connection.
type VectorStorage struct {
	conn pgxIConn
}

// NewVectorStorage creates a VectorStorage using an existing connection or
// pool. The connection must have pgvector types registered.
func NewVectorStorage(conn pgxIConn) *VectorStorage {
	return &VectorStorage{conn: conn}
}

// GraphStorage implements store.GraphStore on the same database.
type GraphStorage struct {
	conn pgxIConn
}

// NewGraphStorage creates a GraphStorage using an existing connection or
// pool.
func NewGraphStorage(conn pgxIConn) *GraphStorage {
	return &GraphStorage{conn: conn}
}
