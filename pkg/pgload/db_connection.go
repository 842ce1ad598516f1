package pgload

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection is the handle to the warehouse that is passed explicitly to
// every component that talks to the database. Units of work acquire a
// dedicated connection and release it when done.
//
// Thread-Safety: Implementations should follow their underlying connection's
// thread-safety guarantees. Connection pool implementations are typically safe
// for concurrent use.
type DBConnection interface {
	// Acquire obtains a dedicated connection from the pool.
	// Caller must call Release() on the returned PooledConnection when done.
	Acquire(ctx context.Context) (PooledConnection, error)
}

// PooledConnection represents a connection acquired from a pool.
// The caller must call Release() when done to return it to the pool.
type PooledConnection interface {
	// Query runs a parameterized query on this connection.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// CopyFrom streams r to the server as the input of a COPY ... FROM STDIN
	// statement and returns the command tag of the completed COPY.
	CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error)

	// Release returns the connection to the pool.
	// After calling Release, the connection should not be used.
	Release()
}

// Rows is the subset of pgx.Rows used to read query results.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}
