package db

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// PoolAdapter adapts *pgxpool.Pool to the pgload.DBConnection interface so
// loader code never sees pgx pool types.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Acquire obtains a dedicated connection from the pool.
func (p *PoolAdapter) Acquire(ctx context.Context) (pgload.PooledConnection, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pooledConnAdapter{conn: conn}, nil
}

// Close closes the underlying pool.
func (p *PoolAdapter) Close() {
	p.pool.Close()
}

// pooledConnAdapter adapts *pgxpool.Conn to implement pgload.PooledConnection.
type pooledConnAdapter struct {
	conn *pgxpool.Conn
}

func (p *pooledConnAdapter) Query(ctx context.Context, sql string, args ...any) (pgload.Rows, error) {
	return p.conn.Query(ctx, sql, args...)
}

// CopyFrom runs a raw COPY FROM STDIN on the underlying PgConn, so the server
// parses the text values itself.
func (p *pooledConnAdapter) CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
	return p.conn.Conn().PgConn().CopyFrom(ctx, r, sql)
}

func (p *pooledConnAdapter) Release() {
	p.conn.Release()
}

var _ pgload.DBConnection = (*PoolAdapter)(nil)
