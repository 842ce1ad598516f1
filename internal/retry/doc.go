// Package retry repeats connection establishment when the failure looks
// transient (server starting up, refused or reset sockets, connection
// limits). Inserts are never retried.
//
//	executor := retry.NewConnectionExecutor(logger)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
package retry
