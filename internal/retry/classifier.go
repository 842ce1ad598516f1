package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes that indicate the server may accept a later attempt.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
var transientClasses = []string{
	"08", // connection exception
	"53", // insufficient resources (too_many_connections, ...)
	"57", // operator intervention (admin_shutdown, cannot_connect_now, ...)
}

// transientMessages are matched case-insensitively against errors that carry
// no SQLSTATE, which is how pgconn reports most dial failures.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"the database system is starting up",
}

// PostgreSQLErrorClassifier decides whether a failed connection attempt is
// worth repeating. Authentication and catalog errors are fatal.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, class := range transientClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	if transient, matched := classifyNetworkError(err); matched {
		return transient
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// classifyNetworkError inspects typed DNS and socket errors. When matched is
// true the verdict is final and message patterns are not consulted. DNS
// errors always match; socket errors match only when recognised as transient.
func classifyNetworkError(err error) (transient, matched bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return true, true
		}
	}

	return false, false
}
