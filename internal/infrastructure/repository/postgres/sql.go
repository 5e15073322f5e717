package postgres

import (
	"database/sql"
	"strings"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// Transaction-pooling proxies (pgbouncer) discard unnamed prepared
// statements between requests, which surfaces as one of the two pq
// protocol errors below. Both are safe to retry on a fresh statement.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "bind message supplies") && strings.Contains(msg, "parameters")
}

func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unnamed prepared statement does not exist") || strings.Contains(msg, "(26000)")
}

func isRetryableStatementError(err error) bool {
	return isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err)
}
