// retry.go provides automatic retry logic for transient SQLite errors.
//
// WAL-mode SQLite can produce transient errors like SQLITE_BUSY,
// SQLITE_LOCKED, and IOERR_SHORT_READ (error 522) when a second process (a
// concurrent `tl` invocation, or the background saver racing a foreground
// read) touches the same database. The busy_timeout pragma handles
// SQLITE_BUSY at the connection level, but other transient errors need
// application-level retries.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// retryConfig controls retry behavior for transient SQLite errors.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// defaultRetryConfig is used for all store write operations.
var defaultRetryConfig = retryConfig{
	maxRetries: 3,
	baseDelay:  50 * time.Millisecond,
	maxDelay:   500 * time.Millisecond,
}

// isTransientSQLiteErr reports whether err is a lock or WAL contention error
// that a retry can resolve. Driver errors are classified by their SQLite
// result code: BUSY and LOCKED (with any extended code) and
// IOERR_SHORT_READ. Anything else, such as an error already flattened to
// text by a wrapper, falls back to matching the message.
func isTransientSQLiteErr(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return se.Code() == sqlite3.SQLITE_IOERR_SHORT_READ
	}

	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"IOERR_SHORT_READ",
		"database is locked",
		"database table is locked",
		"(5)",
		"(6)",
		"(522)",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// newBackoff builds exponential backoff capped at cfg.maxDelay, with up to
// cfg.baseDelay of jitter, stopping after cfg.maxRetries retries.
func newBackoff(cfg retryConfig) retry.Backoff {
	b := retry.NewExponential(cfg.baseDelay)
	b = retry.WithCappedDuration(cfg.maxDelay, b)
	b = retry.WithJitter(cfg.baseDelay, b)
	return retry.WithMaxRetries(uint64(cfg.maxRetries), b)
}

// retryOp executes fn, retrying transient errors with backoff. If fn succeeds
// or returns a non-transient error, it returns immediately.
func retryOp(cfg retryConfig, fn func() error) error {
	return retry.Do(context.Background(), newBackoff(cfg), func(_ context.Context) error {
		err := fn()
		if isTransientSQLiteErr(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
