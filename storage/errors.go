package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoAdapter = errors.New("no adapter registered for connection type")
	ErrNoDriver  = errors.New("no driver registered for dialect")

	// ErrUnavailable marks failures of the backing store itself (network,
	// disk, locking). It is distinct from an empty result.
	ErrUnavailable = errors.New("storage unavailable")
)

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds. A nil
// err stays nil.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// IsRetriable reports transient conflicts worth retrying: serialization
// failures from postgres-compatible stores and sqlite lock contention.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "restart transaction") ||
		strings.Contains(msg, "serialization failure") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
