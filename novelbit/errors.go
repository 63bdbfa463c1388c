package novelbit

import (
	"context"
	"errors"

	"novelbit/storage"
)

var (
	ErrNoStorage          = errors.New("novelbit: no storage configured")
	ErrNoFingerprinter    = errors.New("novelbit: fingerprinter is nil")
	ErrEmptyPath          = errors.New("novelbit: empty attribute path")
	ErrEmptyText          = errors.New("novelbit: empty text")
	ErrInvalidFingerprint = errors.New("novelbit: fingerprint out of range")
	ErrTooLong            = errors.New("novelbit: text exceeds rune limit")
)

// storageErr marks err as a backing-store failure. Caller cancellation is
// passed through unchanged.
func storageErr(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	return storage.Unavailable(err)
}
