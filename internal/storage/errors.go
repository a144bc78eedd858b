package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no matching record exists in a partition.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence wraps conflict and I/O failures from the storage engine.
	ErrPersistence = errors.New("persistence error")
	// ErrNotInitialized is returned by Load when a partition has never been set up.
	ErrNotInitialized = errors.New("storage not initialized, run 'dcalt init' first")
)

// Persistence wraps err as an ErrPersistence, keeping the cause in the message.
// ErrNotFound and nil pass through unchanged.
func Persistence(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
