// Package counter reads and atomically increments named counters kept in a
// key-value backend.
//
// A record is keyed by its name (the "stats" attribute) and holds any number
// of integer fields. Reads of a missing record or field yield zero and never
// create anything; increments create the record and field lazily.
package counter

import (
	"context"
	"errors"
	"fmt"
)

const (
	// KeyAttribute is the partition key attribute of a record.
	KeyAttribute = "stats"
	// CountField is the field Get reads.
	CountField = "count"
	// DefaultTable is used when no storage target is configured.
	DefaultTable = "PWebsiteStats"
)

var (
	// ErrBackendUnavailable marks every failure to reach or execute against
	// the backend. The underlying cause stays wrapped alongside it.
	ErrBackendUnavailable = errors.New("counter backend unavailable")

	ErrInvalidArgument = errors.New("invalid argument")
)

// Store is a counter backend. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the count field of the named record, 0 when absent.
	Get(ctx context.Context, name string) (int64, error)

	// Increment adds one to field of the named record using the backend's
	// atomic primitive and returns the new value.
	Increment(ctx context.Context, name, field string) (int64, error)

	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, op, err)
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty counter name", ErrInvalidArgument)
	}
	return nil
}

func checkField(name, field string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if field == "" {
		return fmt.Errorf("%w: empty field for %q", ErrInvalidArgument, name)
	}
	return nil
}
