package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors for the storage layer. Callers match with errors.Is.
var (
	// ErrInitialization means the datastore or its dataset could not be prepared.
	ErrInitialization = errors.New("initialization failed")
	// ErrInvalidArgument means the caller supplied an unusable parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound means an explicitly requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistence means an underlying read or write failed.
	ErrPersistence = errors.New("persistence failure")
)

// MapError converts driver-level errors into the package sentinels, keeping
// entity and key in the message. Context cancellation passes through wrapped
// so callers can still match on it.
func MapError(err error, entity string, key interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, key, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, key, ErrNotFound)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintNotNull,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%s %v: %w: %v", entity, key, ErrInvalidArgument, err)
		case sqliteErr.Code == sqlite3.ErrNotADB,
			sqliteErr.Code == sqlite3.ErrCorrupt:
			return fmt.Errorf("%s %v: %w: %v", entity, key, ErrInitialization, err)
		}
	}
	return fmt.Errorf("%s %v: %w: %v", entity, key, ErrPersistence, err)
}
