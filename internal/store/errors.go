package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrPersistence matches any *PersistenceError.
	ErrPersistence = errors.New("persistence failure")

	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("already exists")
)

// NotFoundError reports a missing row.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError wraps a driver failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func notFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
