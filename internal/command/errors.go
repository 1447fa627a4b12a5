package command

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound is returned by login_student for an unknown login.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned by login_student on a password
	// mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// MalformedCommandError reports params that do not fit the command's
// shape. The executor records it and moves on to the next command.
type MalformedCommandError struct {
	Command string
	Err     error
}

func (e *MalformedCommandError) Error() string {
	return fmt.Sprintf("malformed %s command: %v", e.Command, e.Err)
}

func (e *MalformedCommandError) Unwrap() error {
	return e.Err
}

func malformed(name string, format string, args ...any) error {
	return &MalformedCommandError{Command: name, Err: fmt.Errorf(format, args...)}
}
