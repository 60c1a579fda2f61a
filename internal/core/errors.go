package core

import "fmt"

// ValidationError reports a value or record the editor refused. Message is
// the validator's user-facing text.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// LockError represents a file locking error.
type LockError struct {
	Operation string
	Message   string
	Err       error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock %s: %s", e.Operation, e.Message)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// StorageError represents a failure to read or write saved records.
type StorageError struct {
	Operation string
	Message   string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("storage %s: %s", e.Operation, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
