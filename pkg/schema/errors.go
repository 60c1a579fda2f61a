package schema

import "fmt"

// ArgumentError reports a caller contract violation, such as a missing
// argument. It never describes a domain rule violation.
type ArgumentError struct {
	Op      string
	Arg     string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Arg != "" {
		return fmt.Sprintf("%s: argument %s: %s", e.Op, e.Arg, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// NewArgumentError builds an ArgumentError.
func NewArgumentError(op, arg, message string) *ArgumentError {
	return &ArgumentError{Op: op, Arg: arg, Message: message}
}

// UnsupportedFieldError is returned when no validator exists for a field and
// subject combination.
type UnsupportedFieldError struct {
	Field   string
	Subject SubjectKey
}

func (e *UnsupportedFieldError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("no validator for field %q and subject %q", e.Field, e.Subject)
	}
	return fmt.Sprintf("no validator for field %q", e.Field)
}
