package service

import (
	"errors"
	"fmt"
)

// ValidationError is a synchronous, caller-visible rejection of a
// mutation (bad split amounts, unknown invite code, non-member payer).
// Validation failures never reach the local store or the outbox.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
