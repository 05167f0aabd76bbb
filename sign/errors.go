package sign

import (
	"errors"
	"fmt"
)

var (
	// ErrSignReqRejected is returned to the dapp when the user rejects a
	// request. The message is part of the dapp-visible contract and must not
	// change.
	ErrSignReqRejected = errors.New("User rejected the request.")

	// ErrInvalidState means an operation was attempted against a request that
	// is not in the status the operation requires.
	ErrInvalidState = errors.New("sign request is not in a valid state for this operation")

	// ErrRequestNotFound means the referenced request id is unknown to the
	// registry.
	ErrRequestNotFound = errors.New("sign request not found")

	// ErrUnknownKind means the request kind is outside the closed set handled
	// by the validator.
	ErrUnknownKind = errors.New("unknown sign request kind")
)

// ValidationError describes a malformed or incomplete payload detected at
// creation time. The request is never created.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SchemaError describes a typed-data payload failing EIP-712 structural
// checks. Handled like ValidationError.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string { return e.Message }

// invalidStateError wraps ErrInvalidState with the request's actual status so
// errors.Is(err, ErrInvalidState) keeps working.
func invalidStateError(id uint64, have, want Status) error {
	return fmt.Errorf("%w: request %d is %s, expected %s", ErrInvalidState, id, have, want)
}
