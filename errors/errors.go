package errors

import (
	stderrors "errors"
	"fmt"
)

// Roots of the error taxonomy. Every specific error below wraps one of them,
// so callers can branch with errors.Is on the family.
var (
	ErrValidation = fmt.Errorf("validation error")
	ErrConnection = fmt.Errorf("connection error")
	ErrServer     = fmt.Errorf("server error")
)

var (
	ErrEmptyUsername    = fmt.Errorf("%w: please enter a username", ErrValidation)
	ErrEmptyMessage     = fmt.Errorf("%w: message is empty", ErrValidation)
	ErrContentTooLong   = fmt.Errorf("%w: message content too long", ErrValidation)
	ErrAlreadyConnected = fmt.Errorf("%w: already connected or connecting", ErrValidation)
	ErrNotConnected     = fmt.Errorf("%w: not connected", ErrConnection)
	ErrConnectionLost   = fmt.Errorf("%w: connection lost", ErrConnection)
)

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrInvalidPayload   = fmt.Errorf("invalid payload")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTranscriptClosed = fmt.Errorf("transcript is disabled")
	ErrEntryNotFound    = fmt.Errorf("transcript entry not found")
)

// Is forwards to the standard library so callers need a single errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }
