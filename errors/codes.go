package errors

import "errors"

// Code is the stable identifier sent to clients inside error frames.
// The wire protocol never leaks raw Go error strings.
type Code string

const (
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeNotParticipant     Code = "NOT_PARTICIPANT"
	CodeInvalidPayload     Code = "INVALID_PAYLOAD"
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// MapToCode translates a domain error into its wire code.
// Unknown errors collapse into CodeInternal so internals stay private.
func MapToCode(err error) Code {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrNotParticipant):
		return CodeNotParticipant
	case errors.Is(err, ErrInvalidPayload):
		return CodeInvalidPayload
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrStorageUnavailable):
		return CodeStorageUnavailable
	default:
		return CodeInternal
	}
}
