package errors

import "fmt"

var (
	// Relay errors, reported only to the offending connection.
	ErrUnauthenticated    = fmt.Errorf("missing or invalid token")
	ErrNotParticipant     = fmt.Errorf("sender is not a participant of the conversation")
	ErrInvalidPayload     = fmt.Errorf("invalid message payload")
	ErrNotFound           = fmt.Errorf("conversation not found")
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")

	// Account errors.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Runtime errors.
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEngineBusy  = fmt.Errorf("command channel full")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
