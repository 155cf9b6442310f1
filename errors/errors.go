package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrAlreadyPaired   = fmt.Errorf("already paired")
	ErrNotInChat       = fmt.Errorf("not in a chat")
	ErrUnknownIdentity = fmt.Errorf("identity is not connected")
	ErrEmptyIdentity   = fmt.Errorf("identity is required")
	ErrInvalidIdentity = fmt.Errorf("identity contains a reserved character")
	ErrEmptyMessage    = fmt.Errorf("empty message")
	ErrMessageTooLong  = fmt.Errorf("message too long")
	ErrInvalidProfile  = fmt.Errorf("invalid profile")
	ErrProfileExists   = fmt.Errorf("profile already registered")
	ErrProfileNotFound = fmt.Errorf("profile not found")
	ErrPersistence     = fmt.Errorf("history write failed")
	ErrEmptyWords      = fmt.Errorf("no words have been found")
	ErrInvalidPayload  = fmt.Errorf("invalid payload")
)

// Kind is the failure class surfaced to callers.
type Kind string

const (
	KindInvalidState Kind = "InvalidState"
	KindNotFound     Kind = "NotFound"
	KindValidation   Kind = "ValidationError"
	KindConflict     Kind = "Conflict"
	KindPersistence  Kind = "TransientPersistenceFailure"
	KindInternal     Kind = "Internal"
)

// KindOf classifies err by walking its wrapped chain.
func KindOf(err error) Kind {
	switch {
	case Is(err, ErrAlreadyPaired), Is(err, ErrNotInChat):
		return KindInvalidState
	case Is(err, ErrUnknownIdentity), Is(err, ErrProfileNotFound):
		return KindNotFound
	case Is(err, ErrEmptyMessage), Is(err, ErrMessageTooLong),
		Is(err, ErrInvalidProfile), Is(err, ErrEmptyIdentity), Is(err, ErrInvalidIdentity), Is(err, ErrInvalidPayload):
		return KindValidation
	case Is(err, ErrProfileExists):
		return KindConflict
	case Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindInternal
	}
}

// Code returns the stable wire code carried by error events.
func Code(err error) string {
	switch {
	case Is(err, ErrAlreadyPaired):
		return "already_paired"
	case Is(err, ErrNotInChat):
		return "not_in_chat"
	case Is(err, ErrUnknownIdentity):
		return "unknown_identity"
	case Is(err, ErrEmptyIdentity):
		return "identity_required"
	case Is(err, ErrInvalidIdentity):
		return "invalid_identity"
	case Is(err, ErrEmptyMessage):
		return "empty_message"
	case Is(err, ErrMessageTooLong):
		return "message_too_long"
	case Is(err, ErrInvalidProfile):
		return "invalid_profile"
	case Is(err, ErrProfileExists):
		return "profile_exists"
	case Is(err, ErrProfileNotFound):
		return "profile_not_found"
	case Is(err, ErrPersistence):
		return "persistence_failure"
	case Is(err, ErrInvalidPayload):
		return "bad_request"
	default:
		return "internal"
	}
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
