// Package domain contains core concepts of the chat system.
// This file defines Participant identities and their runtime state.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"pair-chat/errors"
	"strings"
	"time"
)

// UserID is the opaque, caller-supplied identity token.
type UserID string

// ValidateUserID rejects blank identities and identities containing the
// conversation separator, which would let two pairings share one conversation id.
func ValidateUserID(id UserID) error {
	if strings.TrimSpace(string(id)) == "" {
		return errors.ErrEmptyIdentity
	}
	if strings.Contains(string(id), ConversationSeparator) {
		return fmt.Errorf("%w: %q", errors.ErrInvalidIdentity, string(id))
	}
	return nil
}

// ParseUserID trims a raw token read by a transport and validates it.
func ParseUserID(raw string) (UserID, error) {
	id := UserID(strings.TrimSpace(raw))
	if err := ValidateUserID(id); err != nil {
		return "", err
	}
	return id, nil
}

type Status string

const (
	IDLE      Status = "IDLE"
	SEARCHING Status = "SEARCHING"
	PAIRED    Status = "PAIRED"
)

// UserState is the per-identity runtime state.
// Searching and a set PartnerID are mutually exclusive.
type UserState struct {
	ID           UserID
	Searching    bool
	PartnerID    *UserID
	LastActiveAt time.Time
}

func NewUserState(id UserID, at time.Time) *UserState {
	return &UserState{ID: id, LastActiveAt: at}
}

func (s UserState) Status() Status {
	switch {
	case s.PartnerID != nil:
		return PAIRED
	case s.Searching:
		return SEARCHING
	default:
		return IDLE
	}
}

func (s UserState) IsPaired() bool {
	return s.PartnerID != nil
}

// Eligible reports whether the user can still be matched.
func (s UserState) Eligible() bool {
	return s.Searching && s.PartnerID == nil
}

// Partner returns the current partner, or the empty identity.
func (s UserState) Partner() UserID {
	if s.PartnerID == nil {
		return ""
	}
	return *s.PartnerID
}
