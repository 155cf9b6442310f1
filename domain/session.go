package domain

import (
	"sort"
	"strings"
	"time"
)

// ConversationSeparator joins the two identities of a conversation id.
// ValidateUserID rejects identities containing it.
const ConversationSeparator = "_"

type ConversationID string

// NewConversationID is order independent: both partners compute the same id.
func NewConversationID(a, b UserID) ConversationID {
	ids := []string{string(a), string(b)}
	sort.Strings(ids)
	return ConversationID(strings.Join(ids, ConversationSeparator))
}

// PairingSession exists iff UserA and UserB point at each other.
type PairingSession struct {
	UserA          UserID
	UserB          UserID
	ConversationID ConversationID
	CreatedAt      time.Time
}

func NewPairingSession(a, b UserID, at time.Time) PairingSession {
	return PairingSession{
		UserA:          a,
		UserB:          b,
		ConversationID: NewConversationID(a, b),
		CreatedAt:      at,
	}
}

// Other returns the member of the session that is not id.
func (p PairingSession) Other(id UserID) UserID {
	if p.UserA == id {
		return p.UserB
	}
	return p.UserA
}

func (p PairingSession) Has(id UserID) bool {
	return p.UserA == id || p.UserB == id
}
