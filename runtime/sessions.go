package runtime

import (
	"pair-chat/domain"
	"sort"
	"time"
)

// SessionStore holds the per-identity runtime state and the active pairings.
// Like Queue it is guarded by the matchmaker lock.
type SessionStore struct {
	states   map[domain.UserID]*domain.UserState
	sessions map[domain.ConversationID]domain.PairingSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		states:   make(map[domain.UserID]*domain.UserState),
		sessions: make(map[domain.ConversationID]domain.PairingSession),
	}
}

// Get returns the live state of userID, nil when unknown.
func (s *SessionStore) Get(userID domain.UserID) *domain.UserState {
	return s.states[userID]
}

// Ensure returns the state of userID, creating an IDLE one when missing.
func (s *SessionStore) Ensure(userID domain.UserID, at time.Time) *domain.UserState {
	state, ok := s.states[userID]
	if !ok {
		state = domain.NewUserState(userID, at)
		s.states[userID] = state
	}
	return state
}

// Pair points a and b at each other and records their session.
func (s *SessionStore) Pair(a, b domain.UserID, at time.Time) domain.PairingSession {
	session := domain.NewPairingSession(a, b, at)
	stateA, stateB := s.Ensure(a, at), s.Ensure(b, at)
	partnerA, partnerB := b, a
	stateA.PartnerID, stateA.Searching, stateA.LastActiveAt = &partnerA, false, at
	stateB.PartnerID, stateB.Searching, stateB.LastActiveAt = &partnerB, false, at
	s.sessions[session.ConversationID] = session
	return session
}

// Unpair clears both partner pointers of the session userID belongs to.
func (s *SessionStore) Unpair(userID domain.UserID) (domain.PairingSession, bool) {
	state := s.states[userID]
	if state == nil || !state.IsPaired() {
		return domain.PairingSession{}, false
	}
	partner := state.Partner()
	conversationID := domain.NewConversationID(userID, partner)
	session, ok := s.sessions[conversationID]
	if !ok {
		session = domain.NewPairingSession(userID, partner, state.LastActiveAt)
	}
	delete(s.sessions, conversationID)

	state.PartnerID = nil
	if other := s.states[partner]; other != nil && other.Partner() == userID {
		other.PartnerID = nil
	}
	return session, true
}

// Session returns the pairing userID is part of.
func (s *SessionStore) Session(userID domain.UserID) (domain.PairingSession, bool) {
	state := s.states[userID]
	if state == nil || !state.IsPaired() {
		return domain.PairingSession{}, false
	}
	session, ok := s.sessions[domain.NewConversationID(userID, state.Partner())]
	return session, ok
}

// Sessions returns the active pairings ordered by creation time.
func (s *SessionStore) Sessions() []domain.PairingSession {
	out := make([]domain.PairingSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ConversationID < out[j].ConversationID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Restore reinstalls a pairing loaded from storage.
// Sessions touching an identity that is already paired are skipped.
func (s *SessionStore) Restore(session domain.PairingSession) bool {
	if session.UserA == session.UserB {
		return false
	}
	for _, id := range []domain.UserID{session.UserA, session.UserB} {
		if state := s.states[id]; state != nil && state.IsPaired() {
			return false
		}
	}
	s.Pair(session.UserA, session.UserB, session.CreatedAt)
	return true
}

// Forget drops the state of an identity that is neither searching nor paired.
func (s *SessionStore) Forget(userID domain.UserID) {
	if state := s.states[userID]; state != nil && state.Status() == domain.IDLE {
		delete(s.states, userID)
	}
}
