package runtime

import (
	"fmt"
	"log/slog"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/errors"
	"sync"
	"time"
)

const (
	searchingMessage     = "Looking for a chat partner..."
	selfEndedMessage     = "You have left the conversation"
	partnerLeftMessage   = "Your chat partner has left the conversation"
	partnerSkipMessage   = "Your chat partner has skipped the conversation"
	abandonedMessage     = "The conversation was closed after both participants went offline"
	searchExpiredCode    = "search_expired"
	searchExpiredMessage = "No chat partner found, search stopped"
)

// Matchmaker is the single serialization point for every pairing decision.
// The queue, the session store and the offline bookkeeping are only touched
// with mu held. Events are pushed while holding mu so that a given identity
// observes its lifecycle transitions in order; pushes never block.
// Profiles are read before taking mu, into nicknames.
type Matchmaker struct {
	mu           sync.Mutex
	log          *slog.Logger
	queue        *Queue
	store        *SessionStore
	offlineSince map[domain.UserID]time.Time
	nicknames    sync.Map
	notifier     contract.Notifier
	profiles     contract.IProfileRepository
	pairings     contract.IPairingRepository
	now          func() time.Time
}

var (
	_ contract.Reaper      = (*Matchmaker)(nil)
	_ contract.Snapshotter = (*Matchmaker)(nil)
)

// NewMatchmaker wires the pairing core. profiles and pairings may be nil.
func NewMatchmaker(
	log *slog.Logger,
	notifier contract.Notifier,
	profiles contract.IProfileRepository,
	pairings contract.IPairingRepository,
) *Matchmaker {
	return &Matchmaker{
		log:          log,
		queue:        NewQueue(),
		store:        NewSessionStore(),
		offlineSince: make(map[domain.UserID]time.Time),
		notifier:     notifier,
		profiles:     profiles,
		pairings:     pairings,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Find moves userID to SEARCHING and attempts a match.
// Searching again while already searching refreshes the queue position.
func (m *Matchmaker) Find(userID domain.UserID) error {
	m.resolveNickname(userID)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	state := m.store.Ensure(userID, now)
	if state.IsPaired() {
		return errors.ErrAlreadyPaired
	}
	m.enqueue(state, now)
	m.tryMatch(now)
	return nil
}

// Cancel drops userID from the queue. It is a no-op when not searching.
func (m *Matchmaker) Cancel(userID domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue.Remove(userID)
	if state := m.store.Get(userID); state != nil {
		state.Searching = false
	}
}

// End tears down the pairing of userID. Both sides land IDLE.
func (m *Matchmaker) End(userID domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.teardown(userID, event.PartnerLeft, partnerLeftMessage)
	return err
}

// Skip ends the current pairing and puts userID straight back in the queue.
// The former partner is notified before the skipper is requeued and is not
// requeued itself.
func (m *Matchmaker) Skip(userID domain.UserID) error {
	m.resolveNickname(userID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.teardown(userID, event.PartnerSkipped, partnerSkipMessage); err != nil {
		return err
	}
	now := m.now()
	m.enqueue(m.store.Ensure(userID, now), now)
	m.tryMatch(now)
	return nil
}

// OnConnect is called once userID holds a live handle. A paired user gets
// its pairing back; the partner learns it is online again unless the new
// handle only replaced a live one.
func (m *Matchmaker) OnConnect(userID domain.UserID, replaced bool) {
	if state := m.State(userID); state.IsPaired() {
		m.resolveNickname(state.Partner())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	state := m.store.Ensure(userID, now)
	delete(m.offlineSince, userID)
	state.LastActiveAt = now
	if !state.IsPaired() {
		return
	}
	partner := state.Partner()
	if !replaced {
		m.notifier.Send(partner, event.PartnerOnline{PartnerID: userID})
	}
	m.notifier.Send(userID, event.PartnerFound{
		PartnerID:       partner,
		PartnerNickname: m.nickname(partner),
		ConversationID:  domain.NewConversationID(userID, partner),
		Resumed:         true,
	})
}

// OnDisconnect is called once the handle of userID is gone. A search in
// progress is cancelled; a pairing is kept and the partner is told.
func (m *Matchmaker) OnDisconnect(userID domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.store.Get(userID)
	if state == nil {
		return
	}
	if state.Searching {
		m.queue.Remove(userID)
		state.Searching = false
	}
	if !state.IsPaired() {
		m.forget(userID)
		return
	}
	m.offlineSince[userID] = m.now()
	m.notifier.Send(state.Partner(), event.PartnerOffline{PartnerID: userID})
}

// Conversation returns the pairing userID is currently part of.
func (m *Matchmaker) Conversation(userID domain.UserID) (domain.PairingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.store.Session(userID)
	if !ok {
		return domain.PairingSession{}, errors.ErrNotInChat
	}
	if state := m.store.Get(userID); state != nil {
		state.LastActiveAt = m.now()
	}
	return session, nil
}

// State returns a copy of the runtime state of userID.
func (m *Matchmaker) State(userID domain.UserID) domain.UserState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.store.Get(userID)
	if state == nil {
		return domain.UserState{ID: userID}
	}
	out := *state
	if state.PartnerID != nil {
		partner := *state.PartnerID
		out.PartnerID = &partner
	}
	return out
}

// Waiting returns the identities queued, in FIFO order.
func (m *Matchmaker) Waiting() []domain.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.queue.Entries()
	out := make([]domain.UserID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.UserID)
	}
	return out
}

// Sessions returns the active pairings.
func (m *Matchmaker) Sessions() []domain.PairingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Sessions()
}

// ExpireSearches stops every search enqueued before the given instant.
func (m *Matchmaker) ExpireSearches(before time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := m.queue.ExpireBefore(before)
	for _, id := range expired {
		if state := m.store.Get(id); state != nil {
			state.Searching = false
		}
		m.notifier.Send(id, event.Error{Code: searchExpiredCode, Message: searchExpiredMessage})
	}
	return len(expired)
}

// AbandonSessions tears down every pairing whose members have both been
// offline since before the given instant.
func (m *Matchmaker) AbandonSessions(before time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, session := range m.store.Sessions() {
		a, okA := m.offlineSince[session.UserA]
		b, okB := m.offlineSince[session.UserB]
		if !okA || !okB || !a.Before(before) || !b.Before(before) {
			continue
		}
		m.store.Unpair(session.UserA)
		for _, id := range []domain.UserID{session.UserA, session.UserB} {
			m.notifier.Send(id, event.ChatEnded{Reason: event.Abandoned, Message: abandonedMessage})
			delete(m.offlineSince, id)
			m.forget(id)
		}
		m.log.Info("Pairing abandoned", "conversation_id", session.ConversationID)
		count++
	}
	return count
}

// Snapshot persists the active pairings.
func (m *Matchmaker) Snapshot() error {
	if m.pairings == nil {
		return nil
	}
	sessions := m.Sessions()
	if err := m.pairings.SaveAll(sessions); err != nil {
		return fmt.Errorf("pairing snapshot failed: %w", err)
	}
	m.log.Debug("Pairings snapshotted", "count", len(sessions))
	return nil
}

// Restore reinstalls the pairings saved by the last Snapshot.
// Restored members start offline.
func (m *Matchmaker) Restore() (int, error) {
	if m.pairings == nil {
		return 0, nil
	}
	sessions, err := m.pairings.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("pairing restore failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	restored := 0
	for _, session := range sessions {
		if !m.store.Restore(session) {
			m.log.Warn("Skipping conflicting pairing", "conversation_id", session.ConversationID)
			continue
		}
		m.offlineSince[session.UserA] = now
		m.offlineSince[session.UserB] = now
		restored++
	}
	return restored, nil
}

func (m *Matchmaker) enqueue(state *domain.UserState, now time.Time) {
	state.Searching = true
	state.LastActiveAt = now
	m.queue.Push(state.ID, now)
	m.notifier.Send(state.ID, event.Searching{Message: searchingMessage})
}

// teardown clears both partner pointers and notifies both sides.
func (m *Matchmaker) teardown(userID domain.UserID, partnerReason event.EndReason, partnerMessage string) (domain.PairingSession, error) {
	session, ok := m.store.Unpair(userID)
	if !ok {
		return domain.PairingSession{}, errors.ErrNotInChat
	}
	partner := session.Other(userID)
	delete(m.offlineSince, userID)

	m.notifier.Send(userID, event.ChatEnded{Reason: event.EndedBySelf, Message: selfEndedMessage})
	m.notifier.Send(partner, event.ChatEnded{Reason: partnerReason, Message: partnerMessage})

	if _, offline := m.offlineSince[partner]; offline {
		delete(m.offlineSince, partner)
		m.forget(partner)
	}
	m.log.Debug("Pairing ended", "conversation_id", session.ConversationID, "by", userID)
	return session, nil
}

// tryMatch pairs the queue head with the first eligible entry behind it.
// Every entry is re-validated against the session store; stale ones are pruned.
// A head without partner goes back to the tail.
func (m *Matchmaker) tryMatch(now time.Time) bool {
	for m.queue.Len() > 0 {
		head, _ := m.queue.PopFront()
		if !m.eligible(head.UserID) {
			m.log.Debug("Pruning stale queue head", "user_id", head.UserID)
			continue
		}
		for _, entry := range m.queue.Entries() {
			m.queue.Remove(entry.UserID)
			if !m.eligible(entry.UserID) {
				m.log.Debug("Pruning stale queue entry", "user_id", entry.UserID)
				continue
			}
			m.pair(head.UserID, entry.UserID, now)
			return true
		}
		m.queue.Push(head.UserID, head.EnqueuedAt)
		return false
	}
	return false
}

func (m *Matchmaker) eligible(userID domain.UserID) bool {
	state := m.store.Get(userID)
	return state != nil && state.Eligible()
}

func (m *Matchmaker) pair(a, b domain.UserID, now time.Time) {
	session := m.store.Pair(a, b, now)
	m.notifier.Send(a, event.PartnerFound{
		PartnerID:       b,
		PartnerNickname: m.nickname(b),
		ConversationID:  session.ConversationID,
	})
	m.notifier.Send(b, event.PartnerFound{
		PartnerID:       a,
		PartnerNickname: m.nickname(a),
		ConversationID:  session.ConversationID,
	})
	m.log.Info("Pair formed", "conversation_id", session.ConversationID)
}

// resolveNickname reads the profile of userID into the nickname cache.
// It must not be called with mu held: the profile store may block.
func (m *Matchmaker) resolveNickname(userID domain.UserID) {
	if m.profiles == nil {
		return
	}
	profile, exists, err := m.profiles.GetProfile(userID)
	if err != nil {
		m.log.Warn("Profile lookup failed", "user_id", userID, "error", err)
		return
	}
	m.nicknames.Store(userID, domain.DisplayName(profile, exists))
}

// nickname only reads the cache; an identity never resolved is anonymous.
func (m *Matchmaker) nickname(userID domain.UserID) string {
	if name, ok := m.nicknames.Load(userID); ok {
		return name.(string)
	}
	return domain.AnonymousNickname
}

func (m *Matchmaker) forget(userID domain.UserID) {
	m.store.Forget(userID)
	m.nicknames.Delete(userID)
}
