package runtime

import (
	"fmt"
	"pair-chat/domain"
	"pair-chat/domain/event"
	"pair-chat/errors"
	"pair-chat/mocks"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMatchmaker_Find_Pairs_Two_Users(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2")

	// When both users search
	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	// Then both receive partner-found with the same conversation
	for _, pair := range [][2]domain.UserID{{"u1", "u2"}, {"u2", "u1"}} {
		evt, ok := f.conns[pair[0]].Last(event.PartnerFoundKind)
		req.True(ok)
		found := evt.(event.PartnerFound)
		req.Equal(pair[1], found.PartnerID)
		req.Equal(domain.ConversationID("u1_u2"), found.ConversationID)
		req.Equal(domain.AnonymousNickname, found.PartnerNickname)
		req.False(found.Resumed)
	}

	// And the partner pointers are symmetric
	u1, u2 := f.matchmaker.State("u1"), f.matchmaker.State("u2")
	req.Equal(domain.UserID("u2"), u1.Partner())
	req.Equal(domain.UserID("u1"), u2.Partner())
	req.Equal(domain.PAIRED, u1.Status())
	req.False(u1.Searching)
	req.Empty(f.matchmaker.Waiting())
	req.Len(f.matchmaker.Sessions(), 1)
}

func TestMatchmaker_Find_Alone_Keeps_Waiting(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1")

	req.NoError(f.matchmaker.Find("u1"))

	req.Equal([]event.Kind{event.SearchingKind}, f.conns["u1"].Kinds())
	req.Equal(domain.SEARCHING, f.matchmaker.State("u1").Status())
	req.Equal([]domain.UserID{"u1"}, f.matchmaker.Waiting())
}

func TestMatchmaker_Find_While_Paired_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2")
	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	// When a paired user searches again
	err := f.matchmaker.Find("u1")

	// Then it is rejected and nothing changed
	req.ErrorIs(err, errors.ErrAlreadyPaired)
	req.Equal(errors.KindInvalidState, errors.KindOf(err))
	req.Equal(domain.UserID("u2"), f.matchmaker.State("u1").Partner())
	req.Empty(f.matchmaker.Waiting())
}

func TestMatchmaker_Find_Twice_Refreshes_Position(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("a", "b")

	// Given a and b queued without being matched
	f.matchmaker.mu.Lock()
	for _, id := range []domain.UserID{"a", "b"} {
		state := f.matchmaker.store.Ensure(id, f.clock)
		state.Searching = true
		f.matchmaker.queue.Push(id, f.clock)
	}
	f.matchmaker.mu.Unlock()

	// When a searches again before any match attempt
	f.matchmaker.mu.Lock()
	f.matchmaker.enqueue(f.matchmaker.store.Get("a"), f.clock.Add(time.Second))
	f.matchmaker.mu.Unlock()

	// Then a appears once, behind b
	req.Equal([]domain.UserID{"b", "a"}, f.matchmaker.Waiting())
}

func TestMatchmaker_FIFO_Longest_Waiting_Is_Matched_First(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("A", "B", "C", "D")

	// Given A, B, C queued in that order, with B and C no longer eligible
	// (B paired elsewhere, C gone) but not yet pruned
	f.matchmaker.mu.Lock()
	for _, id := range []domain.UserID{"A", "B", "C"} {
		state := f.matchmaker.store.Ensure(id, f.clock)
		state.Searching = true
		f.matchmaker.queue.Push(id, f.clock)
	}
	f.matchmaker.store.Pair("B", "X", f.clock)
	f.matchmaker.store.Get("C").Searching = false
	f.matchmaker.mu.Unlock()

	// When D searches
	req.NoError(f.matchmaker.Find("D"))

	// Then D is paired with A, the longest waiting eligible entry
	req.Equal(domain.UserID("A"), f.matchmaker.State("D").Partner())
	req.Equal(domain.UserID("D"), f.matchmaker.State("A").Partner())

	// And the stale entries were pruned
	req.Empty(f.matchmaker.Waiting())
	req.Equal(domain.UserID("X"), f.matchmaker.State("B").Partner())
}

func TestMatchmaker_FIFO_Order_Across_Arrivals(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("A", "B", "C", "D")

	// Given A waiting
	req.NoError(f.matchmaker.Find("A"))
	f.advance(time.Second)

	// When B, C and D arrive in order
	req.NoError(f.matchmaker.Find("B"))
	req.NoError(f.matchmaker.Find("C"))
	req.NoError(f.matchmaker.Find("D"))

	// Then pairs form in arrival order
	req.Equal(domain.UserID("B"), f.matchmaker.State("A").Partner())
	req.Equal(domain.UserID("D"), f.matchmaker.State("C").Partner())
}

func TestMatchmaker_Never_Pairs_With_Self(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("solo")

	for i := 0; i < 3; i++ {
		req.NoError(f.matchmaker.Find("solo"))
	}

	req.Equal(domain.SEARCHING, f.matchmaker.State("solo").Status())
	req.Equal([]domain.UserID{"solo"}, f.matchmaker.Waiting())
	req.Empty(f.matchmaker.Sessions())
}

func TestMatchmaker_End(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2")
	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	// When u1 ends the chat
	req.NoError(f.matchmaker.End("u1"))

	// Then both sides are idle
	req.Equal(domain.IDLE, f.matchmaker.State("u1").Status())
	req.Equal(domain.IDLE, f.matchmaker.State("u2").Status())
	req.Empty(f.matchmaker.Sessions())

	// And both received chat-ended with their own reason
	evt, ok := f.conns["u1"].Last(event.ChatEndedKind)
	req.True(ok)
	req.Equal(event.EndedBySelf, evt.(event.ChatEnded).Reason)
	evt, ok = f.conns["u2"].Last(event.ChatEndedKind)
	req.True(ok)
	req.Equal(event.PartnerLeft, evt.(event.ChatEnded).Reason)
	req.Equal("Your chat partner has left the conversation", evt.(event.ChatEnded).Message)

	// And ending again is an invalid state
	req.ErrorIs(f.matchmaker.End("u1"), errors.ErrNotInChat)
	req.ErrorIs(f.matchmaker.End("u2"), errors.ErrNotInChat)
}

func TestMatchmaker_Skip(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u3", "u4")
	req.NoError(f.matchmaker.Find("u3"))
	req.NoError(f.matchmaker.Find("u4"))
	f.conns["u3"].Reset()
	f.conns["u4"].Reset()

	// When u3 skips u4
	req.NoError(f.matchmaker.Skip("u3"))

	// Then u3 is searching again and u4 is idle, not requeued
	req.Equal(domain.SEARCHING, f.matchmaker.State("u3").Status())
	req.Equal(domain.IDLE, f.matchmaker.State("u4").Status())
	req.Equal([]domain.UserID{"u3"}, f.matchmaker.Waiting())

	// And the skipped partner was told before u3 searched
	req.Equal([]event.Kind{event.ChatEndedKind, event.SearchingKind}, f.conns["u3"].Kinds())
	req.Equal([]event.Kind{event.ChatEndedKind}, f.conns["u4"].Kinds())
	evt, _ := f.conns["u4"].Last(event.ChatEndedKind)
	req.Equal(event.PartnerSkipped, evt.(event.ChatEnded).Reason)
}

func TestMatchmaker_Skip_Matches_Next_Waiting_User(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u3", "u4", "u5")
	req.NoError(f.matchmaker.Find("u3"))
	req.NoError(f.matchmaker.Find("u4"))
	req.NoError(f.matchmaker.Find("u5"))

	// When u3 skips while u5 waits
	req.NoError(f.matchmaker.Skip("u3"))

	// Then u3 is paired with u5 right away
	req.Equal(domain.UserID("u5"), f.matchmaker.State("u3").Partner())
	req.Equal(domain.IDLE, f.matchmaker.State("u4").Status())
}

func TestMatchmaker_Skip_Not_Paired(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1")

	err := f.matchmaker.Skip("u1")

	req.ErrorIs(err, errors.ErrNotInChat)
	req.Equal(domain.IDLE, f.matchmaker.State("u1").Status())
	req.Empty(f.matchmaker.Waiting())
}

func TestMatchmaker_Cancel(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2")
	req.NoError(f.matchmaker.Find("u1"))

	// When u1 cancels
	f.matchmaker.Cancel("u1")
	f.matchmaker.Cancel("u1")

	// Then u1 is idle and u2 cannot be matched with it
	req.Equal(domain.IDLE, f.matchmaker.State("u1").Status())
	req.NoError(f.matchmaker.Find("u2"))
	req.Equal(domain.SEARCHING, f.matchmaker.State("u2").Status())
}

func TestMatchmaker_Disconnect_While_Paired_Keeps_Session(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2")
	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	// When u1 drops
	f.disconnect("u1")

	// Then the pairing survives and u2 is told
	req.Equal(domain.UserID("u2"), f.matchmaker.State("u1").Partner())
	evt, ok := f.conns["u2"].Last(event.PartnerOfflineKind)
	req.True(ok)
	req.Equal(domain.UserID("u1"), evt.(event.PartnerOffline).PartnerID)

	// When u1 comes back
	f.connect("u1")

	// Then u2 is told it is online and u1 gets its pairing back
	_, ok = f.conns["u2"].Last(event.PartnerOnlineKind)
	req.True(ok)
	evt, ok = f.conns["u1"].Last(event.PartnerFoundKind)
	req.True(ok)
	req.True(evt.(event.PartnerFound).Resumed)
	req.Equal(domain.ConversationID("u1_u2"), evt.(event.PartnerFound).ConversationID)
}

func TestMatchmaker_Disconnect_While_Searching_Cancels(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2")
	req.NoError(f.matchmaker.Find("u1"))

	f.disconnect("u1")
	req.NoError(f.matchmaker.Find("u2"))

	req.Equal(domain.IDLE, f.matchmaker.State("u1").Status())
	req.Equal([]domain.UserID{"u2"}, f.matchmaker.Waiting())
}

func TestMatchmaker_Disconnect_Twice_Is_NoOp(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2")
	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	f.disconnect("u1")
	before := f.conns["u2"].Kinds()
	f.disconnect("u1")

	req.Equal(before, f.conns["u2"].Kinds())
	req.Equal(domain.UserID("u2"), f.matchmaker.State("u1").Partner())
}

func TestMatchmaker_Nickname_From_Profile(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	f := newFixture()
	f.matchmaker.profiles = profiles
	f.connect("u1", "u2")

	profiles.EXPECT().GetProfile(domain.UserID("u1")).Return(domain.Profile{ID: "u1", Nickname: "Neo"}, true, nil)
	profiles.EXPECT().GetProfile(domain.UserID("u2")).Return(domain.Profile{}, false, nil)

	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	evt, _ := f.conns["u2"].Last(event.PartnerFoundKind)
	req.Equal("Neo", evt.(event.PartnerFound).PartnerNickname)
	evt, _ = f.conns["u1"].Last(event.PartnerFoundKind)
	req.Equal(domain.AnonymousNickname, evt.(event.PartnerFound).PartnerNickname)
}

func TestMatchmaker_Profiles_Are_Read_Outside_The_Pairing_Lock(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	f := newFixture()
	f.matchmaker.profiles = profiles
	f.connect("u1", "u2")

	// Every lookup checks that the pairing lock is free
	lockHeld := false
	profiles.EXPECT().GetProfile(gomock.Any()).
		DoAndReturn(func(id domain.UserID) (domain.Profile, bool, error) {
			if f.matchmaker.mu.TryLock() {
				f.matchmaker.mu.Unlock()
			} else {
				lockHeld = true
			}
			return domain.Profile{ID: id, Nickname: "nick-" + string(id)}, true, nil
		}).
		AnyTimes()

	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	// When u1 comes back while paired
	f.disconnect("u1")
	f.connect("u1")

	req.False(lockHeld)
	evt, _ := f.conns["u2"].Last(event.PartnerFoundKind)
	req.Equal("nick-u1", evt.(event.PartnerFound).PartnerNickname)
	evt, _ = f.conns["u1"].Last(event.PartnerFoundKind)
	req.True(evt.(event.PartnerFound).Resumed)
	req.Equal("nick-u2", evt.(event.PartnerFound).PartnerNickname)
}

func TestMatchmaker_ExpireSearches(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("old", "fresh")
	req.NoError(f.matchmaker.Find("old"))
	f.advance(10 * time.Minute)

	// Given fresh enqueued later and not matched
	f.matchmaker.mu.Lock()
	f.matchmaker.store.Ensure("fresh", f.clock).Searching = true
	f.matchmaker.queue.Push("fresh", f.clock)
	f.matchmaker.mu.Unlock()

	// When entries older than five minutes expire
	n := f.matchmaker.ExpireSearches(f.clock.Add(-5 * time.Minute))

	req.Equal(1, n)
	req.Equal(domain.IDLE, f.matchmaker.State("old").Status())
	req.Equal([]domain.UserID{"fresh"}, f.matchmaker.Waiting())
	evt, ok := f.conns["old"].Last(event.ErrorKind)
	req.True(ok)
	req.Equal("search_expired", evt.(event.Error).Code)
}

func TestMatchmaker_AbandonSessions(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("u1", "u2", "u3", "u4")
	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))
	req.NoError(f.matchmaker.Find("u3"))
	req.NoError(f.matchmaker.Find("u4"))

	// Given both members of u1_u2 offline and only one member of u3_u4
	f.disconnect("u1")
	f.disconnect("u2")
	f.disconnect("u3")
	f.advance(time.Hour)

	n := f.matchmaker.AbandonSessions(f.clock.Add(-30 * time.Minute))

	req.Equal(1, n)
	req.Equal(domain.IDLE, f.matchmaker.State("u1").Status())
	req.Equal(domain.IDLE, f.matchmaker.State("u2").Status())
	req.Equal(domain.UserID("u4"), f.matchmaker.State("u3").Partner())
}

func TestMatchmaker_Snapshot_And_Restore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	pairings := mocks.NewMockIPairingRepository(ctrl)
	f := newFixture()
	f.matchmaker.pairings = pairings
	f.connect("u1", "u2")
	req.NoError(f.matchmaker.Find("u1"))
	req.NoError(f.matchmaker.Find("u2"))

	var saved []domain.PairingSession
	pairings.EXPECT().SaveAll(gomock.Any()).DoAndReturn(func(s []domain.PairingSession) error {
		saved = s
		return nil
	})
	req.NoError(f.matchmaker.Snapshot())
	req.Len(saved, 1)

	// When a fresh matchmaker restores the snapshot
	restored := newFixture()
	restored.matchmaker.pairings = pairings
	pairings.EXPECT().LoadAll().Return(saved, nil)
	n, err := restored.matchmaker.Restore()

	// Then the pairing is back with both members offline
	req.NoError(err)
	req.Equal(1, n)
	req.Equal(domain.UserID("u2"), restored.matchmaker.State("u1").Partner())
	req.Equal(domain.UserID("u1"), restored.matchmaker.State("u2").Partner())
	restored.advance(time.Hour)
	req.Equal(1, restored.matchmaker.AbandonSessions(restored.clock.Add(-time.Minute)))
}

func TestMatchmaker_Concurrent_Finds_Never_Double_Pair(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	const users = 200
	ids := make([]domain.UserID, 0, users)
	for i := 0; i < users; i++ {
		ids = append(ids, domain.UserID(fmt.Sprintf("user-%03d", i)))
	}
	f.connect(ids...)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id domain.UserID) {
			defer wg.Done()
			_ = f.matchmaker.Find(id)
			_ = f.matchmaker.Skip(id)
			_ = f.matchmaker.Find(id)
		}(id)
	}
	wg.Wait()

	// Then every pairing is symmetric and nobody is paired twice
	seen := make(map[domain.UserID]int)
	for _, session := range f.matchmaker.Sessions() {
		req.NotEqual(session.UserA, session.UserB)
		seen[session.UserA]++
		seen[session.UserB]++
		req.Equal(session.UserB, f.matchmaker.State(session.UserA).Partner())
		req.Equal(session.UserA, f.matchmaker.State(session.UserB).Partner())
	}
	for id, count := range seen {
		req.Equal(1, count, "user %s paired more than once", id)
	}
	for _, id := range ids {
		state := f.matchmaker.State(id)
		req.False(state.Searching && state.IsPaired())
		if p := state.Partner(); p != "" {
			req.Equal(id, f.matchmaker.State(p).Partner())
		}
	}
}
