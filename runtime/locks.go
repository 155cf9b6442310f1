package runtime

import (
	"pair-chat/domain"
	"sync"
)

// identityLocks serializes the lifecycle steps of one identity.
// An entry lives only while someone holds or waits for it.
type identityLocks struct {
	mu    sync.Mutex
	locks map[domain.UserID]*identityLock
}

type identityLock struct {
	sync.Mutex
	refs int
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: make(map[domain.UserID]*identityLock)}
}

func (l *identityLocks) Lock(userID domain.UserID) {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &identityLock{}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.Lock()
}

func (l *identityLocks) Unlock(userID domain.UserID) {
	l.mu.Lock()
	lock := l.locks[userID]
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()

	lock.Unlock()
}

func (l *identityLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
