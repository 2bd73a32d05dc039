package services

import "sync"

// userLocks serializes ledger/wallet mutations per user. The lock is per
// user, not per record: the wallet is a single shared aggregate, and two
// concurrent edits to different transactions of one user would otherwise
// race on its read-modify-write.
type userLocks struct {
	mu   sync.Mutex
	held map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{held: make(map[int64]*userLock)}
}

// Lock acquires the user's exclusive lock and returns its release func.
// Entries are reference counted so the table does not grow with the user
// population.
func (l *userLocks) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.held[userID]
	if !ok {
		ul = &userLock{}
		l.held[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.held, userID)
		}
		l.mu.Unlock()
	}
}
