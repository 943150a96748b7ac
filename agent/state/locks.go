package state

import "sync"

// ThreadLocks serializes turns per thread. Two concurrent turns on the same
// thread would otherwise interleave their context updates; turns on
// different threads proceed in parallel.
type ThreadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

func NewThreadLocks() *ThreadLocks {
	return &ThreadLocks{locks: make(map[string]*threadLock)}
}

// Acquire blocks until the thread's lock is held and returns the release
// func. Entries are dropped once the last holder releases, so the map does
// not grow with thread cardinality.
func (l *ThreadLocks) Acquire(threadID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[threadID]
	if !ok {
		entry = &threadLock{}
		l.locks[threadID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, threadID)
			}
			l.mu.Unlock()
		})
	}
}
