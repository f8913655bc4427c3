package handlers

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// sessionLocks serialises the load-change-save cycle of one principal's
// session. Entries are dropped once nobody holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	byKey map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{byKey: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.byKey[key]
	if !ok {
		e = &sessionLock{}
		l.byKey[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.byKey, key)
		}
		l.mu.Unlock()
	}
}

// lockSession holds the caller's session until the returned func runs
func (h *Handler) lockSession(c *gin.Context) (unlock func()) {
	return h.locks.lock(principal(c).ID)
}
