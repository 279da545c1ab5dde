package bot

import (
	"log"
	"strconv"
	"sync"
	"time"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/domain"
)

const (
	defaultSessionIdleTTL = 24 * time.Hour
	sessionSweepEvery     = 10 * time.Minute
)

// SessionRegistry keeps one analysis session per chat so each chat gets its own
// latest-wins ordering and retained result. Chats idle for longer than the TTL
// are dropped, retained result included.
type SessionRegistry struct {
	analyzer analysis.Analyzer
	idleTTL  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	sessions  map[int64]*chatSession
	lastSweep time.Time
}

type chatSession struct {
	session  *analysis.Session
	lastUsed time.Time
}

func NewSessionRegistry(analyzer analysis.Analyzer) *SessionRegistry {
	return &SessionRegistry{
		analyzer: analyzer,
		idleTTL:  defaultSessionIdleTTL,
		now:      time.Now,
		sessions: make(map[int64]*chatSession),
	}
}

// Get returns the chat's session, creating it on first use.
func (r *SessionRegistry) Get(chatID int64) *analysis.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	if cs, ok := r.sessions[chatID]; ok {
		cs.lastUsed = now
		return cs.session
	}
	s := analysis.NewSession(r.analyzer, &domain.Identity{ID: "telegram:" + strconv.FormatInt(chatID, 10)})
	r.sessions[chatID] = &chatSession{session: s, lastUsed: now}
	return s
}

// Lookup returns the chat's session without creating one.
func (r *SessionRegistry) Lookup(chatID int64) (*analysis.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	cs, ok := r.sessions[chatID]
	if !ok {
		return nil, false
	}
	cs.lastUsed = now
	return cs.session, true
}

// Forget drops the chat's session. It returns false when there was none.
func (r *SessionRegistry) Forget(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, exists := r.sessions[chatID]
	if !exists {
		return false
	}
	cs.session.Reset()
	delete(r.sessions, chatID)
	return true
}

// Sweep drops sessions idle for longer than the TTL and reports how many went.
// Sessions with a request in flight are kept.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictLocked(r.now())
}

func (r *SessionRegistry) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < sessionSweepEvery {
		return
	}
	if n := r.evictLocked(now); n > 0 {
		log.Printf("dropped %d idle telegram sessions", n)
	}
}

func (r *SessionRegistry) evictLocked(now time.Time) int {
	r.lastSweep = now
	evicted := 0
	for chatID, cs := range r.sessions {
		if now.Sub(cs.lastUsed) <= r.idleTTL || cs.session.Snapshot().State == analysis.StateLoading {
			continue
		}
		cs.session.Reset()
		delete(r.sessions, chatID)
		evicted++
	}
	return evicted
}

func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
