package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/omarshaarawi/tradereferee/internal/models"
	"github.com/omarshaarawi/tradereferee/internal/store"
)

// Session is one chat's application state.
type Session struct {
	ChatID int64
	Store  *store.Store
}

type entry struct {
	session    *Session
	lastActive time.Time
}

type Repository struct {
	sessions map[int64]*entry
	players  *models.PlayerDirectory
	now      func() time.Time
	mu       sync.RWMutex
}

func NewRepository() *Repository {
	return &Repository{
		sessions: make(map[int64]*entry),
		now:      time.Now,
	}
}

// GetOrCreateSession returns the chat's session, creating it with newStore on
// first use. Either way the session is marked active.
func (r *Repository) GetOrCreateSession(chatID int64, newStore func() *store.Store) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[chatID]
	if !ok {
		e = &entry{session: &Session{ChatID: chatID, Store: newStore()}}
		r.sessions[chatID] = e
	}
	e.lastActive = r.now()
	return e.session
}

func (r *Repository) GetSession(chatID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[chatID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Sessions lists every live session ordered by chat id.
func (r *Repository) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		sessions = append(sessions, e.session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ChatID < sessions[j].ChatID
	})
	return sessions
}

// EvictIdle drops sessions untouched for longer than ttl and returns how many
// were removed.
func (r *Repository) EvictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	evicted := 0
	for id, e := range r.sessions {
		if e.lastActive.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (r *Repository) SavePlayers(dir *models.PlayerDirectory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = dir
}

func (r *Repository) GetPlayers() *models.PlayerDirectory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players
}
