package ui

import (
	"context"
	"sync"
	"time"

	"docmerge/domain/batch"
	"docmerge/domain/core"
	"docmerge/domain/mapping"
	"docmerge/domain/tabular"
	"docmerge/internal"
	"docmerge/internal/errors"
	"docmerge/ports"
)

// Session holds everything one browser workflow has uploaded and decided so
// far, from the template and data files through to the generation summary.
type Session struct {
	ID        core.SessionID
	CreatedAt time.Time
	ExpiresAt time.Time

	TemplateName string
	Template     ports.DocumentTemplate
	TemplateHash core.TemplateHash

	DataName string
	Table    *tabular.Table
	DataHash core.DataHash

	Proposal mapping.Proposal
	Profiles []tabular.ColumnProfile

	Summary *batch.Summary
}

// SessionStore keeps sessions in memory and expires them after a TTL.
// Sessions are only ever touched through View and Update so all access
// happens under the store lock.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	ttl      time.Duration
}

// NewSessionStore creates a session store with the given TTL
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[core.SessionID]*Session),
		ttl:      ttl,
	}
}

// Put registers a prepared session, assigning its ID and expiry
func (st *SessionStore) Put(session *Session) core.SessionID {
	now := time.Now()
	session.ID = core.NewSessionID()
	session.CreatedAt = now
	session.ExpiresAt = now.Add(st.ttl)

	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()

	return session.ID
}

// View calls fn with the live session. fn must not mutate the session.
func (st *SessionStore) View(id core.SessionID, fn func(*Session)) error {
	st.mu.RLock()
	defer st.mu.RUnlock()

	session, ok := st.sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return errors.SessionNotFound(id.String())
	}
	fn(session)
	return nil
}

// Update calls fn with the live session under the write lock and pushes the
// session's expiry out, so an active workflow never expires mid-use
func (st *SessionStore) Update(id core.SessionID, fn func(*Session)) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return errors.SessionNotFound(id.String())
	}
	fn(session)
	session.ExpiresAt = time.Now().Add(st.ttl)
	return nil
}

// Delete removes a session immediately
func (st *SessionStore) Delete(id core.SessionID) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of stored sessions, expired or not
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Prune drops expired sessions and reports how many were removed
func (st *SessionStore) Prune() int {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, session := range st.sessions {
		if now.After(session.ExpiresAt) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor prunes expired sessions in the background until ctx ends
func (st *SessionStore) StartJanitor(ctx context.Context, logger *internal.Logger) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := st.Prune(); removed > 0 {
					logger.Debug("Session janitor removed %d expired sessions", removed)
				}
			}
		}
	}()
}
