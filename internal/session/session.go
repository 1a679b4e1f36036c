package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/SeakMengs/AutoCard/pkg/autocard/editor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("editor session not found or expired")

// Session is one open editor on one side of a template.
type Session struct {
	ID         string
	TemplateID string
	Side       autocard.Side
	Catalog    autocard.Catalog
	Background string
	Editor     *editor.Editor
	// Previews of the same session supersede each other
	Guard     *autocard.RenderGuard
	CreatedAt time.Time

	savedRevision atomic.Uint64
	expiresAt     time.Time
}

// Dirty reports whether the layout changed since it was opened or last saved.
func (s *Session) Dirty() bool {
	return s.Editor.Revision() != s.savedRevision.Load()
}

func (s *Session) MarkSaved(revision uint64) {
	s.savedRevision.Store(revision)
}

// Store keeps sessions in memory. Every Get extends a session's lifetime by ttl.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewStore(ttl time.Duration, logger *zap.SugaredLogger) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		logger:   logger,
		now:      time.Now,
	}
}

// Create assigns the session an id and stores it.
func (st *Store) Create(s *Session) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.expiresAt = now.Add(st.ttl)
	if s.Guard == nil {
		s.Guard = &autocard.RenderGuard{}
	}
	st.sessions[s.ID] = s

	st.logger.Debugf("Opened editor session %s for template %s (%s)", s.ID, s.TemplateID, s.Side)
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := st.now()
	if !now.Before(s.expiresAt) {
		delete(st.sessions, id)
		return nil, ErrSessionNotFound
	}
	s.expiresAt = now.Add(st.ttl)
	return s, nil
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops expired sessions and returns how many were dropped.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	n := 0
	for id, s := range st.sessions {
		if !now.Before(s.expiresAt) {
			if s.Dirty() {
				st.logger.Infof("Editor session %s for template %s expired with unsaved changes", id, s.TemplateID)
			}
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				st.logger.Debugf("Evicted %d expired editor sessions", n)
			}
		}
	}
}
