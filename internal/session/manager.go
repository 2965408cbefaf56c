// Package session keeps per-visitor dashboard state: authentication, the
// selected view and the handle of the loaded table. Sessions are created
// unauthenticated as "Guest" with no view selected and are torn down on
// logout or after an idle timeout.
package session

import (
	"context"
	"sync"
	"time"

	"churndash/internal"
	"churndash/internal/dataset"
	"churndash/internal/errors"
	"churndash/internal/metrics"
	"churndash/internal/view"
	"churndash/ports"

	"github.com/google/uuid"
)

// GuestName is the display name of an unauthenticated session
const GuestName = "Guest"

// Session is one visitor's dashboard context. Renders hold its lock so one
// computation pass completes before the next view switch is processed.
type Session struct {
	mu sync.Mutex

	ID            string
	Authenticated bool
	Username      string
	DisplayName   string
	Selector      *view.Selector
	Data          *dataset.LoadResult
	CreatedAt     time.Time
	LastSeen      time.Time
}

// Info is a read-only snapshot of a session
type Info struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	DisplayName   string    `json:"display_name"`
	View          string    `json:"view"`
	CreatedAt     time.Time `json:"created_at"`
	LastSeen      time.Time `json:"last_seen"`
}

// Lock serializes work on the session
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// Snapshot copies the session state under its lock
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:            s.ID,
		Authenticated: s.Authenticated,
		DisplayName:   s.DisplayName,
		View:          s.Selector.Current().String(),
		CreatedAt:     s.CreatedAt,
		LastSeen:      s.LastSeen,
	}
}

// Manager owns every live session
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
	logger   *internal.Logger
	metrics  *metrics.Recorder
}

// NewManager creates a manager expiring sessions idle for longer than idle
func NewManager(idle time.Duration, logger *internal.Logger, recorder *metrics.Recorder) *Manager {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Manager{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
		logger:   logger.Named("session"),
		metrics:  recorder,
	}
}

// Create starts a new unauthenticated session
func (m *Manager) Create() (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate session id")
	}

	now := m.now()
	s := &Session{
		ID:          id.String(),
		DisplayName: GuestName,
		Selector:    view.NewSelector(),
		CreatedAt:   now,
		LastSeen:    now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetSessions(n)
	m.logger.Debug("session %s created", s.ID)
	return s, nil
}

// Get returns a live session and refreshes its idle clock. Expired sessions
// are ended and reported as absent.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}

	now := m.now()
	s.mu.Lock()
	expired := m.expired(s, now)
	if !expired {
		s.LastSeen = now
	}
	s.mu.Unlock()

	if expired {
		m.End(id)
		return nil, false
	}
	return s, true
}

// Authenticate marks the session as logged in under identity
func (m *Manager) Authenticate(id string, identity ports.Identity) error {
	s, ok := m.Get(id)
	if !ok {
		return errors.NotFound("session " + id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Authenticated = true
	s.Username = identity.Username
	s.DisplayName = identity.DisplayName
	if s.DisplayName == "" {
		s.DisplayName = identity.Username
	}
	m.logger.Info("session %s authenticated as %s", id, identity.Username)
	return nil
}

// End tears down a session. Ending an unknown session is a no-op.
func (m *Manager) End(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.metrics.SetSessions(n)
		m.logger.Debug("session %s ended", id)
	}
}

// Sweep ends every idle session and returns how many were removed
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		// a session busy rendering is not idle
		if !s.mu.TryLock() {
			continue
		}
		if m.expired(s, now) {
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}
	for _, id := range stale {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if len(stale) > 0 {
		m.metrics.SetSessions(n)
		m.logger.Debug("swept %d idle sessions", len(stale))
	}
	return len(stale)
}

// Len returns the live session count
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartSweeper sweeps idle sessions every interval until ctx is done
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.idle > 0 && now.Sub(s.LastSeen) > m.idle
}
