package player

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Registry maps guilds to their playback sessions. Entries are created on
// first use and removed exactly once when the session terminates; a later
// lookup for the same guild gets a brand-new session.
type Registry struct {
	cfg     Config
	display DisplaySink

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. All sessions it constructs share
// the given config and display sink.
func NewRegistry(cfg Config, display DisplaySink) *Registry {
	return &Registry{
		cfg:      cfg,
		display:  display,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the guild's session, constructing one if needed.
func (r *Registry) GetOrCreate(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := NewSession(guildID, r.cfg, r.display, r.remove)
	r.sessions[guildID] = s
	return s
}

// Get returns the guild's session if one exists.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ShutdownAll terminates every session; used on process exit.
func (r *Registry) ShutdownAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Shutdown()
		<-s.Done()
	}
}

func (r *Registry) remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
	zlog.Info().Str("guild", guildID).Msg("Removed session from registry")
}
