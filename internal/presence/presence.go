package presence

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/pkg/player"
)

// Manager keeps the bot's Discord presence in sync with playback.
// While any guild is playing, the presence shows the most recent track;
// otherwise it falls back to a periodic server-count status.
type Manager struct {
	session *discordgo.Session

	mu      sync.Mutex
	playing map[string]string // guildID -> track title
}

func NewManager(session *discordgo.Session) *Manager {
	return &Manager{
		session: session,
		playing: make(map[string]string),
	}
}

// UpdateDefaultPresence sets the idle watching status with server stats.
func (m *Manager) UpdateDefaultPresence() {
	guilds := m.session.State.Guilds

	presence := discordgo.UpdateStatusData{
		Status: "online",
		Activities: []*discordgo.Activity{
			{
				Name: fmt.Sprintf("%d servers", len(guilds)),
				Type: discordgo.ActivityTypeWatching,
			},
		},
	}

	if err := m.session.UpdateStatusComplex(presence); err != nil {
		log.Warn().Err(err).Msg("Failed to update default presence")
	}
}

// TrackStarted records the guild's current track and shows it.
func (m *Manager) TrackStarted(guildID, title string) {
	m.mu.Lock()
	m.playing[guildID] = title
	m.mu.Unlock()

	m.showListening(title)
}

func (m *Manager) showListening(title string) {
	presence := discordgo.UpdateStatusData{
		Status: "online",
		Activities: []*discordgo.Activity{
			{
				Name:  "to",
				Type:  discordgo.ActivityTypeListening,
				State: title,
			},
		},
	}

	if err := m.session.UpdateStatusComplex(presence); err != nil {
		log.Warn().Err(err).Msg("Failed to update music presence")
	}
}

// TrackStopped drops the guild's track. If another guild is still
// playing its track takes over, otherwise the default status returns.
func (m *Manager) TrackStopped(guildID string) {
	m.mu.Lock()
	delete(m.playing, guildID)
	var next string
	for _, title := range m.playing {
		next = title
		break
	}
	m.mu.Unlock()

	if next != "" {
		m.showListening(next)
		return
	}
	m.UpdateDefaultPresence()
}

// StartPeriodicUpdates refreshes the default presence every few minutes
// while nothing is playing.
func (m *Manager) StartPeriodicUpdates() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			m.mu.Lock()
			idle := len(m.playing) == 0
			m.mu.Unlock()
			if idle {
				m.UpdateDefaultPresence()
			}
		}
	}()
}

// Sink decorates a DisplaySink so presence follows the now-playing panel.
type Sink struct {
	player.DisplaySink
	manager *Manager
}

func NewSink(inner player.DisplaySink, manager *Manager) *Sink {
	return &Sink{DisplaySink: inner, manager: manager}
}

func (s *Sink) ShowNowPlaying(np player.NowPlaying) {
	if np.Track != nil {
		s.manager.TrackStarted(np.GuildID, np.Track.Title)
	}
	s.DisplaySink.ShowNowPlaying(np)
}

func (s *Sink) ClearNowPlaying(guildID string) {
	s.manager.TrackStopped(guildID)
	s.DisplaySink.ClearNowPlaying(guildID)
}
