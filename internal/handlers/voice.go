package handlers

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/internal/config"
	"github.com/imnhyneko/hatsune/pkg/player"
)

// VoiceWatcher shuts a guild session down after the bot has been alone
// in its voice channel for the configured grace period. Every voice
// state change re-evaluates the channel, so a listener coming back in
// time cancels the pending shutdown.
type VoiceWatcher struct {
	cfg      *config.Config
	registry *player.Registry
	sink     player.DisplaySink

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewVoiceWatcher(cfg *config.Config, registry *player.Registry, sink player.DisplaySink) *VoiceWatcher {
	return &VoiceWatcher{
		cfg:      cfg,
		registry: registry,
		sink:     sink,
		timers:   make(map[string]*time.Timer),
	}
}

// Handle is the VoiceStateUpdate handler.
func (w *VoiceWatcher) Handle(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	guildID := v.GuildID
	if guildID == "" {
		return
	}

	session, ok := w.registry.Get(guildID)
	if !ok {
		w.cancelTimer(guildID)
		return
	}
	tr := session.Transport()
	if tr == nil || tr.ChannelID() == "" {
		w.cancelTimer(guildID)
		return
	}

	if w.alone(s, guildID, tr.ChannelID()) {
		w.scheduleShutdown(s, guildID)
	} else {
		w.cancelTimer(guildID)
	}
}

// alone reports whether no non-bot user shares the given voice channel.
func (w *VoiceWatcher) alone(s *discordgo.Session, guildID, channelID string) bool {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return false
	}
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		member, err := s.State.Member(guildID, vs.UserID)
		if err != nil || member.User == nil || member.User.Bot {
			continue
		}
		return false
	}
	return true
}

func (w *VoiceWatcher) scheduleShutdown(s *discordgo.Session, guildID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, pending := w.timers[guildID]; pending {
		return
	}

	grace := w.cfg.AloneGrace()
	log.Info().Str("guild", guildID).Dur("grace", grace).Msg("Alone in voice channel, scheduling shutdown")

	w.timers[guildID] = time.AfterFunc(grace, func() {
		w.mu.Lock()
		delete(w.timers, guildID)
		w.mu.Unlock()

		session, ok := w.registry.Get(guildID)
		if !ok {
			return
		}
		tr := session.Transport()
		if tr == nil || !w.alone(s, guildID, tr.ChannelID()) {
			return
		}

		log.Info().Str("guild", guildID).Msg("Still alone after grace period, shutting session down")
		if ch := session.TextChannelID(); ch != "" {
			w.sink.Notify(ch, "👋 Left the voice channel since nobody was listening.")
		}
		session.Shutdown()
	})
}

func (w *VoiceWatcher) cancelTimer(guildID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[guildID]; ok {
		t.Stop()
		delete(w.timers, guildID)
	}
}
