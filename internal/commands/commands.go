package commands

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/internal/config"
	"github.com/imnhyneko/hatsune/pkg/player"
	"github.com/imnhyneko/hatsune/pkg/store"
)

// Package-level wiring shared by every command handler. Populated once
// from main via Setup before the Discord session opens.
var (
	registry *player.Registry
	resolver player.TrackProvider
	sink     player.DisplaySink
	settings *store.Store
	cfg      *config.Config
)

// Setup injects the shared services the command handlers depend on.
func Setup(r *player.Registry, p player.TrackProvider, d player.DisplaySink, st *store.Store, c *config.Config) {
	registry = r
	resolver = p
	sink = d
	settings = st
	cfg = c
}

// sendEmbedMessage sends a simple one-field embed to the given channel.
func sendEmbedMessage(s *discordgo.Session, channelID, title, description string, color int) {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Error().Err(err).Str("channel", channelID).Msg("Failed to send embed message")
	}
}

// activeSession returns the guild's session only when it has a live
// voice transport, which is what most playback commands require.
func activeSession(guildID string) (*player.Session, bool) {
	session, ok := registry.Get(guildID)
	if !ok || session.Transport() == nil {
		return nil, false
	}
	return session, true
}
