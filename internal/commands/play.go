package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/pkg/player"
	"github.com/imnhyneko/hatsune/pkg/voice"
)

// resolveTimeout caps how long a single search + download may take.
const resolveTimeout = 3 * time.Minute

// PlayCommand handles the play command. With no arguments it toggles
// pause on the current track; with arguments it resolves the query and
// enqueues the result, joining the caller's voice channel if needed.
func PlayCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	guildID := m.GuildID

	if len(args) < 1 {
		session, ok := activeSession(guildID)
		if !ok {
			sendEmbedMessage(s, m.ChannelID, "❌ Usage Error", "Please provide a YouTube URL or search query.", 0xff0000)
			return
		}
		paused, err := session.PauseResume()
		if err != nil {
			sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
			return
		}
		if paused {
			sendEmbedMessage(s, m.ChannelID, "⏸️ Playback Paused", "Music playback has been paused.", 0xffa500)
		} else {
			sendEmbedMessage(s, m.ChannelID, "▶️ Playback Resumed", "Music playback has been resumed.", 0x00ff00)
		}
		return
	}

	channelID, err := voice.FindUserChannel(s, guildID, m.Author.ID)
	if err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "You must be in a voice channel to play music.", 0xff0000)
		return
	}

	session := registry.GetOrCreate(guildID)
	session.SetTextChannel(m.ChannelID)

	if err := ensureVoice(s, session, guildID, channelID); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to set up voice connection")
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to join your voice channel.", 0xff0000)
		return
	}

	query := strings.Join(args, " ")
	sendEmbedMessage(s, m.ChannelID, "🔍 Resolving", fmt.Sprintf("Looking up **%s**...", query), 0x7289da)

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	track, err := resolver.Resolve(ctx, query, m.Author.Username)
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Str("query", query).Msg("Failed to resolve track")
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to find or download that track. Please check the URL or try another search.", 0xff0000)
		return
	}

	position, err := session.EnqueueAndStart(track)
	if errors.Is(err, player.ErrTerminated) {
		// The session we captured died while we were resolving (inactivity
		// timeout or a stop). Start over with a clean one.
		log.Info().Str("guild", guildID).Msg("Session ended during track resolution, starting a fresh one")
		session = registry.GetOrCreate(guildID)
		session.SetTextChannel(m.ChannelID)
		if err := ensureVoice(s, session, guildID, channelID); err != nil {
			log.Error().Err(err).Str("guild", guildID).Msg("Failed to set up voice connection")
			track.Release()
			sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to join your voice channel.", 0xff0000)
			return
		}
		position, err = session.EnqueueAndStart(track)
	}
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Str("track", track.Title).Msg("Failed to enqueue track")
		track.Release()
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to queue that track. Please try again.", 0xff0000)
		return
	}

	description := fmt.Sprintf("✅ Added **%s** to queue (Position: %d)", track.Title, position)
	sendEmbedMessage(s, m.ChannelID, "🎵 Song Added", description, 0x00ff00)
}

// ensureVoice makes sure the session has a live transport in the caller's
// channel: joining on first use (restoring the guild's saved volume) or
// moving an existing connection.
func ensureVoice(s *discordgo.Session, session *player.Session, guildID, channelID string) error {
	if tr := session.Transport(); tr != nil {
		if tr.ChannelID() != channelID {
			return tr.MoveTo(channelID)
		}
		return nil
	}

	conn, err := voice.Join(s, guildID, channelID)
	if err != nil {
		return err
	}
	session.SetTransport(conn)

	// Restore the volume this guild last used, if any.
	if percent, ok, err := settings.VolumePercent(guildID); err == nil && ok {
		if err := session.SetVolume(percent); err != nil {
			log.Warn().Err(err).Str("guild", guildID).Int("percent", percent).Msg("Ignoring stored volume")
		}
	}
	return nil
}
