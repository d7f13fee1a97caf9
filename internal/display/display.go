// Package display renders playback status to Discord. Every operation is
// best effort: send and edit failures are logged and swallowed so they can
// never disturb the playback loop.
package display

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/pkg/player"
)

const embedColor = 0x39D0D6

// Discord posts now-playing panels and notifications through a discordgo
// session. It tracks the panel message per guild so a new track replaces
// the old panel instead of piling up.
type Discord struct {
	session *discordgo.Session

	mu     sync.Mutex
	panels map[string]panelRef // guildID -> posted panel
}

type panelRef struct {
	channelID string
	messageID string
}

// New creates a display sink bound to the session.
func New(s *discordgo.Session) *Discord {
	return &Discord{
		session: s,
		panels:  make(map[string]panelRef),
	}
}

// ShowNowPlaying replaces the guild's now-playing panel with the current
// snapshot.
func (d *Discord) ShowNowPlaying(np player.NowPlaying) {
	if np.TextChannelID == "" || np.Track == nil {
		return
	}

	d.deletePanel(np.GuildID)

	msg, err := d.session.ChannelMessageSendEmbed(np.TextChannelID, buildNowPlayingEmbed(np))
	if err != nil {
		zlog.Warn().Err(err).Str("guild", np.GuildID).Msg("Could not send now-playing panel")
		return
	}

	d.mu.Lock()
	d.panels[np.GuildID] = panelRef{channelID: np.TextChannelID, messageID: msg.ID}
	d.mu.Unlock()
}

// ClearNowPlaying removes the guild's now-playing panel, if present.
func (d *Discord) ClearNowPlaying(guildID string) {
	d.deletePanel(guildID)
}

// Notify sends a plain message to the channel.
func (d *Discord) Notify(channelID, message string) {
	if channelID == "" {
		return
	}
	if _, err := d.session.ChannelMessageSend(channelID, message); err != nil {
		zlog.Warn().Err(err).Str("channel", channelID).Msg("Could not send notification")
	}
}

func (d *Discord) deletePanel(guildID string) {
	d.mu.Lock()
	ref, ok := d.panels[guildID]
	delete(d.panels, guildID)
	d.mu.Unlock()

	if !ok {
		return
	}
	if err := d.session.ChannelMessageDelete(ref.channelID, ref.messageID); err != nil {
		zlog.Debug().Err(err).Str("guild", guildID).Msg("Could not delete old now-playing panel")
	}
}

func buildNowPlayingEmbed(np player.NowPlaying) *discordgo.MessageEmbed {
	t := np.Track

	status := "Now playing 🎵"
	if np.Paused {
		status = "Paused ⏸️"
	}

	nextTitle := "Nothing"
	if len(np.UpNext) > 0 {
		nextTitle = truncate(np.UpNext[0].Title, 50)
	}

	loopLabel := map[player.LoopMode]string{
		player.LoopOff:   "Off",
		player.LoopTrack: "🔁 Track",
		player.LoopQueue: "🔁 Queue",
	}[np.Loop]

	total := len(np.UpNext) + 1

	return &discordgo.MessageEmbed{
		Title: t.Title,
		URL:   t.URL,
		Color: embedColor,
		Author: &discordgo.MessageEmbedAuthor{
			Name: fmt.Sprintf("%s (Volume: %d%%)", status, int(np.Volume*100)),
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: orNA(t.Uploader), Inline: true},
			{Name: "Duration", Value: t.FormatDuration(), Inline: true},
			{Name: "Requested by", Value: orNA(t.RequestedBy), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Next: %s | Loop: %s | Total: %d tracks", nextTitle, loopLabel, total),
		},
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
