package commands

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ShowHelpCommand displays all available commands with their descriptions using embeds
func ShowHelpCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       "Hatsune",
		Description: "Here are all the available commands for the bot:",
		Color:       0x39d0d6,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Hatsune | Created by imnhyneko | 2026",
		},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Music Commands",
				Value: strings.Join([]string{
					"• `" + cfg.Prefix + "play <url or keywords>` / `" + cfg.Prefix + "p` - Play a YouTube video by URL or search",
					"• `" + cfg.Prefix + "play` - Toggle pause/resume of the current track",
					"• `" + cfg.Prefix + "nowplaying` / `" + cfg.Prefix + "np` - Re-show the now playing panel",
					"• `" + cfg.Prefix + "queue` / `" + cfg.Prefix + "q` - List the current queue",
					"• `" + cfg.Prefix + "remove <index>` - Remove a track from the queue",
					"• `" + cfg.Prefix + "clear` - Clear the entire queue",
					"• `" + cfg.Prefix + "shuffle` - Shuffle the queue",
					"• `" + cfg.Prefix + "loop` - Cycle loop mode (off → track → queue)",
					"• `" + cfg.Prefix + "seek <M:SS>` - Jump to a position in the current track",
					"• `" + cfg.Prefix + "volume [0-200]` - Show or set the playback volume",
					"• `" + cfg.Prefix + "pause` - Pause the current playback",
					"• `" + cfg.Prefix + "resume` - Resume paused playback",
					"• `" + cfg.Prefix + "skip` - Skip the currently playing track",
					"• `" + cfg.Prefix + "stop` - Stop playback and disconnect from voice channel",
				}, "\n"),
				Inline: false,
			},
			{
				Name: "💡 Tips",
				Value: strings.Join([]string{
					"• Join a voice channel **before** using music commands",
					"• Only **YouTube links and searches** are currently supported",
					"• Volume changes are remembered per server",
				}, "\n"),
				Inline: false,
			},
		},
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		s.ChannelMessageSend(m.ChannelID, "Failed to render the help message.")
	}
}
