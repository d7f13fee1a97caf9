package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// queuePageSize caps how many upcoming tracks the embed lists.
const queuePageSize = 10

// QueueCommand shows the current track and the upcoming queue.
func QueueCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := registry.Get(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "📭 Queue Empty", "The queue is empty.", 0x808080)
		return
	}

	np := session.Snapshot()
	if np.Track == nil && len(np.UpNext) == 0 {
		sendEmbedMessage(s, m.ChannelID, "📭 Queue Empty", "The queue is empty.", 0x808080)
		return
	}

	var body strings.Builder
	if np.Track != nil {
		body.WriteString(fmt.Sprintf("🎶 **Now Playing:** %s `[%s]` (Requested by: %s)\n\n",
			np.Track.Title, np.Track.FormatDuration(), np.Track.RequestedBy))
	}

	if len(np.UpNext) > 0 {
		body.WriteString("📋 **Up Next:**\n")
		for i, item := range np.UpNext {
			if i >= queuePageSize {
				body.WriteString(fmt.Sprintf("...and %d more\n", len(np.UpNext)-queuePageSize))
				break
			}
			body.WriteString(fmt.Sprintf("%d. **%s** `[%s]` (Requested by: %s)\n",
				i+1, item.Title, item.FormatDuration(), item.RequestedBy))
		}
	} else {
		body.WriteString("📋 No songs in queue.\n")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Music Queue",
		Description: body.String(),
		Color:       0x39d0d6,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Loop: %s | Total: %d tracks", np.Loop, len(np.UpNext)),
		},
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to render the queue.", 0xff0000)
	}
}
