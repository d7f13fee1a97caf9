package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ClearCommand drops every pending track. The current track keeps playing.
func ClearCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := registry.Get(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "No queue found for this server.", 0xff0000)
		return
	}

	removed := session.ClearQueue()
	if removed == 0 {
		sendEmbedMessage(s, m.ChannelID, "📭 Queue Already Empty", "The queue is already empty.", 0x808080)
		return
	}

	sendEmbedMessage(s, m.ChannelID, "🧹 Queue Cleared", fmt.Sprintf("Removed %d tracks from the queue.", removed), 0x00ff00)
}
