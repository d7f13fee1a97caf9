package commands

import (
	"github.com/bwmarrin/discordgo"
)

func SkipCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := activeSession(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}

	if err := session.Skip(); err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "⏭️ Skipped", "Skipped to the next song.", 0x00ff00)
}
