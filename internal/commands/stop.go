package commands

import (
	"github.com/bwmarrin/discordgo"
)

// StopCommand tears the whole guild session down: playback stops, the
// queue is dropped and the bot leaves the voice channel.
func StopCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := registry.Get(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}

	session.Shutdown()
	sendEmbedMessage(s, m.ChannelID, "⏹️ Stopped", "Stopped playback and left the voice channel.", 0x808080)
}
