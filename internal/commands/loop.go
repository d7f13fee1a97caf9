package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/imnhyneko/hatsune/pkg/player"
)

// LoopCommand cycles the loop mode: off -> track -> queue -> off.
func LoopCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := registry.Get(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}

	switch session.CycleLoop() {
	case player.LoopTrack:
		sendEmbedMessage(s, m.ChannelID, "🔂 Loop", "Now looping the current track.", 0x00ff00)
	case player.LoopQueue:
		sendEmbedMessage(s, m.ChannelID, "🔁 Loop", "Now looping the whole queue.", 0x00ff00)
	default:
		sendEmbedMessage(s, m.ChannelID, "➡️ Loop", "Looping disabled.", 0x808080)
	}
}
