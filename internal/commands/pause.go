package commands

import (
	"github.com/bwmarrin/discordgo"
)

func PauseCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := activeSession(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}

	tr := session.Transport()
	if tr.IsPaused() {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Playback is already paused.", 0xff0000)
		return
	}

	if _, err := session.PauseResume(); err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "⏸️ Playback Paused", "Music playback has been paused.", 0xffa500)
}

func ResumeCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := activeSession(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}

	tr := session.Transport()
	if !tr.IsPaused() {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Playback is not paused.", 0xff0000)
		return
	}

	if _, err := session.PauseResume(); err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "▶️ Playback Resumed", "Music playback has been resumed.", 0x00ff00)
}
