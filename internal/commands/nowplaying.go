package commands

import (
	"github.com/bwmarrin/discordgo"
)

// NowPlayingCommand re-renders the now-playing panel in the guild's
// bound text channel so it lands at the bottom of the conversation.
func NowPlayingCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := registry.Get(m.GuildID)
	if !ok || session.Current() == nil {
		sendEmbedMessage(s, m.ChannelID, "🎵 Now Playing", "Nothing is currently playing.", 0x808080)
		return
	}

	session.SetTextChannel(m.ChannelID)
	sink.ShowNowPlaying(session.Snapshot())
}
