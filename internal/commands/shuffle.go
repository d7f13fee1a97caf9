package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/imnhyneko/hatsune/pkg/player"
)

// ShuffleCommand randomizes the order of the pending queue.
func ShuffleCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	session, ok := registry.Get(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "No queue found for this server.", 0xff0000)
		return
	}

	if err := session.ShuffleQueue(); err != nil {
		if errors.Is(err, player.ErrTooFewTracks) {
			sendEmbedMessage(s, m.ChannelID, "❌ Error", "Need at least 2 tracks in the queue to shuffle.", 0xff0000)
			return
		}
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to shuffle the queue.", 0xff0000)
		return
	}

	sendEmbedMessage(s, m.ChannelID, "🔀 Queue Shuffled", "The queue has been shuffled.", 0x00ff00)
}
