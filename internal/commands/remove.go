package commands

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/imnhyneko/hatsune/pkg/player"
)

// RemoveCommand removes a single pending track by its 1-based queue position.
func RemoveCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		sendEmbedMessage(s, m.ChannelID, "❌ Usage Error", "Please provide a queue position, e.g. `!remove 2`.", 0xff0000)
		return
	}

	pos, err := strconv.Atoi(args[0])
	if err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Invalid position. Use `!queue` to see queue positions.", 0xff0000)
		return
	}

	session, ok := registry.Get(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "No queue found for this server.", 0xff0000)
		return
	}

	track, err := session.RemoveFromQueue(pos)
	if err != nil {
		if errors.Is(err, player.ErrInvalidIndex) {
			sendEmbedMessage(s, m.ChannelID, "❌ Error", "No track at that position. Use `!queue` to see queue positions.", 0xff0000)
			return
		}
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to remove the track.", 0xff0000)
		return
	}

	sendEmbedMessage(s, m.ChannelID, "🗑️ Track Removed", fmt.Sprintf("Removed **%s** from the queue.", track.Title), 0x00ff00)
}
