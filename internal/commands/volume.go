package commands

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/pkg/player"
)

// VolumeCommand shows or sets the guild's playback volume (0-200%).
// The value is persisted so the guild gets it back on the next session.
func VolumeCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	guildID := m.GuildID

	if len(args) < 1 {
		percent := cfg.DefaultVolumePercent
		if session, ok := registry.Get(guildID); ok {
			percent = int(session.Volume() * 100)
		} else if stored, ok, err := settings.VolumePercent(guildID); err == nil && ok {
			percent = stored
		}
		sendEmbedMessage(s, m.ChannelID, "🔊 Volume", fmt.Sprintf("Current volume is **%d%%**.", percent), 0x7289da)
		return
	}

	percent, err := strconv.Atoi(args[0])
	if err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Volume must be a number between 0 and 200.", 0xff0000)
		return
	}

	if session, ok := registry.Get(guildID); ok {
		if err := session.SetVolume(percent); err != nil {
			if errors.Is(err, player.ErrVolumeOutOfRange) {
				sendEmbedMessage(s, m.ChannelID, "❌ Error", "Volume must be between 0 and 200.", 0xff0000)
				return
			}
			sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to change the volume.", 0xff0000)
			return
		}
	} else if percent < 0 || percent > 200 {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Volume must be between 0 and 200.", 0xff0000)
		return
	}

	if err := settings.SetVolumePercent(guildID, percent); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to persist volume")
	}

	sendEmbedMessage(s, m.ChannelID, "🔊 Volume", fmt.Sprintf("Volume set to **%d%%**.", percent), 0x00ff00)
}
