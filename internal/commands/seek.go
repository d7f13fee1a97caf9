package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/imnhyneko/hatsune/pkg/player"
)

// SeekCommand jumps to an absolute position in the current track.
// Accepts plain seconds ("90"), M:SS ("1:30") or H:MM:SS ("1:02:30").
func SeekCommand(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		sendEmbedMessage(s, m.ChannelID, "❌ Usage Error", "Please provide a position, e.g. `!seek 1:30` or `!seek 90`.", 0xff0000)
		return
	}

	target, err := parseTimestamp(args[0])
	if err != nil {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Invalid position. Use seconds or `M:SS` format.", 0xff0000)
		return
	}

	session, ok := activeSession(m.GuildID)
	if !ok {
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
		return
	}

	switch err := session.Seek(target); {
	case err == nil:
		sendEmbedMessage(s, m.ChannelID, "⏩ Seeking", fmt.Sprintf("Jumped to **%s**.", formatTimestamp(target)), 0x00ff00)
	case errors.Is(err, player.ErrNotPlaying):
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Nothing is playing.", 0xff0000)
	case errors.Is(err, player.ErrNoDuration):
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "This track has no known duration, so it cannot be seeked.", 0xff0000)
	case errors.Is(err, player.ErrSeekOutOfRange):
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "That position is outside the track.", 0xff0000)
	default:
		sendEmbedMessage(s, m.ChannelID, "❌ Error", "Failed to seek.", 0xff0000)
	}
}

// parseTimestamp converts "SS", "M:SS" or "H:MM:SS" into a duration.
func parseTimestamp(raw string) (time.Duration, error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, errors.Newf("too many segments in %q", raw)
	}

	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, errors.Newf("bad segment %q", part)
		}
		if i > 0 && n > 59 {
			return 0, errors.Newf("segment %q out of range", part)
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}

func formatTimestamp(d time.Duration) string {
	total := int(d.Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
