package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/imnhyneko/hatsune/internal/commands"
	"github.com/imnhyneko/hatsune/internal/config"
)

// NewMessageHandler returns the MessageCreate handler that dispatches
// prefix commands to the command package.
func NewMessageHandler(cfg *config.Config) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore all messages created by the bot itself
		if m.Author.ID == s.State.User.ID {
			return
		}

		// Commands only make sense inside a guild
		if m.GuildID == "" {
			return
		}

		if !strings.HasPrefix(m.Content, cfg.Prefix) {
			return
		}

		args := strings.Fields(strings.TrimPrefix(m.Content, cfg.Prefix))
		if len(args) == 0 {
			return
		}
		command := strings.ToLower(args[0])

		switch command {
		case "play", "p":
			commands.PlayCommand(s, m, args[1:])
		case "pause":
			commands.PauseCommand(s, m)
		case "resume":
			commands.ResumeCommand(s, m)
		case "skip", "s":
			commands.SkipCommand(s, m)
		case "stop":
			commands.StopCommand(s, m)
		case "seek":
			commands.SeekCommand(s, m, args[1:])
		case "volume", "vol":
			commands.VolumeCommand(s, m, args[1:])
		case "queue", "q":
			commands.QueueCommand(s, m)
		case "loop":
			commands.LoopCommand(s, m)
		case "shuffle":
			commands.ShuffleCommand(s, m)
		case "remove", "rm":
			commands.RemoveCommand(s, m, args[1:])
		case "clear":
			commands.ClearCommand(s, m)
		case "nowplaying", "np":
			commands.NowPlayingCommand(s, m)
		case "help", "h":
			commands.ShowHelpCommand(s, m)
		default:
			s.ChannelMessageSend(m.ChannelID, "Unknown command. Try "+cfg.Prefix+"help for the full list.")
		}
	}
}
