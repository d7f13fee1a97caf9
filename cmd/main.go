package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/internal/commands"
	"github.com/imnhyneko/hatsune/internal/config"
	"github.com/imnhyneko/hatsune/internal/display"
	"github.com/imnhyneko/hatsune/internal/handlers"
	"github.com/imnhyneko/hatsune/internal/presence"
	"github.com/imnhyneko/hatsune/pkg/logging"
	"github.com/imnhyneko/hatsune/pkg/player"
	"github.com/imnhyneko/hatsune/pkg/provider"
	"github.com/imnhyneko/hatsune/pkg/store"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logging.Init(cfg.LogLevel)

	settings, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open settings database")
	}
	defer settings.Close()

	resolver, err := provider.NewYouTube(cfg.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare track cache")
	}

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentMessageContent

	presenceManager := presence.NewManager(dg)
	sink := presence.NewSink(display.New(dg), presenceManager)

	registry := player.NewRegistry(player.Config{
		InactivityTimeout: cfg.InactivityTimeout(),
		DefaultVolume:     float64(cfg.DefaultVolumePercent) / 100,
	}, sink)

	commands.Setup(registry, resolver, sink, settings, cfg)

	watcher := handlers.NewVoiceWatcher(cfg, registry, sink)
	dg.AddHandler(handlers.NewMessageHandler(cfg))
	dg.AddHandler(watcher.Handle)
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Bot is ready")
		presenceManager.UpdateDefaultPresence()
	})

	if err := dg.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open Discord session")
	}

	presenceManager.StartPeriodicUpdates()

	log.Info().Msg("Bot is running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	log.Info().Msg("Shutting down")
	registry.ShutdownAll()
	dg.Close()
}
