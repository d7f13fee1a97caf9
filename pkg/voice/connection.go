// Package voice implements the Discord voice transport: one connection per
// guild feeding 20ms Opus frames from an ffmpeg-decoded audio file.
package voice

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/pkg/player"
)

var (
	ErrNotInVoice   = errors.New("user is not in a voice channel")
	ErrNotConnected = errors.New("voice connection is not established")
)

// Connection is a live voice connection for one guild. It implements
// player.VoiceTransport.
type Connection struct {
	guildID string

	mu     sync.Mutex
	vc     *discordgo.VoiceConnection
	active *stream
}

// FindUserChannel returns the voice channel the user currently sits in.
func FindUserChannel(s *discordgo.Session, guildID, userID string) (string, error) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", errors.Wrap(err, "could not find guild")
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}
	return "", ErrNotInVoice
}

// Join connects to the given voice channel with retry and waits for the
// connection to become ready.
func Join(s *discordgo.Session, guildID, channelID string) (*Connection, error) {
	zlog.Info().Str("guild", guildID).Str("channel", channelID).Msg("Joining voice channel")

	var vc *discordgo.VoiceConnection
	var err error
	maxRetries := 3

	for i := 0; i < maxRetries; i++ {
		vc, err = s.ChannelVoiceJoin(guildID, channelID, false, true)
		if err == nil {
			break
		}
		zlog.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries).Msg("Voice join attempt failed")
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to join voice channel after %d attempts", maxRetries)
	}

	// Wait for the connection to become ready.
	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			vc.Disconnect()
			return nil, errors.New("voice connection timed out")
		case <-ticker.C:
			if vc.Ready {
				zlog.Info().Str("guild", guildID).Msg("Voice connection ready")
				return &Connection{guildID: guildID, vc: vc}, nil
			}
		}
	}
}

// Play starts streaming the track's backing file. Any stream still active
// on this connection is stopped first; its completion callback fires as
// usual.
func (c *Connection) Play(t *player.Track, volume float64, startAt time.Duration, onComplete func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return ErrNotConnected
	}
	if c.active != nil {
		c.active.stop()
		c.active = nil
	}

	st, err := startStream(c.vc, t.FilePath, volume, startAt, onComplete)
	if err != nil {
		return errors.Wrapf(err, "failed to start stream for %q", t.Title)
	}
	c.active = st
	return nil
}

// Stop ends the active stream, raising its completion callback.
func (c *Connection) Stop() {
	c.mu.Lock()
	st := c.active
	c.active = nil
	c.mu.Unlock()

	if st != nil {
		st.stop()
	}
}

// Pause suspends frame delivery without ending the stream.
func (c *Connection) Pause() {
	if st := c.currentStream(); st != nil {
		st.setPaused(true)
	}
}

// Resume restarts frame delivery after a pause.
func (c *Connection) Resume() {
	if st := c.currentStream(); st != nil {
		st.setPaused(false)
	}
}

// SetVolume applies a new volume to the active stream immediately.
func (c *Connection) SetVolume(v float64) {
	if st := c.currentStream(); st != nil {
		st.setVolume(v)
	}
}

// IsPlaying reports whether audio is actively being streamed.
func (c *Connection) IsPlaying() bool {
	st := c.currentStream()
	return st != nil && st.running() && !st.isPaused()
}

// IsPaused reports whether an active stream is paused.
func (c *Connection) IsPaused() bool {
	st := c.currentStream()
	return st != nil && st.running() && st.isPaused()
}

// MoveTo moves the connection to another voice channel in the guild.
func (c *Connection) MoveTo(channelID string) error {
	c.mu.Lock()
	vc := c.vc
	c.mu.Unlock()

	if vc == nil {
		return ErrNotConnected
	}
	zlog.Info().Str("guild", c.guildID).Str("channel", channelID).Msg("Moving to voice channel")
	return vc.ChangeChannel(channelID, false, true)
}

// ChannelID returns the voice channel currently connected to.
func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return ""
	}
	return c.vc.ChannelID
}

// Disconnect drops the voice connection.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	st := c.active
	vc := c.vc
	c.active = nil
	c.vc = nil
	c.mu.Unlock()

	if st != nil {
		st.stop()
	}
	if vc == nil {
		return nil
	}
	zlog.Info().Str("guild", c.guildID).Msg("Disconnected from voice channel")
	return vc.Disconnect()
}

func (c *Connection) currentStream() *stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
