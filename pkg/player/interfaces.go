package player

import (
	"context"
	"time"
)

// VoiceTransport is the live voice connection a session streams through.
// Implementations own one connection per guild. The onComplete callback
// passed to Play must fire exactly once per call, whatever ends the stream
// (natural end, Stop or an error), and must be safe to invoke from any
// goroutine.
type VoiceTransport interface {
	// Play starts streaming the track's audio source at the given volume,
	// beginning startAt into the track.
	Play(t *Track, volume float64, startAt time.Duration, onComplete func(error)) error

	// Stop ends the active stream, raising its completion callback.
	Stop()

	Pause()
	Resume()

	// SetVolume applies a new volume to the active stream immediately.
	SetVolume(v float64)

	IsPlaying() bool
	IsPaused() bool

	// MoveTo moves the connection to another voice channel in the guild.
	MoveTo(channelID string) error

	// ChannelID returns the voice channel currently connected to.
	ChannelID() string

	// Disconnect drops the voice connection. The transport is unusable
	// afterwards.
	Disconnect() error
}

// TrackProvider resolves a query or URL into a playable Track. Resolution
// may take arbitrary time and must be called off the session loop.
type TrackProvider interface {
	Resolve(ctx context.Context, query, requestedBy string) (*Track, error)
}

// NowPlaying is a read-only snapshot of a session handed to the display
// sink.
type NowPlaying struct {
	GuildID       string
	TextChannelID string
	Track         *Track
	Volume        float64
	Loop          LoopMode
	Paused        bool
	UpNext        []*Track
}

// DisplaySink renders playback status to the chat platform. All methods
// are best effort: failures are logged by the implementation and never
// reach the session.
type DisplaySink interface {
	ShowNowPlaying(np NowPlaying)
	ClearNowPlaying(guildID string)
	Notify(channelID, message string)
}
