package player

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Config carries the deployment-tunable session knobs.
type Config struct {
	// InactivityTimeout is how long the loop waits on an empty queue
	// before tearing the session down.
	InactivityTimeout time.Duration

	// DefaultVolume is the initial volume on the 0.0-2.0 scale.
	DefaultVolume float64
}

// Session owns playback for one guild: the queue, the current track, the
// loop mode and the voice transport. A single loop goroutine drives the
// state machine; external operations arrive concurrently from command
// handlers and are serialized through the session mutex.
type Session struct {
	GuildID string

	cfg     Config
	queue   *Queue
	display DisplaySink
	onEnd   func(guildID string)

	mu            sync.Mutex
	transport     VoiceTransport
	current       *Track
	loop          LoopMode
	volume        float64
	textChannelID string
	restart       bool
	resumeAt      time.Duration
	loopAlive     bool
	terminated    bool
	state         State
	cancel        context.CancelFunc

	endOnce sync.Once
	done    chan struct{}
}

// NewSession creates an idle session for a guild. onEnd fires exactly once
// when the session terminates, after which the session must not be reused.
func NewSession(guildID string, cfg Config, display DisplaySink, onEnd func(string)) *Session {
	vol := cfg.DefaultVolume
	if vol < 0 {
		vol = 0
	}
	if vol > 2 {
		vol = 2
	}
	return &Session{
		GuildID: guildID,
		cfg:     cfg,
		queue:   NewQueue(),
		display: display,
		onEnd:   onEnd,
		volume:  vol,
		state:   StateIdle,
		done:    make(chan struct{}),
	}
}

// SetTransport hands the session its voice connection. The session owns it
// from here on and disconnects it during teardown.
func (s *Session) SetTransport(vt VoiceTransport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = vt
}

// Transport returns the current voice connection, if any.
func (s *Session) Transport() VoiceTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

// SetTextChannel records where status updates and notifications go.
func (s *Session) SetTextChannel(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textChannelID = channelID
}

// TextChannelID returns the last request's text channel.
func (s *Session) TextChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textChannelID
}

// Current returns the track being played, or nil.
func (s *Session) Current() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loop returns the active loop mode.
func (s *Session) Loop() LoopMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// Volume returns the volume on the 0.0-2.0 scale.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// State returns the loop's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session has fully terminated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// EnqueueAndStart appends a track to the queue, starts the loop if it is
// not already running and returns the track's queue position. A session
// that has already terminated returns ErrTerminated without taking the
// track; the caller keeps ownership and should retry against a fresh
// session from the registry.
func (s *Session) EnqueueAndStart(t *Track) (int, error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return 0, ErrTerminated
	}
	pos := s.queue.Enqueue(t)
	s.startLoopLocked()
	s.mu.Unlock()

	zlog.Info().Str("guild", s.GuildID).Str("track", t.Title).Int("position", pos).Msg("Added track to queue")
	return pos, nil
}

// StartLoop launches the playback loop. A no-op while a loop is already
// alive, so concurrent callers cannot double-start it, and a no-op on a
// terminated session, which never comes back.
func (s *Session) StartLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLoopLocked()
}

func (s *Session) startLoopLocked() {
	if s.terminated || s.loopAlive {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.loopAlive = true
	s.cancel = cancel
	go s.run(ctx)
}

// run is the session loop: Acquiring -> Streaming -> Draining, repeated
// until a terminating condition, with cleanup guaranteed on every exit
// path including cancellation.
func (s *Session) run(ctx context.Context) {
	defer s.terminate()

	zlog.Info().Str("guild", s.GuildID).Msg("Started player loop")

	for {
		s.setState(StateAcquiring)

		s.mu.Lock()
		restarting := s.restart
		mode := s.loop
		prev := s.current
		s.mu.Unlock()

		if !restarting {
			// Settle the track that just finished, if any.
			if prev != nil {
				switch mode {
				case LoopQueue:
					s.mu.Lock()
					s.current = nil
					s.mu.Unlock()
					s.queue.Enqueue(prev)
				case LoopTrack:
					// Replayed in place below.
				default:
					s.mu.Lock()
					s.current = nil
					s.mu.Unlock()
					prev.Release()
				}
			}

			if mode != LoopTrack || s.Current() == nil {
				next, err := s.queue.Dequeue(ctx, s.cfg.InactivityTimeout)
				if err != nil {
					if errors.Is(err, ErrInactive) {
						zlog.Info().Str("guild", s.GuildID).Msg("No activity, cleaning up")
						s.notify("😴 Disconnected automatically due to inactivity.")
					}
					return
				}
				s.mu.Lock()
				s.current = next
				s.mu.Unlock()
				zlog.Info().Str("guild", s.GuildID).Str("track", next.Title).Msg("Pulled track from queue")
			}

			s.display.ShowNowPlaying(s.Snapshot())
		}

		s.setState(StateStreaming)

		s.mu.Lock()
		tr := s.transport
		cur := s.current
		vol := s.volume
		startAt := s.resumeAt
		s.restart = false
		s.resumeAt = 0
		s.mu.Unlock()

		if tr == nil {
			zlog.Error().Str("guild", s.GuildID).Msg("No voice transport, stopping loop")
			return
		}

		done := make(chan error, 1)
		var once sync.Once
		complete := func(err error) {
			once.Do(func() { done <- err })
		}

		if err := tr.Play(cur, vol, startAt, complete); err != nil {
			zlog.Error().Err(err).Str("guild", s.GuildID).Str("track", cur.Title).Msg("Fatal error starting stream")
			s.notify("🤖 Hit a fatal playback error, shutting the player down.")
			return
		}

		select {
		case err := <-done:
			if err != nil {
				zlog.Error().Err(err).Str("guild", s.GuildID).Str("track", cur.Title).Msg("Fatal error during stream")
				s.notify("🤖 Hit a fatal playback error, shutting the player down.")
				return
			}
		case <-ctx.Done():
			tr.Stop()
			return
		}

		s.setState(StateDraining)

		s.mu.Lock()
		restarting = s.restart
		mode = s.loop
		s.mu.Unlock()

		if restarting {
			// Seek-driven restream: no requeue, no release, no skip
			// semantics.
			continue
		}

		zlog.Debug().Str("guild", s.GuildID).Str("track", cur.Title).Msg("Track finished")

		if s.queue.Empty() && mode == LoopOff {
			zlog.Info().Str("guild", s.GuildID).Msg("Queue exhausted")
			s.notify("🎶 The queue has finished! Going to rest now (´｡• ᵕ •｡`) ♡")
			return
		}
	}
}

// terminate is the single teardown path. It marks the session terminated
// for good; StartLoop and EnqueueAndStart refuse from then on. The
// transport is disconnected before queued cache files are deleted so the
// decoder cannot still hold them.
func (s *Session) terminate() {
	s.endOnce.Do(func() {
		s.setState(StateTerminating)
		zlog.Info().Str("guild", s.GuildID).Msg("Cleaning up session")

		s.mu.Lock()
		tr := s.transport
		cur := s.current
		cancel := s.cancel
		s.transport = nil
		s.current = nil
		s.loopAlive = false
		s.terminated = true
		s.cancel = nil
		s.mu.Unlock()

		if s.onEnd != nil {
			s.onEnd(s.GuildID)
		}

		if tr != nil {
			tr.Stop()
			if err := tr.Disconnect(); err != nil {
				zlog.Warn().Err(err).Str("guild", s.GuildID).Msg("Voice disconnect failed")
			}
		}

		if cur != nil {
			cur.Release()
		}

		s.display.ClearNowPlaying(s.GuildID)
		s.queue.Clear()

		if cancel != nil {
			cancel()
		}
		close(s.done)
	})
}

// Shutdown forces the session to terminate from any state.
func (s *Session) Shutdown() {
	s.mu.Lock()
	alive := s.loopAlive
	cancel := s.cancel
	tr := s.transport
	// Refuse new work immediately, not just once terminate runs.
	s.terminated = true
	s.mu.Unlock()

	if alive {
		if cancel != nil {
			cancel()
		}
		// Unblock a loop waiting on the stream completion signal.
		if tr != nil {
			tr.Stop()
		}
		return
	}
	s.terminate()
}

// Skip stops the active stream; the loop observes the completion signal
// and moves on through Draining as for a natural end.
func (s *Session) Skip() error {
	s.mu.Lock()
	tr := s.transport
	s.mu.Unlock()

	if tr == nil || (!tr.IsPlaying() && !tr.IsPaused()) {
		return ErrNotPlaying
	}
	tr.Stop()
	return nil
}

// PauseResume toggles the transport's pause state and reports whether
// playback is now paused.
func (s *Session) PauseResume() (bool, error) {
	s.mu.Lock()
	tr := s.transport
	s.mu.Unlock()

	if tr == nil {
		return false, ErrNotPlaying
	}
	switch {
	case tr.IsPaused():
		tr.Resume()
		return false, nil
	case tr.IsPlaying():
		tr.Pause()
		return true, nil
	default:
		return false, ErrNotPlaying
	}
}

// CycleLoop advances off -> track -> queue -> off and returns the new mode.
func (s *Session) CycleLoop() LoopMode {
	s.mu.Lock()
	s.loop = s.loop.Next()
	mode := s.loop
	cur := s.current
	s.mu.Unlock()

	zlog.Info().Str("guild", s.GuildID).Stringer("mode", mode).Msg("Loop mode changed")
	if cur != nil {
		s.display.ShowNowPlaying(s.Snapshot())
	}
	return mode
}

// SetVolume takes a percentage in [0, 200], stores it on the 0.0-2.0 scale
// and applies it live to the active stream. Out-of-range values are
// rejected without touching the previous volume.
func (s *Session) SetVolume(percent int) error {
	if percent < 0 || percent > 200 {
		return ErrVolumeOutOfRange
	}

	s.mu.Lock()
	s.volume = float64(percent) / 100
	tr := s.transport
	cur := s.current
	vol := s.volume
	s.mu.Unlock()

	if tr != nil {
		tr.SetVolume(vol)
	}
	if cur != nil {
		s.display.ShowNowPlaying(s.Snapshot())
	}
	return nil
}

// Seek restarts the current track at the target offset. The restart flag
// makes the loop re-enter Streaming without requeueing or releasing the
// track.
func (s *Session) Seek(target time.Duration) error {
	s.mu.Lock()
	cur := s.current
	tr := s.transport
	if cur == nil || tr == nil {
		s.mu.Unlock()
		return ErrNotPlaying
	}
	if cur.Duration <= 0 {
		s.mu.Unlock()
		return ErrNoDuration
	}
	if target < 0 || target >= cur.Duration {
		s.mu.Unlock()
		return ErrSeekOutOfRange
	}
	s.restart = true
	s.resumeAt = target
	s.mu.Unlock()

	zlog.Info().Str("guild", s.GuildID).Dur("target", target).Msg("Restarting current track at offset")
	tr.Stop()
	return nil
}

// QueueSnapshot returns the pending tracks in play order.
func (s *Session) QueueSnapshot() []*Track {
	return s.queue.Snapshot()
}

// QueueLen returns the number of pending tracks.
func (s *Session) QueueLen() int {
	return s.queue.Len()
}

// ShuffleQueue randomly reorders the pending tracks.
func (s *Session) ShuffleQueue() error {
	return s.queue.Shuffle()
}

// RemoveFromQueue removes and releases the track at the one-based position,
// returning it for display.
func (s *Session) RemoveFromQueue(pos int) (*Track, error) {
	t, err := s.queue.RemoveAt(pos)
	if err != nil {
		return nil, err
	}
	t.Release()
	return t, nil
}

// ClearQueue drops and releases every pending track.
func (s *Session) ClearQueue() int {
	return s.queue.Clear()
}

// Snapshot builds the read-only view handed to the display sink.
func (s *Session) Snapshot() NowPlaying {
	s.mu.Lock()
	np := NowPlaying{
		GuildID:       s.GuildID,
		TextChannelID: s.textChannelID,
		Track:         s.current,
		Volume:        s.volume,
		Loop:          s.loop,
	}
	tr := s.transport
	s.mu.Unlock()

	if tr != nil {
		np.Paused = tr.IsPaused()
	}
	np.UpNext = s.queue.Snapshot()
	return np
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()
	if prev != st {
		zlog.Debug().Str("guild", s.GuildID).Stringer("from", prev).Stringer("to", st).Msg("State transition")
	}
}

func (s *Session) notify(msg string) {
	s.mu.Lock()
	ch := s.textChannelID
	s.mu.Unlock()
	if ch == "" {
		return
	}
	s.display.Notify(ch, msg)
}
