package player

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records every Play call and lets the test drive stream
// completion by hand.
type fakeTransport struct {
	mu          sync.Mutex
	playing     bool
	paused      bool
	channelID   string
	volume      float64
	plays       []playCall
	onComplete  func(error)
	playErr     error
	stops       int
	disconnects int

	started chan playCall
}

type playCall struct {
	track   *Track
	volume  float64
	startAt time.Duration
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		channelID: "voice-1",
		started:   make(chan playCall, 16),
	}
}

func (f *fakeTransport) Play(t *Track, volume float64, startAt time.Duration, onComplete func(error)) error {
	f.mu.Lock()
	if f.playErr != nil {
		err := f.playErr
		f.mu.Unlock()
		return err
	}
	call := playCall{track: t, volume: volume, startAt: startAt}
	f.plays = append(f.plays, call)
	f.playing = true
	f.paused = false
	f.onComplete = onComplete
	f.mu.Unlock()

	f.started <- call
	return nil
}

// completeActive ends the in-flight stream the way a finished decode would.
func (f *fakeTransport) completeActive(err error) {
	f.mu.Lock()
	cb := f.onComplete
	f.onComplete = nil
	f.playing = false
	f.paused = false
	f.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

func (f *fakeTransport) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	f.completeActive(nil)
}

func (f *fakeTransport) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
}

func (f *fakeTransport) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
}

func (f *fakeTransport) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *fakeTransport) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing && !f.paused
}

func (f *fakeTransport) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing && f.paused
}

func (f *fakeTransport) MoveTo(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelID = channelID
	return nil
}

func (f *fakeTransport) ChannelID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channelID
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeTransport) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

func (f *fakeTransport) playAt(i int) playCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays[i]
}

// fakeDisplay records panel updates and notifications.
type fakeDisplay struct {
	mu       sync.Mutex
	shows    []NowPlaying
	clears   []string
	messages []string
}

func (f *fakeDisplay) ShowNowPlaying(np NowPlaying) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shows = append(f.shows, np)
}

func (f *fakeDisplay) ClearNowPlaying(guildID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears = append(f.clears, guildID)
}

func (f *fakeDisplay) Notify(channelID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeDisplay) lastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeDisplay) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clears)
}

func testConfig() Config {
	return Config{InactivityTimeout: 5 * time.Second, DefaultVolume: 0.5}
}

func newTestSession(t *testing.T) (*Session, *fakeTransport, *fakeDisplay, *sync.Map) {
	t.Helper()
	ft := newFakeTransport()
	fd := &fakeDisplay{}
	var ended sync.Map
	s := NewSession("guild-1", testConfig(), fd, func(guildID string) {
		ended.Store(guildID, true)
	})
	s.SetTransport(ft)
	s.SetTextChannel("text-1")
	return s, ft, fd, &ended
}

func waitPlay(t *testing.T, ft *fakeTransport) playCall {
	t.Helper()
	select {
	case call := <-ft.started:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a stream to start")
		return playCall{}
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the session to terminate")
	}
}

func TestSessionPlaysTracksInOrder(t *testing.T) {
	s, ft, fd, ended := newTestSession(t)

	t1 := &Track{ID: "1", Title: "first", Duration: time.Minute}
	t2 := &Track{ID: "2", Title: "second", Duration: time.Minute}

	pos, err := s.EnqueueAndStart(t1)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	s.EnqueueAndStart(t2)

	first := waitPlay(t, ft)
	assert.Equal(t, "first", first.track.Title)
	assert.InDelta(t, 0.5, first.volume, 0.001)
	ft.completeActive(nil)

	second := waitPlay(t, ft)
	assert.Equal(t, "second", second.track.Title)
	ft.completeActive(nil)

	waitDone(t, s)

	assert.True(t, t1.Released())
	assert.True(t, t2.Released())
	assert.Contains(t, fd.lastMessage(), "queue has finished")
	assert.Equal(t, 1, fd.clearCount())

	ft.mu.Lock()
	assert.Equal(t, 1, ft.disconnects)
	ft.mu.Unlock()

	_, ok := ended.Load("guild-1")
	assert.True(t, ok, "session end callback must fire")
}

func TestSessionStartLoopIsIdempotent(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	t1 := &Track{ID: "1", Title: "only", Duration: time.Minute}
	s.EnqueueAndStart(t1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.StartLoop()
		}()
	}
	wg.Wait()

	waitPlay(t, ft)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, ft.playCount(), "one track must not start twice")

	s.Shutdown()
	waitDone(t, s)
}

func TestSessionLoopTrackReplaysCurrent(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	assert.Equal(t, LoopTrack, s.CycleLoop())

	t1 := &Track{ID: "1", Title: "repeat me", Duration: time.Minute}
	s.EnqueueAndStart(t1)

	first := waitPlay(t, ft)
	ft.completeActive(nil)

	second := waitPlay(t, ft)
	assert.Same(t, first.track, second.track, "loop track must replay the same resource")
	assert.False(t, t1.Released())

	// Back to off so the session can wind down.
	assert.Equal(t, LoopQueue, s.CycleLoop())
	assert.Equal(t, LoopOff, s.CycleLoop())
	ft.completeActive(nil)

	waitDone(t, s)
	assert.True(t, t1.Released())
}

func TestSessionLoopQueueRequeuesFinished(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	s.CycleLoop()            // track
	assert.Equal(t, LoopQueue, s.CycleLoop())

	t1 := &Track{ID: "1", Title: "first", Duration: time.Minute}
	t2 := &Track{ID: "2", Title: "second", Duration: time.Minute}
	s.EnqueueAndStart(t1)
	s.EnqueueAndStart(t2)

	assert.Equal(t, "first", waitPlay(t, ft).track.Title)
	ft.completeActive(nil)
	assert.Equal(t, "second", waitPlay(t, ft).track.Title)
	ft.completeActive(nil)

	// The finished first track comes back around instead of being released.
	third := waitPlay(t, ft)
	assert.Equal(t, "first", third.track.Title)
	assert.False(t, t1.Released())
	assert.False(t, t2.Released())

	s.Shutdown()
	waitDone(t, s)
	assert.True(t, t1.Released())
	assert.True(t, t2.Released())
}

func TestSessionSkip(t *testing.T) {
	s, ft, fd, _ := newTestSession(t)

	assert.ErrorIs(t, s.Skip(), ErrNotPlaying)

	t1 := &Track{ID: "1", Title: "skipped", Duration: time.Minute}
	s.EnqueueAndStart(t1)
	waitPlay(t, ft)

	require.NoError(t, s.Skip())
	waitDone(t, s)

	assert.True(t, t1.Released())
	assert.Contains(t, fd.lastMessage(), "queue has finished")
}

func TestSessionSeekRestreamsWithoutRequeue(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	t1 := &Track{ID: "1", Title: "long", Duration: 3 * time.Minute}
	t2 := &Track{ID: "2", Title: "pending", Duration: time.Minute}
	s.EnqueueAndStart(t1)
	s.EnqueueAndStart(t2)

	first := waitPlay(t, ft)
	assert.Equal(t, time.Duration(0), first.startAt)

	require.NoError(t, s.Seek(90*time.Second))

	second := waitPlay(t, ft)
	assert.Same(t, first.track, second.track, "seek must restream the same track")
	assert.Equal(t, 90*time.Second, second.startAt)
	assert.False(t, t1.Released())
	assert.Equal(t, 1, s.QueueLen(), "seek must not consume the pending queue")

	s.Shutdown()
	waitDone(t, s)
}

func TestSessionSeekValidation(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	assert.ErrorIs(t, s.Seek(10*time.Second), ErrNotPlaying)

	t1 := &Track{ID: "1", Title: "live", Duration: 0}
	s.EnqueueAndStart(t1)
	waitPlay(t, ft)

	assert.ErrorIs(t, s.Seek(10*time.Second), ErrNoDuration)

	s.Shutdown()
	waitDone(t, s)

	s2, ft2, _, _ := newTestSession(t)
	t2 := &Track{ID: "2", Title: "short", Duration: time.Minute}
	s2.EnqueueAndStart(t2)
	waitPlay(t, ft2)

	assert.ErrorIs(t, s2.Seek(-time.Second), ErrSeekOutOfRange)
	assert.ErrorIs(t, s2.Seek(time.Minute), ErrSeekOutOfRange)
	assert.ErrorIs(t, s2.Seek(90*time.Second), ErrSeekOutOfRange)

	s2.Shutdown()
	waitDone(t, s2)
}

func TestSessionSetVolume(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	require.NoError(t, s.SetVolume(150))
	assert.InDelta(t, 1.5, s.Volume(), 0.001)
	ft.mu.Lock()
	assert.InDelta(t, 1.5, ft.volume, 0.001)
	ft.mu.Unlock()

	assert.ErrorIs(t, s.SetVolume(201), ErrVolumeOutOfRange)
	assert.ErrorIs(t, s.SetVolume(-1), ErrVolumeOutOfRange)
	assert.InDelta(t, 1.5, s.Volume(), 0.001, "rejected volume must not touch the previous value")
}

func TestSessionPauseResume(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	t1 := &Track{ID: "1", Title: "pausable", Duration: time.Minute}
	s.EnqueueAndStart(t1)
	waitPlay(t, ft)

	paused, err := s.PauseResume()
	require.NoError(t, err)
	assert.True(t, paused)
	assert.True(t, ft.IsPaused())

	paused, err = s.PauseResume()
	require.NoError(t, err)
	assert.False(t, paused)
	assert.True(t, ft.IsPlaying())

	s.Shutdown()
	waitDone(t, s)
}

func TestSessionPauseResumeWithoutTransport(t *testing.T) {
	fd := &fakeDisplay{}
	s := NewSession("guild-1", testConfig(), fd, nil)

	_, err := s.PauseResume()
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestSessionInactivityTimeout(t *testing.T) {
	ft := newFakeTransport()
	fd := &fakeDisplay{}
	cfg := Config{InactivityTimeout: 50 * time.Millisecond, DefaultVolume: 0.5}
	s := NewSession("guild-1", cfg, fd, nil)
	s.SetTransport(ft)
	s.SetTextChannel("text-1")

	s.StartLoop()
	waitDone(t, s)

	assert.Contains(t, fd.lastMessage(), "inactivity")
	assert.Equal(t, 1, fd.clearCount())
	ft.mu.Lock()
	assert.Equal(t, 1, ft.disconnects)
	ft.mu.Unlock()
}

func TestSessionEnqueueBeatsInactivityTimeout(t *testing.T) {
	ft := newFakeTransport()
	fd := &fakeDisplay{}
	cfg := Config{InactivityTimeout: 60 * time.Millisecond, DefaultVolume: 0.5}
	s := NewSession("guild-1", cfg, fd, nil)
	s.SetTransport(ft)
	s.SetTextChannel("text-1")

	s.StartLoop()
	time.Sleep(20 * time.Millisecond)

	t1 := &Track{ID: "1", Title: "made it", Duration: time.Minute}
	s.EnqueueAndStart(t1)

	got := waitPlay(t, ft)
	assert.Equal(t, "made it", got.track.Title)

	s.Shutdown()
	waitDone(t, s)
}

func TestSessionShutdownReleasesEverything(t *testing.T) {
	s, ft, fd, ended := newTestSession(t)

	t1 := &Track{ID: "1", Title: "playing", Duration: time.Minute}
	t2 := &Track{ID: "2", Title: "pending", Duration: time.Minute}
	s.EnqueueAndStart(t1)
	s.EnqueueAndStart(t2)
	waitPlay(t, ft)

	s.Shutdown()
	waitDone(t, s)

	assert.True(t, t1.Released())
	assert.True(t, t2.Released())
	assert.Equal(t, 0, s.QueueLen())
	assert.Nil(t, s.Current())
	assert.Equal(t, 1, fd.clearCount())

	ft.mu.Lock()
	disconnects := ft.disconnects
	ft.mu.Unlock()
	assert.Equal(t, 1, disconnects)

	_, ok := ended.Load("guild-1")
	assert.True(t, ok)

	// A second shutdown must be a harmless no-op.
	s.Shutdown()
	assert.Equal(t, 1, fd.clearCount())
}

func TestSessionShutdownBeforeStartTerminates(t *testing.T) {
	s, ft, fd, ended := newTestSession(t)

	s.Shutdown()
	waitDone(t, s)

	assert.Equal(t, 1, fd.clearCount())
	ft.mu.Lock()
	assert.Equal(t, 1, ft.disconnects)
	ft.mu.Unlock()
	_, ok := ended.Load("guild-1")
	assert.True(t, ok)
}

func TestSessionFatalPlayErrorTerminates(t *testing.T) {
	s, ft, fd, _ := newTestSession(t)
	ft.mu.Lock()
	ft.playErr = assert.AnError
	ft.mu.Unlock()

	t1 := &Track{ID: "1", Title: "doomed", Duration: time.Minute}
	s.EnqueueAndStart(t1)

	waitDone(t, s)
	assert.Contains(t, fd.lastMessage(), "fatal playback error")
}

func TestSessionTerminatedRefusesNewWork(t *testing.T) {
	s, ft, fd, _ := newTestSession(t)

	t1 := &Track{ID: "1", Title: "played", Duration: time.Minute}
	s.EnqueueAndStart(t1)
	waitPlay(t, ft)

	s.Shutdown()
	waitDone(t, s)
	clearsAfterShutdown := fd.clearCount()

	// A stale reference from before termination must not revive the loop.
	late := &Track{ID: "2", Title: "too late", Duration: time.Minute}
	pos, err := s.EnqueueAndStart(late)
	assert.ErrorIs(t, err, ErrTerminated)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 0, s.QueueLen(), "refused track must not land in the queue")
	assert.False(t, late.Released(), "the caller keeps ownership of a refused track")

	s.StartLoop()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, StateTerminating, s.State())
	assert.Equal(t, 1, ft.playCount(), "a terminated session must not stream again")
	assert.Equal(t, clearsAfterShutdown, fd.clearCount(), "termination must not run twice")
}

func TestSessionShutdownRacesEnqueue(t *testing.T) {
	s, ft, _, _ := newTestSession(t)

	var wg sync.WaitGroup
	wg.Add(2)
	tr := &Track{ID: "1", Title: "contested", Duration: time.Minute}
	go func() {
		defer wg.Done()
		s.Shutdown()
	}()
	go func() {
		defer wg.Done()
		s.EnqueueAndStart(tr)
	}()
	wg.Wait()
	waitDone(t, s)

	// Whichever side won, nothing may leak: the track is either refused
	// (still owned by the caller) or swept up by the teardown.
	if s.QueueLen() != 0 {
		t.Fatalf("queue not drained after shutdown: %d tracks left", s.QueueLen())
	}
	assert.Equal(t, StateTerminating, s.State())
	ft.mu.Lock()
	assert.Equal(t, 1, ft.disconnects)
	ft.mu.Unlock()
}

func TestSessionFatalStreamErrorTerminates(t *testing.T) {
	s, ft, fd, _ := newTestSession(t)

	t1 := &Track{ID: "1", Title: "breaks midway", Duration: time.Minute}
	t2 := &Track{ID: "2", Title: "never reached", Duration: time.Minute}
	s.EnqueueAndStart(t1)
	s.EnqueueAndStart(t2)
	waitPlay(t, ft)

	ft.completeActive(assert.AnError)
	waitDone(t, s)

	assert.Contains(t, fd.lastMessage(), "fatal playback error")
	assert.True(t, t1.Released())
	assert.True(t, t2.Released())
	assert.Equal(t, 1, fd.clearCount())
	ft.mu.Lock()
	assert.Equal(t, 1, ft.disconnects)
	ft.mu.Unlock()
}

func TestSessionRemoveFromQueueReleases(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	t1 := &Track{ID: "1", Title: "keep"}
	t2 := &Track{ID: "2", Title: "drop"}
	s.queue.Enqueue(t1)
	s.queue.Enqueue(t2)

	removed, err := s.RemoveFromQueue(2)
	require.NoError(t, err)
	assert.Equal(t, "drop", removed.Title)
	assert.True(t, removed.Released())
	assert.False(t, t1.Released())
	assert.Equal(t, 1, s.QueueLen())

	_, err = s.RemoveFromQueue(5)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}
