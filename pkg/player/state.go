// Package player implements the per-guild playback session: the queue,
// the track lifecycle and the state machine loop that drives a voice
// transport.
package player

// State represents the current phase of a session's playback loop.
type State int

const (
	StateIdle        State = iota // No loop running
	StateAcquiring                // Fetching the next track from the queue
	StateStreaming                // Audio actively being pushed to the transport
	StateDraining                 // Stream ended, deciding the next action
	StateTerminating              // Tearing down, terminal
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// LoopMode controls what happens when the current track finishes.
type LoopMode int

const (
	LoopOff   LoopMode = iota // Finished tracks are released
	LoopTrack                 // The current track repeats in place
	LoopQueue                 // Finished tracks rejoin the tail of the queue
)

// String returns the string representation of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopOff:
		return "off"
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// Next cycles off -> track -> queue -> off.
func (m LoopMode) Next() LoopMode {
	return LoopMode((int(m) + 1) % 3)
}
