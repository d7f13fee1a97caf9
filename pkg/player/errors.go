package player

import "errors"

// Errors
var (
	ErrEmpty            = errors.New("queue is empty")
	ErrInactive         = errors.New("queue wait timed out")
	ErrInvalidIndex     = errors.New("queue index out of range")
	ErrTooFewTracks     = errors.New("not enough tracks to shuffle")
	ErrNotPlaying       = errors.New("nothing is playing")
	ErrNoTransport      = errors.New("no voice connection")
	ErrNoDuration       = errors.New("track duration unknown")
	ErrSeekOutOfRange   = errors.New("seek target out of range")
	ErrVolumeOutOfRange = errors.New("volume out of range")
	ErrTerminated       = errors.New("session already terminated")
)
