package player

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Track is a resolved, playable audio item. If FilePath is set the track
// exclusively owns that cache file and deletes it on Release.
type Track struct {
	ID          string
	Title       string
	URL         string
	Uploader    string
	Thumbnail   string
	Duration    time.Duration // 0 means unknown (live or unparseable source)
	RequestedBy string
	FilePath    string

	released atomic.Bool
}

// Release deletes the backing cache file, if any. Safe to call more than
// once; only the first call has any effect. Deletion failure is logged and
// never returned to the caller.
func (t *Track) Release() {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return
	}
	if t.FilePath == "" {
		return
	}
	if err := os.Remove(t.FilePath); err != nil && !os.IsNotExist(err) {
		zlog.Warn().Err(err).Str("file", t.FilePath).Str("track", t.Title).Msg("Failed to delete cache file")
		return
	}
	zlog.Debug().Str("file", t.FilePath).Msg("Deleted cache file")
}

// Released reports whether Release has already run.
func (t *Track) Released() bool {
	return t.released.Load()
}

// FormatDuration renders the duration as HH:MM:SS for tracks of an hour or
// more, MM:SS otherwise, and "N/A" when the duration is unknown.
func (t *Track) FormatDuration() string {
	if t.Duration <= 0 {
		return "N/A"
	}
	total := int(t.Duration.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
