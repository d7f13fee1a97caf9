package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Queue is the ordered set of tracks waiting to play for one guild.
// Insertion order is play order. The session loop is the only blocking
// consumer; control-surface operations mutate it concurrently.
type Queue struct {
	mu    sync.Mutex
	items []*Track
	wake  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items: make([]*Track, 0),
		wake:  make(chan struct{}, 1),
	}
}

// Enqueue appends a track to the tail, wakes a blocked Dequeue and returns
// the track's one-based position. The position is captured under the same
// lock as the append so a concurrent dequeue cannot skew it.
func (q *Queue) Enqueue(t *Track) int {
	q.mu.Lock()
	q.items = append(q.items, t)
	pos := len(q.items)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return pos
}

// Dequeue removes and returns the head. If the queue is empty it blocks
// until a track arrives, the timeout elapses (ErrInactive) or ctx is
// cancelled. A track enqueued concurrently with the timeout wins over
// the timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Track, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if t := q.pop(); t != nil {
			return t, nil
		}

		select {
		case <-q.wake:
		case <-timer.C:
			// Re-check under the lock so an enqueue racing the timer
			// still gets delivered.
			if t := q.pop(); t != nil {
				return t, nil
			}
			return nil, ErrInactive
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryDequeue removes and returns the head, or ErrEmpty immediately.
// Used for draining during teardown.
func (q *Queue) TryDequeue() (*Track, error) {
	if t := q.pop(); t != nil {
		return t, nil
	}
	return nil, ErrEmpty
}

func (q *Queue) pop() *Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t
}

// Snapshot returns a copy of the pending tracks in play order.
func (q *Queue) Snapshot() []*Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Track, len(q.items))
	copy(out, q.items)
	return out
}

// Shuffle randomly permutes the pending tracks. Returns ErrTooFewTracks
// when there is nothing meaningful to shuffle.
func (q *Queue) Shuffle() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) < 2 {
		return ErrTooFewTracks
	}
	rand.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
	return nil
}

// RemoveAt removes and returns the track at the given one-based position.
func (q *Queue) RemoveAt(pos int) (*Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if pos < 1 || pos > len(q.items) {
		return nil, ErrInvalidIndex
	}
	t := q.items[pos-1]
	q.items = append(q.items[:pos-1], q.items[pos:]...)
	return t, nil
}

// Clear removes and releases every pending track, returning how many were
// dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	items := q.items
	q.items = make([]*Track, 0)
	q.mu.Unlock()

	for _, t := range items {
		t.Release()
	}
	if len(items) > 0 {
		zlog.Debug().Int("count", len(items)).Msg("Cleared queue")
	}
	return len(items)
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Empty reports whether the queue has no pending tracks.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}
