// Package bridge turns consecutive reconciliation snapshots into a bounded
// stream of discrete transition events.
package bridge

import (
	"sync"
	"time"

	"github.com/argusproj/argus/internal/unified"
)

// DefaultCapacity is the ring-buffer size used when none is configured.
const DefaultCapacity = 64

// Bridge diffs each new agent collection against the previous one and
// retains the resulting moves in a fixed-capacity ring buffer. It holds a
// private copy of the previous collection and never touches the
// reconciliation store.
type Bridge struct {
	mu       sync.Mutex
	previous map[string]unified.Agent

	// ring buffer, oldest evicted first
	moves    []unified.Move
	capacity int
	start    int
	count    int

	now func() time.Time
}

// New creates a bridge with the given ring-buffer capacity.
func New(capacity int) *Bridge {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bridge{
		previous: make(map[string]unified.Agent),
		moves:    make([]unified.Move, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Observe diffs the new collection against the previous one, appends the
// detected moves to the ring buffer, and returns them in order. The first
// observation primes the baseline: every agent in it is a spawn.
//
// Agents that disappeared since the previous collection emit nothing.
func (b *Bridge) Observe(agents []unified.Agent) []unified.Move {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now()
	var emitted []unified.Move

	next := make(map[string]unified.Agent, len(agents))
	for _, a := range agents {
		prev, existed := b.previous[a.ID]
		switch {
		case !existed:
			emitted = append(emitted, unified.Move{
				From: string(a.Backend),
				To:   a.ID,
				Type: unified.MoveSpawn,
				TS:   ts,
			})
		case prev.Status != a.Status:
			emitted = append(emitted, unified.Move{
				From: a.ID,
				To:   a.ID,
				Type: moveTypeFor(a.Status),
				TS:   ts,
			})
		}
		// duplicate ids in one snapshot: last one wins
		next[a.ID] = a
	}

	b.previous = next

	for _, m := range emitted {
		b.push(m)
	}
	return emitted
}

// Recent returns up to limit moves, newest last. A non-positive limit
// returns the whole buffer.
func (b *Bridge) Recent(limit int) []unified.Move {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]unified.Move, 0, n)
	for i := b.count - n; i < b.count; i++ {
		out = append(out, b.moves[(b.start+i)%b.capacity])
	}
	return out
}

// Len reports how many moves the buffer currently holds.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Bridge) push(m unified.Move) {
	if b.count < b.capacity {
		b.moves[(b.start+b.count)%b.capacity] = m
		b.count++
		return
	}
	b.moves[b.start] = m
	b.start = (b.start + 1) % b.capacity
}

// moveTypeFor buckets a new status into the four move types consumers
// distinguish. Everything that is not done or blocked reads as progress.
func moveTypeFor(status unified.Status) unified.MoveType {
	switch status {
	case unified.StatusDone:
		return unified.MoveComplete
	case unified.StatusBlocked:
		return unified.MoveBlock
	case unified.StatusWorking:
		return unified.MoveProgress
	default:
		return unified.MoveProgress
	}
}
