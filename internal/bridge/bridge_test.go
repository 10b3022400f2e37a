package bridge

import (
	"fmt"
	"testing"

	"github.com/argusproj/argus/internal/unified"
)

func agent(backend unified.Backend, nativeID string, status unified.Status) unified.Agent {
	return unified.Agent{
		ID:       unified.AgentID(backend, nativeID),
		Backend:  backend,
		NativeID: nativeID,
		Status:   status,
	}
}

func TestObserve(t *testing.T) {
	t.Run("FirstObservationSpawnsAll", func(t *testing.T) {
		b := New(16)
		moves := b.Observe([]unified.Agent{
			agent(unified.BackendClaude, "a1", unified.StatusWorking),
			agent(unified.BackendCodex, "s1", unified.StatusIdle),
		})

		if len(moves) != 2 {
			t.Fatalf("expected 2 spawns, got %d", len(moves))
		}
		for _, m := range moves {
			if m.Type != unified.MoveSpawn {
				t.Errorf("expected spawn, got %s", m.Type)
			}
		}
		if moves[0].From != "claude" || moves[0].To != "claude:a1" {
			t.Errorf("spawn endpoints wrong: %+v", moves[0])
		}
	})

	t.Run("UnchangedCollectionIsIdempotent", func(t *testing.T) {
		b := New(16)
		snapshot := []unified.Agent{agent(unified.BackendClaude, "a1", unified.StatusWorking)}

		b.Observe(snapshot)
		moves := b.Observe(snapshot)
		if len(moves) != 0 {
			t.Fatalf("expected no moves on identical snapshot, got %d", len(moves))
		}
	})

	t.Run("StatusChangeEmitsOneTypedMove", func(t *testing.T) {
		cases := []struct {
			to   unified.Status
			want unified.MoveType
		}{
			{unified.StatusDone, unified.MoveComplete},
			{unified.StatusBlocked, unified.MoveBlock},
			{unified.StatusWorking, unified.MoveProgress},
			{unified.StatusPaused, unified.MoveProgress},
			{unified.StatusError, unified.MoveProgress},
		}
		for _, tc := range cases {
			b := New(16)
			b.Observe([]unified.Agent{agent(unified.BackendClaude, "a1", unified.StatusIdle)})
			moves := b.Observe([]unified.Agent{agent(unified.BackendClaude, "a1", tc.to)})
			if len(moves) != 1 {
				t.Fatalf("status %s: expected 1 move, got %d", tc.to, len(moves))
			}
			if moves[0].Type != tc.want {
				t.Errorf("status %s: expected %s, got %s", tc.to, tc.want, moves[0].Type)
			}
		}
	})

	t.Run("RunningToDoneScenario", func(t *testing.T) {
		b := New(16)
		b.Observe([]unified.Agent{agent(unified.BackendClaude, "a1", unified.StatusWorking)})
		moves := b.Observe([]unified.Agent{agent(unified.BackendClaude, "a1", unified.StatusDone)})

		if len(moves) != 1 {
			t.Fatalf("expected exactly 1 move, got %d", len(moves))
		}
		if moves[0].Type != unified.MoveComplete {
			t.Errorf("expected complete, got %s", moves[0].Type)
		}
	})

	t.Run("DisappearanceEmitsNothing", func(t *testing.T) {
		b := New(16)
		b.Observe([]unified.Agent{
			agent(unified.BackendClaude, "a1", unified.StatusWorking),
			agent(unified.BackendClaude, "a2", unified.StatusWorking),
		})
		moves := b.Observe([]unified.Agent{agent(unified.BackendClaude, "a1", unified.StatusWorking)})
		if len(moves) != 0 {
			t.Fatalf("disappearance must not emit, got %d moves", len(moves))
		}
	})

	t.Run("ReappearanceSpawnsAgain", func(t *testing.T) {
		b := New(16)
		b.Observe([]unified.Agent{agent(unified.BackendClaude, "a1", unified.StatusWorking)})
		b.Observe(nil)
		moves := b.Observe([]unified.Agent{agent(unified.BackendClaude, "a1", unified.StatusWorking)})
		if len(moves) != 1 || moves[0].Type != unified.MoveSpawn {
			t.Fatalf("expected respawn, got %+v", moves)
		}
	})
}

func TestRingBuffer(t *testing.T) {
	t.Run("OldestEvicted", func(t *testing.T) {
		capacity := 4
		b := New(capacity)

		// one spawn per observation, capacity+1 total
		for i := 0; i <= capacity; i++ {
			var agents []unified.Agent
			for j := 0; j <= i; j++ {
				agents = append(agents, agent(unified.BackendClaude, fmt.Sprintf("a%d", j), unified.StatusIdle))
			}
			b.Observe(agents)
		}

		if b.Len() != capacity {
			t.Fatalf("expected buffer at capacity %d, got %d", capacity, b.Len())
		}
		moves := b.Recent(0)
		for _, m := range moves {
			if m.To == "claude:a0" {
				t.Error("oldest move still present after eviction")
			}
		}
	})

	t.Run("RecentLimitsFromNewest", func(t *testing.T) {
		b := New(8)
		b.Observe([]unified.Agent{
			agent(unified.BackendClaude, "a1", unified.StatusIdle),
			agent(unified.BackendClaude, "a2", unified.StatusIdle),
			agent(unified.BackendClaude, "a3", unified.StatusIdle),
		})

		moves := b.Recent(2)
		if len(moves) != 2 {
			t.Fatalf("expected 2 moves, got %d", len(moves))
		}
		if moves[1].To != "claude:a3" {
			t.Errorf("newest move should be last, got %q", moves[1].To)
		}
	})
}
