// Package recon owns the unified view of all backends: the current agent
// collection, the mission collection, the selection cursor, and the derived
// lane/goal projections.
//
// Two writers touch the store: the fetch cycle, which replaces the agent
// collection wholesale, and the control dispatcher, which applies optimistic
// status mutations. Replacement is authoritative: a completed fetch cycle
// always overwrites optimistic state, which is the system's reconciliation
// guarantee.
package recon

import (
	"sync"

	"github.com/argusproj/argus/internal/unified"
)

// Store is the single owner of the unified agent and mission collections.
type Store struct {
	mu sync.RWMutex

	kinds    []unified.Backend
	agents   []unified.Agent
	missions []unified.Mission

	selectedID string
	loading    bool
	lastError  string
	lastCycle  uint64
}

// New creates a store for the given backend registry order.
func New(kinds []unified.Backend) *Store {
	return &Store{kinds: append([]unified.Backend(nil), kinds...)}
}

// ReplaceAgents installs the merged output of a completed fetch cycle.
// Cycles that completed out of order are discarded: only a cycle newer than
// the last installed one wins. Duplicate ids within one snapshot collapse
// to the later occurrence.
func (s *Store) ReplaceAgents(cycle uint64, agents []unified.Agent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cycle <= s.lastCycle {
		return false
	}
	s.lastCycle = cycle
	s.agents = dedupe(agents)
	return true
}

// dedupe collapses duplicate agent ids, later occurrence winning in place.
func dedupe(agents []unified.Agent) []unified.Agent {
	seen := make(map[string]int, len(agents))
	out := make([]unified.Agent, 0, len(agents))
	for _, a := range agents {
		if i, dup := seen[a.ID]; dup {
			out[i] = a
			continue
		}
		seen[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}

// Agents returns a copy of the current agent collection.
func (s *Store) Agents() []unified.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]unified.Agent(nil), s.agents...)
}

// LastCycle reports the sequence of the most recently installed cycle.
func (s *Store) LastCycle() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCycle
}

// SetMissions replaces the mission collection.
func (s *Store) SetMissions(missions []unified.Mission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions = append([]unified.Mission(nil), missions...)
}

// Missions returns a copy of the mission collection.
func (s *Store) Missions() []unified.Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]unified.Mission(nil), s.missions...)
}

// PrependMission inserts a newly created mission at the head of the
// collection. Called only after the remote creation call succeeded.
func (s *Store) PrependMission(m unified.Mission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions = append([]unified.Mission{m}, s.missions...)
}

// AssignAgent adds an agent id to a mission with set semantics. Returns
// false if the mission is unknown.
func (s *Store) AssignAgent(missionID, agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.missions {
		if s.missions[i].ID == missionID {
			s.missions[i].AssignAgent(agentID)
			return true
		}
	}
	return false
}

// UnassignAgent removes an agent id from a mission.
func (s *Store) UnassignAgent(missionID, agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.missions {
		if s.missions[i].ID == missionID {
			s.missions[i].UnassignAgent(agentID)
			return true
		}
	}
	return false
}

// Select moves the selection cursor. An empty id clears it. The id is not
// validated against the collection: stale cursors resolve to no selection.
func (s *Store) Select(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = agentID
}

// SelectedAgent resolves the cursor against the current collection. Agents
// can disappear between cycles, so a dangling cursor is not an error: it
// reports no selection.
func (s *Store) SelectedAgent() (unified.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == "" {
		return unified.Agent{}, false
	}
	for _, a := range s.agents {
		if a.ID == s.selectedID {
			return a, true
		}
	}
	return unified.Agent{}, false
}

// SelectedID returns the raw cursor value.
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// SetLoading flags an in-flight fetch cycle.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetError records the last cycle-level error, empty to clear.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// Flags reports the loading flag and last error together.
func (s *Store) Flags() (loading bool, lastError string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading, s.lastError
}

// Lanes groups the current agent collection by backend in registry order.
// Every registered backend gets a lane, empty or not.
func (s *Store) Lanes() []unified.Lane {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lanes := make([]unified.Lane, 0, len(s.kinds))
	for _, kind := range s.kinds {
		lane := unified.Lane{Backend: kind}
		for _, a := range s.agents {
			if a.Backend == kind {
				lane.Agents = append(lane.Agents, a)
			}
		}
		lanes = append(lanes, lane)
	}
	return lanes
}

// Goals projects missions onto the display-oriented goal shape.
func (s *Store) Goals() []unified.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goals := make([]unified.Goal, 0, len(s.missions))
	for _, m := range s.missions {
		goals = append(goals, unified.Goal{
			ID:       m.ID,
			Label:    m.Title,
			Status:   m.Status,
			AgentIDs: append([]string(nil), m.AssignedAgentIDs...),
		})
	}
	return goals
}

// optimisticStatus maps a control action onto the status asserted locally
// before the backend confirms.
func optimisticStatus(action string) (unified.Status, bool) {
	switch action {
	case "stop":
		return unified.StatusDone, true
	case "pause":
		return unified.StatusPaused, true
	case "resume":
		return unified.StatusWorking, true
	default:
		return "", false
	}
}

// ApplyCommand applies the optimistic mutation for a control action to every
// agent matching (backend, nativeID), stamping the cycle at which the state
// was locally asserted. No match is a no-op: targeting correctness is the
// caller's concern. There is no rollback; the next completed fetch cycle is
// the correction mechanism.
func (s *Store) ApplyCommand(backend unified.Backend, nativeID, action string) int {
	status, ok := optimisticStatus(action)
	if !ok {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mutated := 0
	for i := range s.agents {
		if s.agents[i].Backend == backend && s.agents[i].NativeID == nativeID {
			s.agents[i].Status = status
			s.agents[i].PendingCycle = s.lastCycle + 1
			if status != unified.StatusError {
				s.agents[i].ErrorMessage = ""
			}
			mutated++
		}
	}
	return mutated
}
