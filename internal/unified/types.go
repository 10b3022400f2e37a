// Package unified defines the backend-agnostic agent model shared by the
// adapters, the reconciliation store, and the transition bridge.
package unified

import (
	"encoding/json"
	"time"
)

// Backend identifies one external agent-control system. The set is closed;
// adding a kind means adding an adapter for it.
type Backend string

const (
	BackendClaude   Backend = "claude"
	BackendCodex    Backend = "codex"
	BackendGemini   Backend = "gemini"
	BackendOpencode Backend = "opencode"
)

// Backends lists all known backend kinds in registry order. Lane projections
// and merged fetch results preserve this order.
var Backends = []Backend{BackendClaude, BackendCodex, BackendGemini, BackendOpencode}

// Status is the only agent-state vocabulary understood outside the adapters.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusBlocked Status = "blocked"
	StatusError   Status = "error"
	StatusDone    Status = "done"
	StatusPaused  Status = "paused"
)

// Agent is the normalized representation of one controllable unit of work,
// regardless of which backend it came from.
type Agent struct {
	ID           string          `json:"id"`
	Backend      Backend         `json:"backend"`
	NativeID     string          `json:"native_id"`
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	Status       Status          `json:"status"`
	Model        string          `json:"model,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	LastActiveAt *time.Time      `json:"last_active_at,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"`

	// PendingCycle is the fetch-cycle sequence at which an optimistic
	// control mutation was locally asserted. Zero means the status came
	// from an authoritative fetch.
	PendingCycle uint64 `json:"pending_cycle,omitempty"`
}

// AgentID derives the globally unique agent id from (backend, nativeId).
// The derivation is deterministic so repeated fetches of the same backend
// record always produce the same identity.
func AgentID(backend Backend, nativeID string) string {
	return string(backend) + ":" + nativeID
}

// Mission is a user-declared unit of intent referencing zero or more agents.
type Mission struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Status           string   `json:"status"`
	AssignedAgentIDs []string `json:"assigned_agent_ids"`
}

// AssignAgent adds an agent id with set semantics.
func (m *Mission) AssignAgent(agentID string) {
	for _, id := range m.AssignedAgentIDs {
		if id == agentID {
			return
		}
	}
	m.AssignedAgentIDs = append(m.AssignedAgentIDs, agentID)
}

// UnassignAgent removes an agent id if present.
func (m *Mission) UnassignAgent(agentID string) {
	for i, id := range m.AssignedAgentIDs {
		if id == agentID {
			m.AssignedAgentIDs = append(m.AssignedAgentIDs[:i], m.AssignedAgentIDs[i+1:]...)
			return
		}
	}
}

// Lane is the per-backend grouping projection of the current agent
// collection. Recomputed on every read, never stored.
type Lane struct {
	Backend Backend `json:"backend"`
	Agents  []Agent `json:"agents"`
}

// Goal is the display-oriented projection of a Mission.
type Goal struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Status   string   `json:"status"`
	AgentIDs []string `json:"agent_ids"`
}

// MoveType buckets a detected state change for downstream consumers.
type MoveType string

const (
	MoveSpawn    MoveType = "spawn"
	MoveProgress MoveType = "progress"
	MoveBlock    MoveType = "block"
	MoveComplete MoveType = "complete"
)

// Move is an ephemeral transition event produced by diffing two consecutive
// reconciliation snapshots.
type Move struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Type MoveType  `json:"type"`
	TS   time.Time `json:"ts"`
}
