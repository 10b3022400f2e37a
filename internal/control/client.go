package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/argusproj/argus/internal/unified"
)

// Client connects to the argus daemon.
type Client struct {
	conn      net.Conn
	scanner   *bufio.Scanner
	mu        sync.Mutex
	pending   map[string]chan *Response
	events    chan Event
	done      chan struct{}
	connected atomic.Bool
}

// NewClient creates a new daemon client.
func NewClient(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	c := &Client{
		conn:    conn,
		scanner: bufio.NewScanner(conn),
		pending: make(map[string]chan *Response),
		events:  make(chan Event, 100),
		done:    make(chan struct{}),
	}
	c.connected.Store(true)

	go c.readLoop()
	return c, nil
}

// Close disconnects from the daemon.
func (c *Client) Close() error {
	c.connected.Store(false)
	close(c.done)
	return c.conn.Close()
}

// Events returns a channel of pushed events from the daemon. Transition
// moves arrive here as type "flow_move".
func (c *Client) Events() <-chan Event {
	return c.events
}

// Call makes an RPC call to the daemon.
func (c *Client) Call(method string, params any) (*Response, error) {
	if !c.connected.Load() {
		return nil, fmt.Errorf("not connected to daemon")
	}

	id := uuid.NewString()
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req := Request{Method: method, Params: paramsJSON, ID: id}

	respChan := make(chan *Response, 1)
	c.mu.Lock()
	c.pending[id] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	encoded, _ := json.Marshal(req)
	c.mu.Lock()
	_, err = c.conn.Write(append(encoded, '\n'))
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case resp := <-respChan:
		return resp, nil
	case <-c.done:
		return nil, fmt.Errorf("client closed")
	}
}

// call unmarshals a successful response into out (out may be nil).
func (c *Client) call(method string, params, out any) error {
	resp, err := c.Call(method, params)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	if out != nil {
		data, _ := json.Marshal(resp.Data)
		json.Unmarshal(data, out)
	}
	return nil
}

// DaemonStatus summarizes the daemon's reconciliation state.
type DaemonStatus struct {
	Version   string   `json:"version"`
	Backends  []string `json:"backends"`
	Cycle     uint64   `json:"cycle"`
	Loading   bool     `json:"loading"`
	LastError string   `json:"last_error,omitempty"`
	Agents    int      `json:"agents"`
	Missions  int      `json:"missions"`
}

// Status retrieves the daemon's status summary.
func (c *Client) Status() (*DaemonStatus, error) {
	var st DaemonStatus
	if err := c.call("status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListAgents retrieves the current unified agent collection.
func (c *Client) ListAgents() ([]unified.Agent, error) {
	var agents []unified.Agent
	if err := c.call("list_agents", nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// Lanes retrieves the per-backend lane projection.
func (c *Client) Lanes() ([]unified.Lane, error) {
	var lanes []unified.Lane
	if err := c.call("lanes", nil, &lanes); err != nil {
		return nil, err
	}
	return lanes, nil
}

// Goals retrieves the mission goal projection.
func (c *Client) Goals() ([]unified.Goal, error) {
	var goals []unified.Goal
	if err := c.call("goals", nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// SelectAgent moves the daemon's selection cursor.
func (c *Client) SelectAgent(agentID string) error {
	return c.call("select_agent", map[string]string{"id": agentID}, nil)
}

// SelectedAgent resolves the selection cursor. ok is false when the cursor
// is empty or dangling.
func (c *Client) SelectedAgent() (unified.Agent, bool, error) {
	var result struct {
		Agent    unified.Agent `json:"agent"`
		Selected bool          `json:"selected"`
	}
	if err := c.call("selected_agent", nil, &result); err != nil {
		return unified.Agent{}, false, err
	}
	return result.Agent, result.Selected, nil
}

// CommandAgentRequest targets one agent on one backend.
type CommandAgentRequest struct {
	Backend  string `json:"backend"`
	NativeID string `json:"native_id"`
}

// StopAgent dispatches a stop command.
func (c *Client) StopAgent(backend, nativeID string) error {
	return c.call("stop_agent", CommandAgentRequest{Backend: backend, NativeID: nativeID}, nil)
}

// PauseAgent dispatches a pause command.
func (c *Client) PauseAgent(backend, nativeID string) error {
	return c.call("pause_agent", CommandAgentRequest{Backend: backend, NativeID: nativeID}, nil)
}

// ResumeAgent dispatches a resume command.
func (c *Client) ResumeAgent(backend, nativeID string) error {
	return c.call("resume_agent", CommandAgentRequest{Backend: backend, NativeID: nativeID}, nil)
}

// CreateMissionRequest is the mission creation payload.
type CreateMissionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Backend     string   `json:"backend"`
	AgentIDs    []string `json:"agent_ids,omitempty"`
}

// CreateMission creates a mission via the daemon.
func (c *Client) CreateMission(req CreateMissionRequest) (*unified.Mission, error) {
	var m unified.Mission
	if err := c.call("create_mission", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AssignAgentRequest adds or removes an agent on a mission.
type AssignAgentRequest struct {
	MissionID string `json:"mission_id"`
	AgentID   string `json:"agent_id"`
	Remove    bool   `json:"remove,omitempty"`
}

// AssignAgent adds or removes an agent id on a mission.
func (c *Client) AssignAgent(req AssignAgentRequest) error {
	return c.call("assign_agent", req, nil)
}

// RecentMoves retrieves up to limit transition moves, newest last.
func (c *Client) RecentMoves(limit int) ([]unified.Move, error) {
	var moves []unified.Move
	if err := c.call("recent_moves", map[string]int{"limit": limit}, &moves); err != nil {
		return nil, err
	}
	return moves, nil
}

// CommandAuditEntry mirrors the daemon's audit rows for display.
type CommandAuditEntry struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Backend   string `json:"backend"`
	NativeID  string `json:"native_id"`
	Outcome   string `json:"outcome"`
	CreatedAt string `json:"created_at"`
}

// ListCommandAudit retrieves recent dispatched commands, newest first.
func (c *Client) ListCommandAudit(limit int) ([]CommandAuditEntry, error) {
	var entries []CommandAuditEntry
	if err := c.call("list_commands", map[string]int{"limit": limit}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// MissionAuditEntry mirrors the daemon's mission creation audit rows.
type MissionAuditEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Backend   string `json:"backend"`
	RemoteID  string `json:"remote_id,omitempty"`
	Outcome   string `json:"outcome"`
	CreatedAt string `json:"created_at"`
}

// ListMissionAudit retrieves recent mission creation attempts, newest first.
func (c *Client) ListMissionAudit(limit int) ([]MissionAuditEntry, error) {
	var entries []MissionAuditEntry
	if err := c.call("list_mission_audit", map[string]int{"limit": limit}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) readLoop() {
	for c.scanner.Scan() {
		select {
		case <-c.done:
			return
		default:
		}

		var resp Response
		if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
			continue
		}

		if resp.ID != "" {
			c.mu.Lock()
			if ch, ok := c.pending[resp.ID]; ok {
				ch <- &resp
			}
			c.mu.Unlock()
			continue
		}

		// No request id: try the line as a pushed event.
		var event Event
		if json.Unmarshal(c.scanner.Bytes(), &event) == nil && event.Type != "" {
			select {
			case c.events <- event:
			default: // Drop if channel full
			}
		}
	}

	c.connected.Store(false)
}
