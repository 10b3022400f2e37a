package watch

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/argusproj/argus/internal/control"
	"github.com/argusproj/argus/internal/unified"
)

// Model is the command-center dashboard model.
type Model struct {
	client *control.Client

	// Daemon state, refreshed each poll
	status *control.DaemonStatus
	lanes  []unified.Lane
	goals  []unified.Goal

	// Move feed (ring buffer, newest at end)
	moves     []unified.Move
	maxMoves  int
	moveIndex int

	// View state
	width      int
	height     int
	paused     bool
	showGoals  bool
	totalMoves int

	// UI components
	spinner spinner.Model
	err     error
}

// NewModel creates a new dashboard model attached to a daemon connection.
func NewModel(client *control.Client) *Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = styleAccent

	return &Model{
		client:   client,
		moves:    make([]unified.Move, 0, 256),
		maxMoves: 256,
		spinner:  s,
	}
}

// Messages

type tickMsg time.Time

type refreshMsg struct {
	status *control.DaemonStatus
	lanes  []unified.Lane
	goals  []unified.Goal
}

type daemonEventMsg control.Event

// listenIdleMsg re-arms the event listener after a quiet window.
type listenIdleMsg struct{}

type errMsg error

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.refresh(),
		tickCmd(),
		m.listenForEvents(),
	)
}

// tickCmd returns a command that ticks every 2 seconds to refresh state.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh fetches the lane board and status summary from the daemon.
func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		status, err := m.client.Status()
		if err != nil {
			return errMsg(err)
		}
		lanes, err := m.client.Lanes()
		if err != nil {
			return errMsg(err)
		}
		goals, err := m.client.Goals()
		if err != nil {
			return errMsg(err)
		}
		return refreshMsg{status: status, lanes: lanes, goals: goals}
	}
}

// listenForEvents returns a command that waits for a broadcast event.
func (m *Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case event, ok := <-m.client.Events():
			if !ok {
				return nil
			}
			return daemonEventMsg(event)
		case <-time.After(100 * time.Millisecond):
			// quiet window: hand control back so the UI stays responsive,
			// but keep the listener armed
			return listenIdleMsg{}
		}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		cmds = append(cmds, tickCmd())
		if !m.paused {
			cmds = append(cmds, m.refresh())
		}

	case refreshMsg:
		m.status = msg.status
		m.lanes = msg.lanes
		m.goals = msg.goals
		m.err = nil

	case daemonEventMsg:
		if !m.paused {
			m.handleEvent(control.Event(msg))
		}
		cmds = append(cmds, m.listenForEvents())

	case listenIdleMsg:
		cmds = append(cmds, m.listenForEvents())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case errMsg:
		m.err = msg
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		m.paused = !m.paused

	case "g":
		m.showGoals = !m.showGoals

	case "r":
		return m, m.refresh()

	case "c":
		m.moves = m.moves[:0]
		m.moveIndex = 0
		m.totalMoves = 0
	}

	return m, nil
}

// handleEvent folds a broadcast event into the model.
func (m *Model) handleEvent(event control.Event) {
	switch event.Type {
	case "flow_move":
		var move unified.Move
		if decodePayload(event.Payload, &move) {
			m.addMove(move)
		}
	case "cycle":
		// Cycle summaries just signal fresh state; pull it.
		// The next tick refresh picks up the board, nothing to fold here.
	}
}

// addMove appends a move to the feed, evicting the oldest when full.
func (m *Model) addMove(move unified.Move) {
	m.totalMoves++
	if len(m.moves) < m.maxMoves {
		m.moves = append(m.moves, move)
		return
	}
	m.moves[m.moveIndex] = move
	m.moveIndex = (m.moveIndex + 1) % m.maxMoves
}

// recentMoves returns up to n moves, oldest first.
func (m *Model) recentMoves(n int) []unified.Move {
	if len(m.moves) == 0 {
		return nil
	}
	ordered := make([]unified.Move, 0, len(m.moves))
	for i := 0; i < len(m.moves); i++ {
		ordered = append(ordered, m.moves[(m.moveIndex+i)%len(m.moves)])
	}
	if len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// decodePayload round-trips an event payload into a typed value. Broadcast
// payloads arrive as generic JSON on the client side.
func decodePayload(payload any, out any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}
