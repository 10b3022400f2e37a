package watch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/argusproj/argus/internal/unified"
)

// View renders the dashboard.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(m.renderLanes())
	b.WriteString("\n")

	if m.showGoals {
		b.WriteString(m.renderGoals())
		b.WriteString("\n")
	}

	b.WriteString(m.renderFeed())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title bar with daemon stats.
func (m *Model) renderHeader() string {
	title := styleTitle.Render("argus")

	statusIcon := m.spinner.View()
	if m.paused {
		statusIcon = styleErr.Render("||")
	}

	var stats string
	if m.status != nil {
		stats = fmt.Sprintf("%s cycle %d | %d agents | %d missions",
			statusIcon, m.status.Cycle, m.status.Agents, m.status.Missions)
		if m.status.Loading {
			stats += " | refreshing"
		}
	} else {
		stats = statusIcon + " connecting"
	}

	line := title + "  " + styleMuted.Render(stats)
	if m.status != nil && m.status.LastError != "" {
		line += "  " + styleErr.Render(m.status.LastError)
	}
	if m.err != nil {
		line += "  " + styleErr.Render(m.err.Error())
	}
	return line
}

// renderLanes renders one bordered column per backend lane.
func (m *Model) renderLanes() string {
	if len(m.lanes) == 0 {
		return styleMuted.Render("  No backends configured.")
	}

	laneWidth := m.width/len(m.lanes) - 3
	if laneWidth < 18 {
		laneWidth = 18
	}

	columns := make([]string, 0, len(m.lanes))
	for _, lane := range m.lanes {
		columns = append(columns, m.renderLane(lane, laneWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// renderLane renders a single backend column.
func (m *Model) renderLane(lane unified.Lane, width int) string {
	var b strings.Builder

	b.WriteString(styleHeader.Render(fmt.Sprintf("%s (%d)", lane.Backend, len(lane.Agents))))
	b.WriteString("\n")

	if len(lane.Agents) == 0 {
		b.WriteString(styleMuted.Render("empty"))
	}

	for i, agent := range lane.Agents {
		if i > 0 {
			b.WriteString("\n")
		}
		st := string(agent.Status)
		icon := statusStyle(st).Render(statusIcon(st))
		name := truncate(agent.Name, width-8)
		line := fmt.Sprintf("%s %s", icon, name)
		if agent.Status == unified.StatusError && agent.ErrorMessage != "" {
			line += "\n  " + styleErr.Render(truncate(agent.ErrorMessage, width-4))
		}
		b.WriteString(line)
	}

	return styleLane.Width(width).Render(b.String())
}

// renderGoals renders the mission goal strip.
func (m *Model) renderGoals() string {
	if len(m.goals) == 0 {
		return styleMuted.Render("  No missions.")
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render("MISSIONS"))
	b.WriteString("\n")
	for _, goal := range m.goals {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			styleAccent.Render(goal.Label),
			statusStyle(goal.Status).Render(goal.Status),
			styleMuted.Render(fmt.Sprintf("(%d agents)", len(goal.AgentIDs))),
		))
	}
	return b.String()
}

// renderFeed renders the rolling move feed, newest last.
func (m *Model) renderFeed() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("MOVES (%d)", m.totalMoves)))
	b.WriteString("\n")

	lines := m.feedLines()
	moves := m.recentMoves(lines)
	if len(moves) == 0 {
		b.WriteString(styleMuted.Render("  Waiting for transitions..."))
		return b.String()
	}

	for _, move := range moves {
		b.WriteString(fmt.Sprintf("  %s %s %s %s %s\n",
			styleMuted.Render(move.TS.Format("15:04:05")),
			moveStyle(move.Type).Render(fmt.Sprintf("%-8s", move.Type)),
			styleMuted.Render(truncate(move.From, 24)),
			styleMuted.Render("→"),
			truncate(move.To, 32),
		))
	}
	return b.String()
}

// feedLines returns how many feed rows fit below the lane board.
func (m *Model) feedLines() int {
	used := 8
	for _, lane := range m.lanes {
		if h := len(lane.Agents) + 3; h > used-5 {
			used = h + 5
		}
	}
	lines := m.height - used
	if lines < 3 {
		lines = 3
	}
	return lines
}

// renderFooter renders the help bar.
func (m *Model) renderFooter() string {
	return styleMuted.Render("space:pause  g:missions  r:refresh  c:clear  q:quit")
}

// moveStyle returns the style for a move type.
func moveStyle(t unified.MoveType) lipgloss.Style {
	switch t {
	case unified.MoveSpawn:
		return styleAccent
	case unified.MoveBlock:
		return lipgloss.NewStyle().Foreground(colorBlocked)
	case unified.MoveComplete:
		return lipgloss.NewStyle().Foreground(colorWorking)
	default:
		return lipgloss.NewStyle().Foreground(colorFg)
	}
}

// truncate shortens s to max characters with an ellipsis.
func truncate(s string, max int) string {
	if max < 1 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
