package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/argusproj/argus/internal/cli"
	"github.com/argusproj/argus/internal/control"
	"github.com/argusproj/argus/internal/watch"
)

func connect() (*control.Client, error) {
	client, err := control.NewClient(cfg.Daemon.Socket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w\n\nIs argusd running? Start it with: argusd", err)
	}
	return client, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	model := watch.NewModel(client)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runStatus() error {
	client, err := control.NewClient(cfg.Daemon.Socket)
	if err != nil {
		fmt.Println("Daemon status: NOT RUNNING")
		fmt.Printf("Socket: %s\n", cfg.Daemon.Socket)
		return nil
	}
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	fmt.Println("Daemon status: RUNNING")
	fmt.Printf("Version:  %s\n", st.Version)
	fmt.Printf("Socket:   %s\n", cfg.Daemon.Socket)
	fmt.Printf("Backends: %s\n", strings.Join(st.Backends, ", "))
	fmt.Printf("Cycle:    %d\n", st.Cycle)
	fmt.Printf("Agents:   %d\n", st.Agents)
	fmt.Printf("Missions: %d\n", st.Missions)
	if st.Loading {
		fmt.Println("Refresh:  in flight")
	}
	if st.LastError != "" {
		fmt.Printf("Error:    %s\n", cli.RedText(st.LastError))
	}
	return nil
}

func runAgents() error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	agents, err := client.ListAgents()
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}

	if len(agents) == 0 {
		fmt.Println("No agents found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tSTATUS\tMODEL")
	fmt.Fprintln(w, "--\t----\t----\t------\t-----")
	for _, a := range agents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Name, a.Role, cli.StatusText(string(a.Status)), a.Model)
	}
	return w.Flush()
}

func runLanes() error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	lanes, err := client.Lanes()
	if err != nil {
		return fmt.Errorf("failed to fetch lanes: %w", err)
	}

	for _, lane := range lanes {
		fmt.Printf("%s (%d)\n", cli.Bolden(string(lane.Backend)), len(lane.Agents))
		if len(lane.Agents) == 0 {
			fmt.Println(cli.Dimmed("  empty"))
			continue
		}
		for _, a := range lane.Agents {
			line := fmt.Sprintf("  %-9s %s", cli.StatusText(string(a.Status)), a.Name)
			if a.ErrorMessage != "" {
				line += "  " + cli.RedText(a.ErrorMessage)
			}
			fmt.Println(line)
		}
	}
	return nil
}

func runGoals() error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	goals, err := client.Goals()
	if err != nil {
		return fmt.Errorf("failed to fetch goals: %w", err)
	}

	if len(goals) == 0 {
		fmt.Println("No missions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tAGENTS")
	fmt.Fprintln(w, "--\t-----\t------\t------")
	for _, g := range goals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", g.ID, g.Label, g.Status, len(g.AgentIDs))
	}
	return w.Flush()
}

func runSelect(agentID string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SelectAgent(agentID); err != nil {
		return fmt.Errorf("failed to select agent: %w", err)
	}
	fmt.Printf("Selected %s\n", cli.Bolden(agentID))
	return nil
}

func runSelected() error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	agent, ok, err := client.SelectedAgent()
	if err != nil {
		return fmt.Errorf("failed to resolve selection: %w", err)
	}
	if !ok {
		fmt.Println("No agent selected.")
		return nil
	}

	fmt.Printf("ID:     %s\n", agent.ID)
	fmt.Printf("Name:   %s\n", agent.Name)
	fmt.Printf("Role:   %s\n", agent.Role)
	fmt.Printf("Status: %s\n", cli.StatusText(string(agent.Status)))
	if agent.Model != "" {
		fmt.Printf("Model:  %s\n", agent.Model)
	}
	if agent.ErrorMessage != "" {
		fmt.Printf("Error:  %s\n", cli.RedText(agent.ErrorMessage))
	}
	return nil
}

func runCommand(action, agentID string) error {
	backend, nativeID, err := splitAgentID(agentID)
	if err != nil {
		return err
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	switch action {
	case "stop":
		err = client.StopAgent(backend, nativeID)
	case "pause":
		err = client.PauseAgent(backend, nativeID)
	case "resume":
		err = client.ResumeAgent(backend, nativeID)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, agentID, err)
	}

	fmt.Printf("Dispatched %s to %s\n", cli.Bolden(action), agentID)
	return nil
}

func runMissionCreate(title, description, backend string, agentIDs []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	mission, err := client.CreateMission(control.CreateMissionRequest{
		Title:       title,
		Description: description,
		Backend:     backend,
		AgentIDs:    agentIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}

	fmt.Printf("Created mission %s: %s\n", cli.Bolden(mission.ID), mission.Title)
	return nil
}

func runMissionAssign(missionID, agentID string, remove bool) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.AssignAgent(control.AssignAgentRequest{
		MissionID: missionID,
		AgentID:   agentID,
		Remove:    remove,
	}); err != nil {
		return fmt.Errorf("failed to update mission: %w", err)
	}

	verb := "Assigned"
	if remove {
		verb = "Removed"
	}
	fmt.Printf("%s %s on mission %s\n", verb, agentID, missionID)
	return nil
}

func runMoves(limit int) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	moves, err := client.RecentMoves(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch moves: %w", err)
	}

	if len(moves) == 0 {
		fmt.Println("No transitions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTYPE\tFROM\tTO")
	fmt.Fprintln(w, "----\t----\t----\t--")
	for _, m := range moves {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			m.TS.Format("15:04:05"), m.Type, m.From, m.To)
	}
	return w.Flush()
}

func runAudit(limit int) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	entries, err := client.ListCommandAudit(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch audit log: %w", err)
	}
	missions, err := client.ListMissionAudit(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch mission audit: %w", err)
	}

	if len(entries) == 0 && len(missions) == 0 {
		fmt.Println("No commands dispatched yet.")
		return nil
	}

	if len(entries) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tTARGET\tOUTCOME")
		fmt.Fprintln(w, "----\t------\t------\t-------")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s:%s\t%s\n",
				e.CreatedAt, e.Action, e.Backend, e.NativeID, outcomeText(e.Outcome))
		}
		w.Flush()
	}

	if len(missions) > 0 {
		if len(entries) > 0 {
			fmt.Println()
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tMISSION\tBACKEND\tREMOTE ID\tOUTCOME")
		fmt.Fprintln(w, "----\t-------\t-------\t---------\t-------")
		for _, m := range missions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				m.CreatedAt, m.Title, m.Backend, m.RemoteID, outcomeText(m.Outcome))
		}
		w.Flush()
	}
	return nil
}

func outcomeText(outcome string) string {
	if outcome == "ok" {
		return cli.GreenText(outcome)
	}
	return cli.RedText(outcome)
}

// splitAgentID splits a unified agent id into its backend and native parts.
func splitAgentID(agentID string) (backend, nativeID string, err error) {
	backend, nativeID, ok := strings.Cut(agentID, ":")
	if !ok || backend == "" || nativeID == "" {
		return "", "", fmt.Errorf("invalid agent id %q: expected backend:native-id", agentID)
	}
	return backend, nativeID, nil
}
