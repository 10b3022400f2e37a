// Command argus is the Argus CLI and live dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/argusproj/argus/internal/config"
)

var cfg *config.Config

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Unified command center for coding agents",
	Long: `Argus unifies agents running across Claude, Codex, Gemini, and
Opencode backends into a single board: one identity scheme, one status
vocabulary, one place to watch and steer them.

Running argus with no arguments opens the live dashboard.`,
	RunE: runWatch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List all unified agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgents()
	},
}

var lanesCmd = &cobra.Command{
	Use:   "lanes",
	Short: "Show the per-backend lane board",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLanes()
	},
}

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "List mission goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGoals()
	},
}

var selectCmd = &cobra.Command{
	Use:   "select [agent-id]",
	Short: "Select an agent, or show the current selection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runSelected()
		}
		return runSelect(args[0])
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <agent-id>",
	Short: "Stop an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand("stop", args[0])
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause <agent-id>",
	Short: "Pause an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand("pause", args[0])
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <agent-id>",
	Short: "Resume a paused agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand("resume", args[0])
	},
}

var missionCmd = &cobra.Command{
	Use:   "mission",
	Short: "Manage missions",
}

var missionCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a mission on a backend",
	Long: `Create a mission by forwarding it to a backend's mission endpoint.
Unlike agent commands, mission creation is confirmed remotely before it
appears on the board.

Examples:
  argus mission create "Triage flaky tests" -b claude
  argus mission create "Refactor parser" -b codex -a codex:sess-1 -a codex:sess-2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _ := cmd.Flags().GetString("backend")
		description, _ := cmd.Flags().GetString("description")
		agents, _ := cmd.Flags().GetStringArray("agent")
		return runMissionCreate(args[0], description, backend, agents)
	},
}

var missionAssignCmd = &cobra.Command{
	Use:   "assign <mission-id> <agent-id>",
	Short: "Assign an agent to a mission",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remove, _ := cmd.Flags().GetBool("remove")
		return runMissionAssign(args[0], args[1], remove)
	},
}

var movesCmd = &cobra.Command{
	Use:   "moves",
	Short: "Show recent agent transitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runMoves(limit)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the dispatched command history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runAudit(limit)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live dashboard",
	RunE:  runWatch,
}

func init() {
	missionCreateCmd.Flags().StringP("backend", "b", "claude", "Backend to create the mission on")
	missionCreateCmd.Flags().StringP("description", "d", "", "Mission description")
	missionCreateCmd.Flags().StringArrayP("agent", "a", nil, "Agent id to assign (repeatable)")
	missionAssignCmd.Flags().Bool("remove", false, "Remove the agent instead of assigning")
	missionCmd.AddCommand(missionCreateCmd, missionAssignCmd)

	movesCmd.Flags().IntP("limit", "n", 20, "Maximum moves to show")
	auditCmd.Flags().IntP("limit", "n", 20, "Maximum entries to show")

	rootCmd.AddCommand(
		statusCmd,
		agentsCmd,
		lanesCmd,
		goalsCmd,
		selectCmd,
		stopCmd,
		pauseCmd,
		resumeCmd,
		missionCmd,
		movesCmd,
		auditCmd,
		watchCmd,
	)
}
