package daemon

import (
	"encoding/json"
	"fmt"

	"github.com/argusproj/argus/internal/control"
	"github.com/argusproj/argus/internal/dispatch"
	"github.com/argusproj/argus/internal/unified"
)

func (d *Daemon) registerHandlers() {
	d.server.Handle("status", d.handleStatus)
	d.server.Handle("list_agents", d.handleListAgents)
	d.server.Handle("lanes", d.handleLanes)
	d.server.Handle("goals", d.handleGoals)
	d.server.Handle("select_agent", d.handleSelectAgent)
	d.server.Handle("selected_agent", d.handleSelectedAgent)
	d.server.Handle("stop_agent", d.commandHandler(dispatch.ActionStop))
	d.server.Handle("pause_agent", d.commandHandler(dispatch.ActionPause))
	d.server.Handle("resume_agent", d.commandHandler(dispatch.ActionResume))
	d.server.Handle("create_mission", d.handleCreateMission)
	d.server.Handle("assign_agent", d.handleAssignAgent)
	d.server.Handle("recent_moves", d.handleRecentMoves)
	d.server.Handle("list_commands", d.handleListCommands)
	d.server.Handle("list_mission_audit", d.handleListMissionAudit)
}

func (d *Daemon) handleStatus(_ json.RawMessage) (any, error) {
	loading, lastErr := d.recon.Flags()
	backends := make([]string, 0, len(d.config.Backends))
	for _, b := range d.config.Backends {
		backends = append(backends, string(b.Kind))
	}
	return control.DaemonStatus{
		Version:   d.version,
		Backends:  backends,
		Cycle:     d.recon.LastCycle(),
		Loading:   loading,
		LastError: lastErr,
		Agents:    len(d.recon.Agents()),
		Missions:  len(d.recon.Missions()),
	}, nil
}

func (d *Daemon) handleListAgents(_ json.RawMessage) (any, error) {
	return d.recon.Agents(), nil
}

func (d *Daemon) handleLanes(_ json.RawMessage) (any, error) {
	return d.recon.Lanes(), nil
}

func (d *Daemon) handleGoals(_ json.RawMessage) (any, error) {
	return d.recon.Goals(), nil
}

func (d *Daemon) handleSelectAgent(params json.RawMessage) (any, error) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	d.recon.Select(req.ID)
	return nil, nil
}

func (d *Daemon) handleSelectedAgent(_ json.RawMessage) (any, error) {
	agent, ok := d.recon.SelectedAgent()
	return map[string]any{"agent": agent, "selected": ok}, nil
}

// commandHandler builds the handler for one control action. The remote
// call's error propagates to the caller; the optimistic mutation has
// already been applied either way.
func (d *Daemon) commandHandler(action string) control.HandlerFunc {
	return func(params json.RawMessage) (any, error) {
		var req control.CommandAgentRequest
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, err
		}
		if req.Backend == "" || req.NativeID == "" {
			return nil, fmt.Errorf("backend and native_id are required")
		}

		backend := unified.Backend(req.Backend)
		var err error
		switch action {
		case dispatch.ActionStop:
			err = d.dispatcher.Stop(d.ctx, backend, req.NativeID)
		case dispatch.ActionPause:
			err = d.dispatcher.Pause(d.ctx, backend, req.NativeID)
		case dispatch.ActionResume:
			err = d.dispatcher.Resume(d.ctx, backend, req.NativeID)
		}
		if err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func (d *Daemon) handleCreateMission(params json.RawMessage) (any, error) {
	var req control.CreateMissionRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}

	mission, err := d.dispatcher.CreateMission(d.ctx, dispatch.MissionDraft{
		Title:       req.Title,
		Description: req.Description,
		Backend:     unified.Backend(req.Backend),
		AgentIDs:    req.AgentIDs,
	})
	if err != nil {
		return nil, err
	}
	return mission, nil
}

func (d *Daemon) handleAssignAgent(params json.RawMessage) (any, error) {
	var req control.AssignAgentRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}

	var ok bool
	if req.Remove {
		ok = d.recon.UnassignAgent(req.MissionID, req.AgentID)
	} else {
		ok = d.recon.AssignAgent(req.MissionID, req.AgentID)
	}
	if !ok {
		return nil, fmt.Errorf("mission not found: %s", req.MissionID)
	}
	return nil, nil
}

func (d *Daemon) handleRecentMoves(params json.RawMessage) (any, error) {
	var req struct {
		Limit int `json:"limit"`
	}
	if len(params) > 0 {
		json.Unmarshal(params, &req)
	}
	return d.bridge.Recent(req.Limit), nil
}

func (d *Daemon) handleListCommands(params json.RawMessage) (any, error) {
	var req struct {
		Limit int `json:"limit"`
	}
	if len(params) > 0 {
		json.Unmarshal(params, &req)
	}

	records, err := d.audit.ListCommands(req.Limit)
	if err != nil {
		return nil, err
	}

	entries := make([]control.CommandAuditEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, control.CommandAuditEntry{
			ID:        rec.ID,
			Action:    rec.Action,
			Backend:   rec.Backend,
			NativeID:  rec.NativeID,
			Outcome:   rec.Outcome,
			CreatedAt: rec.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return entries, nil
}

func (d *Daemon) handleListMissionAudit(params json.RawMessage) (any, error) {
	var req struct {
		Limit int `json:"limit"`
	}
	if len(params) > 0 {
		json.Unmarshal(params, &req)
	}

	records, err := d.audit.ListMissionAudit(req.Limit)
	if err != nil {
		return nil, err
	}

	entries := make([]control.MissionAuditEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, control.MissionAuditEntry{
			ID:        rec.ID,
			Title:     rec.Title,
			Backend:   rec.Backend,
			RemoteID:  rec.RemoteID,
			Outcome:   rec.Outcome,
			CreatedAt: rec.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return entries, nil
}
