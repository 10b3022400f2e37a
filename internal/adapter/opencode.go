package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/argusproj/argus/internal/unified"
)

// opencodeAdapter polls an OpenCode instance. OpenCode has the loosest
// schema of the bunch: a bare array with whatever fields the instance's
// version happens to emit, so this adapter leans entirely on fallbacks.
type opencodeAdapter struct {
	httpFetcher
}

type opencodeRecord struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Model     string `json:"model"`
	Timestamp string `json:"timestamp"`
}

func (a *opencodeAdapter) Kind() unified.Backend { return unified.BackendOpencode }
func (a *opencodeAdapter) Name() string          { return a.cfg.Name }

func (a *opencodeAdapter) Fetch(ctx context.Context) []unified.Agent {
	body, err := a.get(ctx)
	if err != nil {
		return a.gatewayError(err)
	}

	records, err := decodeRecords(body, "agents", "data")
	if err != nil {
		return a.gatewayError(err)
	}
	if len(records) == 0 {
		return a.gatewayIdle()
	}

	agents := make([]unified.Agent, 0, len(records))
	for i, raw := range records {
		var rec opencodeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		nativeID := rec.ID
		if nativeID == "" {
			nativeID = rec.AgentID
		}
		if nativeID == "" {
			nativeID = fmt.Sprintf("opencode-%d", i)
		}
		name := rec.Name
		if name == "" {
			name = "OpenCode Agent"
		}
		agents = append(agents, unified.Agent{
			ID:           unified.AgentID(unified.BackendOpencode, nativeID),
			Backend:      unified.BackendOpencode,
			NativeID:     nativeID,
			Name:         name,
			Role:         "agent",
			Status:       classifyOpencode(rec.Status),
			Model:        rec.Model,
			LastActiveAt: parseTimestamp(rec.Timestamp),
			Raw:          raw,
		})
	}
	if len(agents) == 0 {
		return a.gatewayIdle()
	}
	return agents
}
