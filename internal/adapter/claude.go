package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/argusproj/argus/internal/unified"
)

// claudeAdapter polls a Claude agent-control API. The endpoint returns
// either a bare array of agent records or {"agents": [...]}.
type claudeAdapter struct {
	httpFetcher
}

type claudeRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	Model        string `json:"model"`
	LastActiveAt string `json:"last_active_at"`
}

func (a *claudeAdapter) Kind() unified.Backend { return unified.BackendClaude }
func (a *claudeAdapter) Name() string          { return a.cfg.Name }

func (a *claudeAdapter) Fetch(ctx context.Context) []unified.Agent {
	body, err := a.get(ctx)
	if err != nil {
		return a.gatewayError(err)
	}

	records, err := decodeRecords(body, "agents")
	if err != nil {
		return a.gatewayError(err)
	}
	if len(records) == 0 {
		return a.gatewayIdle()
	}

	agents := make([]unified.Agent, 0, len(records))
	for i, raw := range records {
		var rec claudeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		nativeID := rec.ID
		if nativeID == "" {
			nativeID = fmt.Sprintf("claude-%d", i)
		}
		name := rec.Name
		if name == "" {
			name = "Claude Agent"
		}
		role := rec.Role
		if role == "" {
			role = "agent"
		}
		agents = append(agents, unified.Agent{
			ID:           unified.AgentID(unified.BackendClaude, nativeID),
			Backend:      unified.BackendClaude,
			NativeID:     nativeID,
			Name:         name,
			Role:         role,
			Status:       classifyClaude(rec.Status),
			Model:        rec.Model,
			LastActiveAt: parseTimestamp(rec.LastActiveAt),
			Raw:          raw,
		})
	}
	if len(agents) == 0 {
		return a.gatewayIdle()
	}
	return agents
}

// parseTimestamp tolerates the timestamp shapes seen across backends:
// RFC3339 with or without sub-second precision. Unknown shapes yield nil,
// never an error: timestamps are display-only.
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
