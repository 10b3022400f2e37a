package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/argusproj/argus/internal/unified"
)

// codexAdapter polls a Codex session API. Codex wraps its records in
// {"sessions": [...]} and names its fields after sessions, not agents.
type codexAdapter struct {
	httpFetcher
}

type codexRecord struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	State     string `json:"state"`
	Model     string `json:"model"`
	UpdatedAt string `json:"updated_at"`
}

func (a *codexAdapter) Kind() unified.Backend { return unified.BackendCodex }
func (a *codexAdapter) Name() string          { return a.cfg.Name }

func (a *codexAdapter) Fetch(ctx context.Context) []unified.Agent {
	body, err := a.get(ctx)
	if err != nil {
		return a.gatewayError(err)
	}

	records, err := decodeRecords(body, "sessions", "data")
	if err != nil {
		return a.gatewayError(err)
	}
	if len(records) == 0 {
		return a.gatewayIdle()
	}

	agents := make([]unified.Agent, 0, len(records))
	for i, raw := range records {
		var rec codexRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		nativeID := rec.SessionID
		if nativeID == "" {
			nativeID = fmt.Sprintf("codex-%d", i)
		}
		name := rec.Title
		if name == "" {
			name = "Codex Session"
		}
		agents = append(agents, unified.Agent{
			ID:           unified.AgentID(unified.BackendCodex, nativeID),
			Backend:      unified.BackendCodex,
			NativeID:     nativeID,
			Name:         name,
			Role:         "session",
			Status:       classifyCodex(rec.State),
			Model:        rec.Model,
			LastActiveAt: parseTimestamp(rec.UpdatedAt),
			Raw:          raw,
		})
	}
	if len(agents) == 0 {
		return a.gatewayIdle()
	}
	return agents
}
