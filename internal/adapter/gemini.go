package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/argusproj/argus/internal/unified"
)

// geminiAdapter polls a Gemini worker pool. Workers report a phase rather
// than a status, and last activity as unix seconds.
type geminiAdapter struct {
	httpFetcher
}

type geminiRecord struct {
	WorkerID    string `json:"worker_id"`
	DisplayName string `json:"display_name"`
	Phase       string `json:"phase"`
	Model       string `json:"model"`
	LastSeen    int64  `json:"last_seen"`
}

func (a *geminiAdapter) Kind() unified.Backend { return unified.BackendGemini }
func (a *geminiAdapter) Name() string          { return a.cfg.Name }

func (a *geminiAdapter) Fetch(ctx context.Context) []unified.Agent {
	body, err := a.get(ctx)
	if err != nil {
		return a.gatewayError(err)
	}

	records, err := decodeRecords(body, "workers", "items")
	if err != nil {
		return a.gatewayError(err)
	}
	if len(records) == 0 {
		return a.gatewayIdle()
	}

	agents := make([]unified.Agent, 0, len(records))
	for i, raw := range records {
		var rec geminiRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		nativeID := rec.WorkerID
		if nativeID == "" {
			nativeID = fmt.Sprintf("gemini-%d", i)
		}
		name := rec.DisplayName
		if name == "" {
			name = "Gemini Worker"
		}
		var lastActive *time.Time
		if rec.LastSeen > 0 {
			t := time.Unix(rec.LastSeen, 0)
			lastActive = &t
		}
		agents = append(agents, unified.Agent{
			ID:           unified.AgentID(unified.BackendGemini, nativeID),
			Backend:      unified.BackendGemini,
			NativeID:     nativeID,
			Name:         name,
			Role:         "worker",
			Status:       classifyGemini(rec.Phase),
			Model:        rec.Model,
			LastActiveAt: lastActive,
			Raw:          raw,
		})
	}
	if len(agents) == 0 {
		return a.gatewayIdle()
	}
	return agents
}
