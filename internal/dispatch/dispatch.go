// Package dispatch translates control intent into remote API calls and
// optimistic store mutations.
//
// Control commands are fire-and-reconcile: the local mutation is applied
// before the remote call resolves and is never rolled back on failure. The
// next fetch cycle reconciles local assertions against backend truth.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/argusproj/argus/internal/config"
	"github.com/argusproj/argus/internal/logging"
	"github.com/argusproj/argus/internal/recon"
	"github.com/argusproj/argus/internal/unified"
)

// Command actions understood by the control endpoint.
const (
	ActionStop   = "stop"
	ActionPause  = "pause"
	ActionResume = "resume"
)

// Auditor records dispatched commands for operator forensics. Optional:
// a nil auditor disables recording.
type Auditor interface {
	RecordCommand(action string, backend unified.Backend, nativeID string, outcome string)
	RecordMissionCreate(title string, backend unified.Backend, remoteID string, outcome string)
}

// MissionDraft is the payload for mission creation.
type MissionDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Backend     unified.Backend `json:"backend"`
	AgentIDs    []string        `json:"agentIds,omitempty"`
}

// Dispatcher issues control commands and mission creations.
type Dispatcher struct {
	store    *recon.Store
	control  config.ControlConfig
	missions config.MissionsConfig
	client   *http.Client
	audit    Auditor
}

// New creates a dispatcher writing optimistic mutations into store.
func New(store *recon.Store, control config.ControlConfig, missions config.MissionsConfig, audit Auditor) *Dispatcher {
	timeout := control.Timeout
	if missions.Timeout > timeout {
		timeout = missions.Timeout
	}
	return &Dispatcher{
		store:    store,
		control:  control,
		missions: missions,
		client:   &http.Client{Timeout: timeout},
		audit:    audit,
	}
}

// Stop asks the backend to stop an agent and asserts done locally.
func (d *Dispatcher) Stop(ctx context.Context, backend unified.Backend, nativeID string) error {
	return d.command(ctx, ActionStop, backend, nativeID)
}

// Pause asks the backend to pause an agent and asserts paused locally.
func (d *Dispatcher) Pause(ctx context.Context, backend unified.Backend, nativeID string) error {
	return d.command(ctx, ActionPause, backend, nativeID)
}

// Resume asks the backend to resume an agent and asserts working locally.
func (d *Dispatcher) Resume(ctx context.Context, backend unified.Backend, nativeID string) error {
	return d.command(ctx, ActionResume, backend, nativeID)
}

// command applies the optimistic mutation, then fires the remote call. The
// remote call still fires for targets the store does not know: targeting
// correctness is the caller's responsibility, not validated here. Remote
// failure propagates to the caller but leaves local state as asserted.
func (d *Dispatcher) command(ctx context.Context, action string, backend unified.Backend, nativeID string) error {
	mutated := d.store.ApplyCommand(backend, nativeID, action)
	if mutated == 0 {
		logging.Debug("control command targets no local agent",
			"action", action, "backend", backend, "native_id", nativeID)
	}

	payload := map[string]string{
		"action":   action,
		"backend":  string(backend),
		"nativeId": nativeID,
	}

	err := d.post(ctx, d.control.CommandURL, d.control.Token, d.control.Timeout, payload, nil)
	if d.audit != nil {
		d.audit.RecordCommand(action, backend, nativeID, outcome(err))
	}
	if err != nil {
		return fmt.Errorf("%s %s/%s: %w", action, backend, nativeID, err)
	}
	return nil
}

// CreateMission creates a mission remotely and mirrors it locally on
// success. Creation is not optimistic: unlike agent status there is no next
// cycle that would re-derive a mission, so failure leaves local state
// untouched and propagates.
func (d *Dispatcher) CreateMission(ctx context.Context, draft MissionDraft) (unified.Mission, error) {
	if draft.Title == "" {
		return unified.Mission{}, fmt.Errorf("mission title is required")
	}

	var created unified.Mission
	err := d.post(ctx, d.missions.CreateURL, d.missions.Token, d.missions.Timeout, draft, &created)
	if d.audit != nil {
		d.audit.RecordMissionCreate(draft.Title, draft.Backend, created.ID, outcome(err))
	}
	if err != nil {
		return unified.Mission{}, fmt.Errorf("create mission: %w", err)
	}

	if created.ID == "" {
		// endpoint echoed nothing usable; the board entry still needs a
		// stable, collision-free id
		created.ID = uuid.NewString()
	}
	for _, id := range draft.AgentIDs {
		created.AssignAgent(id)
	}
	d.store.PrependMission(created)
	return created, nil
}

func (d *Dispatcher) post(ctx context.Context, url, token string, timeout time.Duration, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
