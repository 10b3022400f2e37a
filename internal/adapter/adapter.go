// Package adapter fetches raw agent state from remote backends and
// normalizes it into the unified model.
//
// Every adapter follows the same containment contract: Fetch never returns
// an error. Transport failures, non-2xx responses, and timeouts are folded
// into a single synthetic gateway agent with status "error", and a backend
// that is reachable but reports no agents yields a single idle gateway
// placeholder. A backend is therefore always visible in the aggregate view.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/argusproj/argus/internal/config"
	"github.com/argusproj/argus/internal/unified"
)

// gatewayNativeID is the native id used for synthetic agents that represent
// the backend's own control surface rather than a real agent.
const gatewayNativeID = "_gateway"

// Adapter fetches and normalizes agent state for one backend kind.
type Adapter interface {
	Kind() unified.Backend
	Name() string

	// Fetch returns the backend's current agents. It never fails: all
	// errors are converted into synthetic gateway agents.
	Fetch(ctx context.Context) []unified.Agent
}

// New returns the adapter for the configured backend kind.
func New(cfg config.BackendConfig) (Adapter, error) {
	base := httpFetcher{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
	switch cfg.Kind {
	case unified.BackendClaude:
		return &claudeAdapter{httpFetcher: base}, nil
	case unified.BackendCodex:
		return &codexAdapter{httpFetcher: base}, nil
	case unified.BackendGemini:
		return &geminiAdapter{httpFetcher: base}, nil
	case unified.BackendOpencode:
		return &opencodeAdapter{httpFetcher: base}, nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}

// httpFetcher holds the transport shared by all adapters.
type httpFetcher struct {
	cfg    config.BackendConfig
	client *http.Client
}

// get performs the bounded status call and returns the raw body.
func (f *httpFetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.StatusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token, err := AuthToken(f.cfg)
	if err != nil {
		return nil, fmt.Errorf("auth token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

// gatewayError builds the synthetic agent for an unreachable backend.
func (f *httpFetcher) gatewayError(err error) []unified.Agent {
	return []unified.Agent{{
		ID:           unified.AgentID(f.cfg.Kind, gatewayNativeID),
		Backend:      f.cfg.Kind,
		NativeID:     gatewayNativeID,
		Name:         f.cfg.Name,
		Role:         "gateway",
		Status:       unified.StatusError,
		ErrorMessage: err.Error(),
	}}
}

// gatewayIdle builds the placeholder for a reachable backend with no agents.
func (f *httpFetcher) gatewayIdle() []unified.Agent {
	return []unified.Agent{{
		ID:       unified.AgentID(f.cfg.Kind, gatewayNativeID),
		Backend:  f.cfg.Kind,
		NativeID: gatewayNativeID,
		Name:     f.cfg.Name,
		Role:     "gateway",
		Status:   unified.StatusIdle,
	}}
}

// decodeRecords extracts the array of native records from a response body.
// Backends return either a bare array or an object wrapping one under a
// known key; anything else is treated as malformed.
func decodeRecords(body []byte, keys ...string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("malformed response")
	}
	for _, key := range keys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &records); err == nil {
			return records, nil
		}
	}
	return nil, fmt.Errorf("malformed response")
}
