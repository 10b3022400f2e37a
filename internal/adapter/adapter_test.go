package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/argusproj/argus/internal/config"
	"github.com/argusproj/argus/internal/unified"
)

func newTestAdapter(t *testing.T, kind unified.Backend, handler http.HandlerFunc) (Adapter, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := New(config.BackendConfig{
		Kind:      kind,
		Name:      strings.ToUpper(string(kind)),
		StatusURL: srv.URL,
		Timeout:   2 * time.Second,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a, srv
}

func TestClaudeFetch(t *testing.T) {
	t.Run("MapsRunningToWorking", func(t *testing.T) {
		a, _ := newTestAdapter(t, unified.BackendClaude, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"a1","name":"planner","status":"RUNNING"}]`))
		})

		agents := a.Fetch(context.Background())
		if len(agents) != 1 {
			t.Fatalf("expected 1 agent, got %d", len(agents))
		}
		if agents[0].Status != unified.StatusWorking {
			t.Errorf("expected working, got %s", agents[0].Status)
		}
		if agents[0].ID != "claude:a1" {
			t.Errorf("unexpected id %q", agents[0].ID)
		}
		if agents[0].Raw == nil {
			t.Error("raw record not retained")
		}
	})

	t.Run("WrappedArray", func(t *testing.T) {
		a, _ := newTestAdapter(t, unified.BackendClaude, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"agents":[{"id":"a1","status":"done"},{"id":"a2","status":"blocked"}]}`))
		})

		agents := a.Fetch(context.Background())
		if len(agents) != 2 {
			t.Fatalf("expected 2 agents, got %d", len(agents))
		}
		if agents[0].Status != unified.StatusDone || agents[1].Status != unified.StatusBlocked {
			t.Errorf("unexpected statuses %s/%s", agents[0].Status, agents[1].Status)
		}
	})

	t.Run("IdentityStableAcrossFetches", func(t *testing.T) {
		a, _ := newTestAdapter(t, unified.BackendClaude, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"a1","status":"idle"}]`))
		})

		first := a.Fetch(context.Background())
		second := a.Fetch(context.Background())
		if first[0].ID != second[0].ID {
			t.Errorf("id changed across fetches: %q vs %q", first[0].ID, second[0].ID)
		}
	})

	t.Run("MissingIDFallsBackToIndex", func(t *testing.T) {
		a, _ := newTestAdapter(t, unified.BackendClaude, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"status":"working"},{"status":"idle"}]`))
		})

		agents := a.Fetch(context.Background())
		if len(agents) != 2 {
			t.Fatalf("expected 2 agents, got %d", len(agents))
		}
		if agents[0].NativeID == agents[1].NativeID {
			t.Errorf("fallback ids collide: %q", agents[0].NativeID)
		}
	})
}

func TestFetchFailureContainment(t *testing.T) {
	t.Run("ConnectionRefused", func(t *testing.T) {
		a, srv := newTestAdapter(t, unified.BackendCodex, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()

		agents := a.Fetch(context.Background())
		if len(agents) != 1 {
			t.Fatalf("expected 1 synthetic agent, got %d", len(agents))
		}
		if agents[0].Status != unified.StatusError {
			t.Errorf("expected error status, got %s", agents[0].Status)
		}
		if agents[0].ErrorMessage == "" {
			t.Error("error message is empty")
		}
		if agents[0].Backend != unified.BackendCodex {
			t.Errorf("wrong backend tag %s", agents[0].Backend)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		t.Cleanup(srv.Close)

		a, err := New(config.BackendConfig{
			Kind:      unified.BackendGemini,
			Name:      "Gemini",
			StatusURL: srv.URL,
			Timeout:   50 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		agents := a.Fetch(context.Background())
		if len(agents) != 1 || agents[0].Status != unified.StatusError {
			t.Fatalf("expected single error agent, got %+v", agents)
		}
		if agents[0].ErrorMessage == "" {
			t.Error("timeout should carry a diagnostic")
		}
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		a, _ := newTestAdapter(t, unified.BackendOpencode, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		})

		agents := a.Fetch(context.Background())
		if len(agents) != 1 || agents[0].Status != unified.StatusError {
			t.Fatalf("expected single error agent, got %+v", agents)
		}
	})

	t.Run("MalformedBody", func(t *testing.T) {
		a, _ := newTestAdapter(t, unified.BackendClaude, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json at all`))
		})

		agents := a.Fetch(context.Background())
		if len(agents) != 1 || agents[0].Status != unified.StatusError {
			t.Fatalf("expected single error agent, got %+v", agents)
		}
	})

	t.Run("EmptyCollectionYieldsIdlePlaceholder", func(t *testing.T) {
		a, _ := newTestAdapter(t, unified.BackendCodex, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"sessions":[]}`))
		})

		agents := a.Fetch(context.Background())
		if len(agents) != 1 {
			t.Fatalf("expected 1 placeholder, got %d", len(agents))
		}
		if agents[0].Status != unified.StatusIdle {
			t.Errorf("expected idle placeholder, got %s", agents[0].Status)
		}
		if agents[0].ErrorMessage != "" {
			t.Error("idle placeholder must not carry an error")
		}
	})
}

func TestCodexStateMapping(t *testing.T) {
	a, _ := newTestAdapter(t, unified.BackendCodex, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessions":[
			{"session_id":"s1","state":"archived"},
			{"session_id":"s2","state":"active"},
			{"session_id":"s3","state":"interrupted"},
			{"session_id":"s4","state":"somethingelse"}
		]}`))
	})

	agents := a.Fetch(context.Background())
	want := []unified.Status{unified.StatusDone, unified.StatusWorking, unified.StatusPaused, unified.StatusIdle}
	if len(agents) != len(want) {
		t.Fatalf("expected %d agents, got %d", len(want), len(agents))
	}
	for i, w := range want {
		if agents[i].Status != w {
			t.Errorf("session %d: expected %s, got %s", i, w, agents[i].Status)
		}
	}
}

func TestGeminiLastSeen(t *testing.T) {
	a, _ := newTestAdapter(t, unified.BackendGemini, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"workers":[{"worker_id":"w1","phase":"executing","last_seen":1700000000}]}`))
	})

	agents := a.Fetch(context.Background())
	if len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(agents))
	}
	if agents[0].Status != unified.StatusWorking {
		t.Errorf("executing should classify as working, got %s", agents[0].Status)
	}
	if agents[0].LastActiveAt == nil || agents[0].LastActiveAt.Unix() != 1700000000 {
		t.Errorf("last_seen not parsed: %v", agents[0].LastActiveAt)
	}
}

func TestBearerAuth(t *testing.T) {
	t.Run("StaticToken", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`[]`))
		}))
		t.Cleanup(srv.Close)

		a, err := New(config.BackendConfig{
			Kind:      unified.BackendClaude,
			StatusURL: srv.URL,
			Token:     "secret-token",
			Timeout:   time.Second,
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		a.Fetch(context.Background())
		if gotAuth != "Bearer secret-token" {
			t.Errorf("unexpected auth header %q", gotAuth)
		}
	})

	t.Run("MintedServiceToken", func(t *testing.T) {
		cfg := config.BackendConfig{
			Kind:      unified.BackendGemini,
			JWTSecret: "shared-secret",
		}

		token, err := AuthToken(cfg)
		if err != nil {
			t.Fatalf("AuthToken failed: %v", err)
		}

		parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			return []byte("shared-secret"), nil
		})
		if err != nil {
			t.Fatalf("token does not verify: %v", err)
		}
		claims := parsed.Claims.(*jwt.RegisteredClaims)
		if claims.Issuer != "argus" {
			t.Errorf("unexpected issuer %q", claims.Issuer)
		}
		if claims.Subject != "gemini" {
			t.Errorf("unexpected subject %q", claims.Subject)
		}
		if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > serviceTokenTTL {
			t.Error("token expiry out of bounds")
		}
	})
}

func TestClassifyTokens(t *testing.T) {
	cases := map[string]unified.Status{
		"RUNNING":     unified.StatusWorking,
		"in_progress": unified.StatusIdle, // no matching token, falls through
		"executing":   unified.StatusWorking,
		"BLOCKED":     unified.StatusBlocked,
		"pending":     unified.StatusBlocked,
		"waiting":     unified.StatusBlocked,
		"failed":      unified.StatusError,
		"Error":       unified.StatusError,
		"DONE":        unified.StatusDone,
		"completed":   unified.StatusDone,
		"paused":      unified.StatusPaused,
		"":            unified.StatusIdle,
		"mystery":     unified.StatusIdle,
	}
	for native, want := range cases {
		if got := classifyTokens(native); got != want {
			t.Errorf("classifyTokens(%q) = %s, want %s", native, got, want)
		}
	}
}
