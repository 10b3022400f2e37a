package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/argusproj/argus/internal/config"
	"github.com/argusproj/argus/internal/recon"
	"github.com/argusproj/argus/internal/unified"
)

var testKinds = []unified.Backend{unified.BackendClaude, unified.BackendCodex}

type recordingAudit struct {
	mu       sync.Mutex
	commands []string
	missions []string
}

func (a *recordingAudit) RecordCommand(action string, backend unified.Backend, nativeID, outcome string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands = append(a.commands, action+":"+outcome)
}

func (a *recordingAudit) RecordMissionCreate(title string, backend unified.Backend, remoteID, outcome string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.missions = append(a.missions, title+":"+outcome)
}

func seedStore(t *testing.T) *recon.Store {
	t.Helper()
	s := recon.New(testKinds)
	s.ReplaceAgents(1, []unified.Agent{{
		ID:       unified.AgentID(unified.BackendClaude, "n1"),
		Backend:  unified.BackendClaude,
		NativeID: "n1",
		Status:   unified.StatusWorking,
	}})
	return s
}

func TestCommandDispatch(t *testing.T) {
	t.Run("PostsActionTriple", func(t *testing.T) {
		var got map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
		}))
		t.Cleanup(srv.Close)

		store := seedStore(t)
		d := New(store, config.ControlConfig{CommandURL: srv.URL, Timeout: time.Second}, config.MissionsConfig{}, nil)

		if err := d.Stop(context.Background(), unified.BackendClaude, "n1"); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if got["action"] != "stop" || got["backend"] != "claude" || got["nativeId"] != "n1" {
			t.Errorf("unexpected payload %+v", got)
		}
	})

	t.Run("OptimisticBeforeRemoteResolves", func(t *testing.T) {
		release := make(chan struct{})
		statusSeen := make(chan unified.Status, 1)

		store := seedStore(t)
		store.Select("claude:n1")

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// remote still hanging: local state must already be done
			if sel, ok := store.SelectedAgent(); ok {
				statusSeen <- sel.Status
			}
			<-release
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		d := New(store, config.ControlConfig{CommandURL: srv.URL, Timeout: 5 * time.Second}, config.MissionsConfig{}, nil)

		done := make(chan error, 1)
		go func() { done <- d.Stop(context.Background(), unified.BackendClaude, "n1") }()

		select {
		case st := <-statusSeen:
			if st != unified.StatusDone {
				t.Errorf("expected done before response, got %s", st)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("remote call never arrived")
		}
		release <- struct{}{}
		<-done
	})

	t.Run("RemoteFailurePropagatesWithoutRollback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "backend exploded", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		store := seedStore(t)
		audit := &recordingAudit{}
		d := New(store, config.ControlConfig{CommandURL: srv.URL, Timeout: time.Second}, config.MissionsConfig{}, audit)

		err := d.Pause(context.Background(), unified.BackendClaude, "n1")
		if err == nil {
			t.Fatal("expected error from failing endpoint")
		}
		if store.Agents()[0].Status != unified.StatusPaused {
			t.Error("optimistic mutation must survive remote failure")
		}
		if len(audit.commands) != 1 || audit.commands[0] == "pause:ok" {
			t.Errorf("audit should record the failure: %v", audit.commands)
		}
	})

	t.Run("UnknownTargetStillFires", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		t.Cleanup(srv.Close)

		store := seedStore(t)
		d := New(store, config.ControlConfig{CommandURL: srv.URL, Timeout: time.Second}, config.MissionsConfig{}, nil)

		if err := d.Resume(context.Background(), unified.BackendCodex, "ghost"); err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
		if calls != 1 {
			t.Errorf("remote call must fire even for unknown targets, got %d calls", calls)
		}
	})
}

func TestCreateMission(t *testing.T) {
	t.Run("SuccessPrepends", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var draft MissionDraft
			json.NewDecoder(r.Body).Decode(&draft)
			json.NewEncoder(w).Encode(unified.Mission{
				ID:     "m-42",
				Title:  draft.Title,
				Status: "active",
			})
		}))
		t.Cleanup(srv.Close)

		store := seedStore(t)
		store.SetMissions([]unified.Mission{{ID: "m-1", Title: "existing"}})
		audit := &recordingAudit{}
		d := New(store, config.ControlConfig{}, config.MissionsConfig{CreateURL: srv.URL, Timeout: time.Second}, audit)

		created, err := d.CreateMission(context.Background(), MissionDraft{
			Title:    "ship it",
			Backend:  unified.BackendClaude,
			AgentIDs: []string{"claude:n1", "claude:n1"},
		})
		if err != nil {
			t.Fatalf("CreateMission failed: %v", err)
		}
		if created.ID != "m-42" {
			t.Errorf("remote id not mirrored: %q", created.ID)
		}
		if len(created.AssignedAgentIDs) != 1 {
			t.Errorf("agent ids must collapse to a set: %v", created.AssignedAgentIDs)
		}

		missions := store.Missions()
		if len(missions) != 2 || missions[0].ID != "m-42" {
			t.Errorf("created mission must be prepended: %+v", missions)
		}
		if len(audit.missions) != 1 {
			t.Errorf("mission creation not audited: %v", audit.missions)
		}
	})

	t.Run("MissingRemoteIDGetsLocalFallback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(unified.Mission{Title: "echoed", Status: "active"})
		}))
		t.Cleanup(srv.Close)

		store := seedStore(t)
		d := New(store, config.ControlConfig{}, config.MissionsConfig{CreateURL: srv.URL, Timeout: time.Second}, nil)

		first, err := d.CreateMission(context.Background(), MissionDraft{Title: "same title", Backend: unified.BackendClaude})
		if err != nil {
			t.Fatalf("CreateMission failed: %v", err)
		}
		second, err := d.CreateMission(context.Background(), MissionDraft{Title: "same title", Backend: unified.BackendClaude})
		if err != nil {
			t.Fatalf("CreateMission failed: %v", err)
		}

		if first.ID == "" || second.ID == "" {
			t.Fatal("fallback id must be assigned")
		}
		if strings.ContainsAny(first.ID, " ") {
			t.Errorf("fallback id must be addressable, got %q", first.ID)
		}
		if first.ID == second.ID {
			t.Errorf("same-titled missions must not collide: %q", first.ID)
		}
	})

	t.Run("FailureLeavesStoreUntouched", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusForbidden)
		}))
		t.Cleanup(srv.Close)

		store := seedStore(t)
		d := New(store, config.ControlConfig{}, config.MissionsConfig{CreateURL: srv.URL, Timeout: time.Second}, nil)

		_, err := d.CreateMission(context.Background(), MissionDraft{Title: "doomed", Backend: unified.BackendClaude})
		if err == nil {
			t.Fatal("expected error")
		}
		if len(store.Missions()) != 0 {
			t.Error("failed creation must not mutate local missions")
		}
	})

	t.Run("EmptyTitleRejectedLocally", func(t *testing.T) {
		store := seedStore(t)
		d := New(store, config.ControlConfig{}, config.MissionsConfig{CreateURL: "http://localhost:1"}, nil)
		if _, err := d.CreateMission(context.Background(), MissionDraft{}); err == nil {
			t.Error("expected validation error")
		}
	})
}
