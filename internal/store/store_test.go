package store

import (
	"os"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "argus-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	st, err := New(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		st.Close()
		os.RemoveAll(tmpDir)
	}

	return st, cleanup
}

func TestCommands(t *testing.T) {
	st, cleanup := setupTestStore(t)
	defer cleanup()

	t.Run("InsertAndList", func(t *testing.T) {
		if err := st.InsertCommand("stop", "claude", "n1", "ok"); err != nil {
			t.Fatalf("InsertCommand failed: %v", err)
		}
		if err := st.InsertCommand("pause", "codex", "s1", "status 500: boom"); err != nil {
			t.Fatalf("InsertCommand failed: %v", err)
		}

		records, err := st.ListCommands(10)
		if err != nil {
			t.Fatalf("ListCommands failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		for _, rec := range records {
			if rec.ID == "" {
				t.Error("record missing id")
			}
			if rec.CreatedAt.IsZero() {
				t.Error("record missing timestamp")
			}
		}
	})

	t.Run("LimitApplies", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			if err := st.InsertCommand("resume", "gemini", "w1", "ok"); err != nil {
				t.Fatalf("InsertCommand failed: %v", err)
			}
		}
		records, err := st.ListCommands(3)
		if err != nil {
			t.Fatalf("ListCommands failed: %v", err)
		}
		if len(records) != 3 {
			t.Errorf("expected 3 records, got %d", len(records))
		}
	})
}

func TestMissionAudit(t *testing.T) {
	st, cleanup := setupTestStore(t)
	defer cleanup()

	if err := st.InsertMissionAudit("ship feature", "claude", "m-42", "ok"); err != nil {
		t.Fatalf("InsertMissionAudit failed: %v", err)
	}
	if err := st.InsertMissionAudit("doomed", "codex", "", "status 403: quota exceeded"); err != nil {
		t.Fatalf("InsertMissionAudit failed: %v", err)
	}

	records, err := st.ListMissionAudit(10)
	if err != nil {
		t.Fatalf("ListMissionAudit failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	var sawSuccess bool
	for _, rec := range records {
		if rec.RemoteID == "m-42" && rec.Outcome == "ok" {
			sawSuccess = true
		}
	}
	if !sawSuccess {
		t.Error("successful creation not recorded with remote id")
	}
}
