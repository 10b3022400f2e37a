package store

import (
	"time"

	"github.com/google/uuid"
)

// CommandRecord is one dispatched control command.
type CommandRecord struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Backend   string    `json:"backend"`
	NativeID  string    `json:"native_id"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// MissionAuditRecord is one mission creation attempt.
type MissionAuditRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Backend   string    `json:"backend"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertCommand records a dispatched control command.
func (s *Store) InsertCommand(action, backend, nativeID, outcome string) error {
	query := `
		INSERT INTO control_commands (id, action, backend, native_id, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, uuid.NewString(), action, backend, nativeID, outcome, time.Now())
	return err
}

// InsertMissionAudit records a mission creation attempt.
func (s *Store) InsertMissionAudit(title, backend, remoteID, outcome string) error {
	query := `
		INSERT INTO mission_audit (id, title, backend, remote_id, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, uuid.NewString(), title, backend, remoteID, outcome, time.Now())
	return err
}

// ListCommands retrieves recent control commands, newest first.
func (s *Store) ListCommands(limit int) ([]*CommandRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, action, backend, native_id, outcome, created_at
		FROM control_commands
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*CommandRecord
	for rows.Next() {
		rec := &CommandRecord{}
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.Backend, &rec.NativeID, &rec.Outcome, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListMissionAudit retrieves recent mission creation attempts, newest first.
func (s *Store) ListMissionAudit(limit int) ([]*MissionAuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, title, backend, remote_id, outcome, created_at
		FROM mission_audit
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*MissionAuditRecord
	for rows.Next() {
		rec := &MissionAuditRecord{}
		var remoteID *string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Backend, &remoteID, &rec.Outcome, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if remoteID != nil {
			rec.RemoteID = *remoteID
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
