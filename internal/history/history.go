// Package history provides SQLite-backed persistence of generation
// attempts. The in-memory task registry is lost on restart; this log is
// the durable record of what ran and how it ended.
package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/raopodili/mcpgen/internal/models"
	_ "modernc.org/sqlite"
)

// Store provides access to the generation history database.
type Store struct {
	db *sql.DB
}

// New creates a Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generation_records (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		service_name TEXT NOT NULL,
		prompt_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generation_records_task_id ON generation_records(task_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// HashPrompt returns the stable hash stored instead of the prompt text.
func HashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Record inserts a generation record for a finished task.
func (s *Store) Record(taskID, serviceName, promptHash, outcome, reason string, duration time.Duration) (*models.GenerationRecord, error) {
	rec := &models.GenerationRecord{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		ServiceName: serviceName,
		PromptHash:  promptHash,
		Outcome:     outcome,
		Reason:      reason,
		DurationMS:  duration.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO generation_records (id, task_id, service_name, prompt_hash, outcome, reason, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TaskID, rec.ServiceName, rec.PromptHash, rec.Outcome, rec.Reason, rec.DurationMS, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert generation record: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first.
func (s *Store) List(limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, task_id, service_name, prompt_hash, outcome, reason, duration_ms, created_at FROM generation_records ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query generation records: %w", err)
	}
	defer rows.Close()

	var records []models.GenerationRecord
	for rows.Next() {
		var rec models.GenerationRecord
		var reason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.ServiceName, &rec.PromptHash, &rec.Outcome, &reason, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation record: %w", err)
		}
		if reason.Valid {
			rec.Reason = reason.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ForTask returns records for one task.
func (s *Store) ForTask(taskID string) ([]models.GenerationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, service_name, prompt_hash, outcome, reason, duration_ms, created_at FROM generation_records WHERE task_id = ? ORDER BY created_at DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query records for task: %w", err)
	}
	defer rows.Close()

	var records []models.GenerationRecord
	for rows.Next() {
		var rec models.GenerationRecord
		var reason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.ServiceName, &rec.PromptHash, &rec.Outcome, &reason, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation record: %w", err)
		}
		if reason.Valid {
			rec.Reason = reason.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
