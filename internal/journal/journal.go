// Package journal keeps a best-effort record of executed commands in a
// local sqlite database. Journal failures are logged and never propagate
// into command execution.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"filegenie/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	conversation TEXT NOT NULL,
	command TEXT NOT NULL,
	argc INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_conversation ON executions(conversation);
`

// Journal is an append-only execution log.
type Journal struct {
	db *sql.DB
}

// Entry is one recorded execution.
type Entry struct {
	ID           int64
	Timestamp    time.Time
	Conversation string
	Command      string
	Argc         int
	Outcome      string
	DurationMS   int64
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record appends one execution. Failures are logged, not returned; the
// journal must never fail a command that already ran.
func (j *Journal) Record(conversation, command string, argc int, execErr error, d time.Duration) {
	outcome := "ok"
	if execErr != nil {
		outcome = execErr.Error()
	}
	_, err := j.db.Exec(
		`INSERT INTO executions (ts, conversation, command, argc, outcome, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), conversation, command, argc, outcome, d.Milliseconds(),
	)
	if err != nil {
		logging.ErrorLog("journal: record %s failed: %v", command, err)
	}
}

// Recent returns the newest n entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, ts, conversation, command, argc, outcome, duration_ms
		 FROM executions ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Conversation, &e.Command, &e.Argc, &e.Outcome, &e.DurationMS); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
