// Package snapshot keeps the CLI's last known task list and filter selection
// in a local SQLite file, so listing works between refreshes.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/tasklist"
)

// Store is a SQLite-backed snapshot of a tasklist.State.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the snapshot database at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

type filterRow struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

// Load returns the saved state. An empty database yields an empty list with
// no filter.
func (s *Store) Load(ctx context.Context) (tasklist.State, error) {
	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, "SELECT payload FROM tasks ORDER BY position"); err != nil {
		return tasklist.State{}, fmt.Errorf("reading tasks: %w", err)
	}

	tasks := make([]task.Task, 0, len(payloads))
	for i, p := range payloads {
		var t task.Task
		if err := json.Unmarshal([]byte(p), &t); err != nil {
			return tasklist.State{}, fmt.Errorf("decoding task at position %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}

	var rows []filterRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT name, value FROM filters"); err != nil {
		return tasklist.State{}, fmt.Errorf("reading filters: %w", err)
	}
	f, err := decodeFilter(rows)
	if err != nil {
		return tasklist.State{}, err
	}

	return tasklist.NewState(tasks, f), nil
}

// Save replaces the snapshot with st in a single transaction.
func (s *Store) Save(ctx context.Context, st tasklist.State) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, "INSERT INTO tasks (position, id, payload, saved_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, t := range st.Tasks() {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding task %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, t.ID, string(payload), now); err != nil {
			return fmt.Errorf("saving task %s: %w", t.ID, err)
		}
	}

	for _, row := range encodeFilter(st.Filter()) {
		if _, err := tx.NamedExecContext(ctx,
			"INSERT OR REPLACE INTO filters (name, value) VALUES (:name, :value)", row,
		); err != nil {
			return fmt.Errorf("saving filter %s: %w", row.Name, err)
		}
	}

	return tx.Commit()
}

func encodeFilter(f tasklist.Filter) []filterRow {
	week := ""
	if f.Week != nil {
		week = f.Week.Start.String()
	}
	return []filterRow{
		{Name: "status", Value: string(f.Status)},
		{Name: "priority", Value: string(f.Priority)},
		{Name: "week", Value: week},
	}
}

func decodeFilter(rows []filterRow) (tasklist.Filter, error) {
	f := tasklist.NoFilter()
	for _, r := range rows {
		var err error
		switch r.Name {
		case "status":
			f.Status, err = tasklist.ParseStatus(r.Value)
		case "priority":
			f.Priority, err = tasklist.ParsePriority(r.Value)
		case "week":
			f.Week, err = tasklist.ParseWeek(r.Value)
		}
		if err != nil {
			return tasklist.Filter{}, fmt.Errorf("decoding filter %s: %w", r.Name, err)
		}
	}
	return f, nil
}
