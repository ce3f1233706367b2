// Package journal persists what a repair run changed, so an operator can look
// back at which references were rebound or removed.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	_ "github.com/glebarez/go-sqlite"

	"github.com/xxxsen/dtxorg/internal/model"
)

const tableName = "repair_journal_tab"

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS repair_journal_tab (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file VARCHAR(1024) NOT NULL,
	property VARCHAR(64) NOT NULL,
	value VARCHAR(1024) NOT NULL,
	action VARCHAR(16) NOT NULL,
	new_value VARCHAR(1024) NOT NULL,
	create_time BIGINT NOT NULL
);`

	createIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_repair_journal_tab_file
ON repair_journal_tab(file);`
)

var selectFields = []string{"id", "file", "property", "value", "action", "new_value", "create_time"}

// Entry is one journaled repair.
type Entry struct {
	ID         int64
	CreateTime int64
	model.Problem
}

// Store is the sqlite backed journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, createIndexSQL); err != nil {
		return err
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends problems in one statement.
func (s *Store) Record(ctx context.Context, problems []model.Problem) error {
	if len(problems) == 0 {
		return nil
	}
	now := s.now().Unix()
	payload := make([]map[string]interface{}, 0, len(problems))
	for _, p := range problems {
		payload = append(payload, map[string]interface{}{
			"file":        p.File,
			"property":    p.Property,
			"value":       p.Value,
			"action":      string(p.Action),
			"new_value":   p.NewValue,
			"create_time": now,
		})
	}
	insertSQL, args, err := builder.BuildInsert(tableName, payload)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertSQL, args...); err != nil {
		return fmt.Errorf("insert journal entries: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of zero or less lists everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	where := map[string]interface{}{"_orderby": "id desc"}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	query, args, err := builder.BuildSelect(tableName, where, selectFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.File, &e.Property, &e.Value, &action, &e.NewValue, &e.CreateTime); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Action = model.ProblemAction(action)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	in := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		in = append(in, id)
	}
	deleteSQL, args, err := builder.BuildDelete(tableName, map[string]interface{}{"id in": in})
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, deleteSQL, args...); err != nil {
		return fmt.Errorf("delete journal entries: %w", err)
	}
	return nil
}
