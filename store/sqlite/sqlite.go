// Package sqlite provides a SuspensionStore backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/graphflow/store"
)

// SqliteSuspensionStore implements store.SuspensionStore using SQLite.
type SqliteSuspensionStore struct {
	db        *sql.DB
	tableName string
}

var _ store.SuspensionStore = (*SqliteSuspensionStore)(nil)

// SqliteOptions configure the SQLite connection.
type SqliteOptions struct {
	Path      string
	TableName string // Default "suspensions"
}

// NewSqliteSuspensionStore opens the database and ensures the schema.
func NewSqliteSuspensionStore(opts SqliteOptions) (*SqliteSuspensionStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "suspensions"
	}

	s := &SqliteSuspensionStore{db: db, tableName: tableName}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the table and index if they do not exist.
func (s *SqliteSuspensionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			reason TEXT,
			state BLOB NOT NULL,
			schema_version INTEGER NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_workflow_id ON %s (workflow_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqliteSuspensionStore) Close() error {
	return s.db.Close()
}

// Save stores a suspension, overwriting an existing ID.
func (s *SqliteSuspensionStore) Save(ctx context.Context, susp *store.Suspension) error {
	metadataJSON, err := json.Marshal(susp.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workflow_id, node_id, reason, state, schema_version, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workflow_id = excluded.workflow_id,
			node_id = excluded.node_id,
			reason = excluded.reason,
			state = excluded.state,
			schema_version = excluded.schema_version,
			metadata = excluded.metadata,
			created_at = excluded.created_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		susp.ID, susp.WorkflowID, susp.NodeID, susp.Reason,
		susp.State, susp.SchemaVersion, string(metadataJSON), susp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save suspension: %w", err)
	}
	return nil
}

// Load retrieves a suspension by ID.
func (s *SqliteSuspensionStore) Load(ctx context.Context, id string) (*store.Suspension, error) {
	query := fmt.Sprintf(`
		SELECT id, workflow_id, node_id, reason, state, schema_version, metadata, created_at
		FROM %s WHERE id = ?
	`, s.tableName)

	susp, err := scanSuspension(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("suspension %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load suspension: %w", err)
	}
	return susp, nil
}

// List returns the suspensions of a workflow execution, oldest first.
func (s *SqliteSuspensionStore) List(ctx context.Context, workflowID string) ([]*store.Suspension, error) {
	query := fmt.Sprintf(`
		SELECT id, workflow_id, node_id, reason, state, schema_version, metadata, created_at
		FROM %s WHERE workflow_id = ? ORDER BY created_at ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list suspensions: %w", err)
	}
	defer rows.Close()

	var out []*store.Suspension
	for rows.Next() {
		susp, err := scanSuspension(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suspension: %w", err)
		}
		out = append(out, susp)
	}
	return out, rows.Err()
}

// Delete removes a suspension.
func (s *SqliteSuspensionStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete suspension: %w", err)
	}
	return nil
}

// Clear removes all suspensions of a workflow execution.
func (s *SqliteSuspensionStore) Clear(ctx context.Context, workflowID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE workflow_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, workflowID); err != nil {
		return fmt.Errorf("failed to clear suspensions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuspension(row rowScanner) (*store.Suspension, error) {
	var susp store.Suspension
	var metadataJSON string

	err := row.Scan(&susp.ID, &susp.WorkflowID, &susp.NodeID, &susp.Reason,
		&susp.State, &susp.SchemaVersion, &metadataJSON, &susp.CreatedAt)
	if err != nil {
		return nil, err
	}
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &susp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &susp, nil
}
