// Package postgres provides a SuspensionStore backed by PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/graphflow/store"
)

// DBPool is the subset of pgxpool.Pool the store needs; tests substitute a
// mock.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresSuspensionStore implements store.SuspensionStore using Postgres.
type PostgresSuspensionStore struct {
	pool      DBPool
	tableName string
}

var _ store.SuspensionStore = (*PostgresSuspensionStore)(nil)

// PostgresOptions configure the Postgres connection.
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "suspensions"
}

// NewPostgresSuspensionStore creates a store over a new connection pool.
func NewPostgresSuspensionStore(ctx context.Context, opts PostgresOptions) (*PostgresSuspensionStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresSuspensionStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresSuspensionStoreWithPool creates a store over an existing pool.
func NewPostgresSuspensionStoreWithPool(pool DBPool, tableName string) *PostgresSuspensionStore {
	if tableName == "" {
		tableName = "suspensions"
	}
	return &PostgresSuspensionStore{pool: pool, tableName: tableName}
}

// InitSchema creates the table and index if they do not exist.
func (s *PostgresSuspensionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			reason TEXT,
			state BYTEA NOT NULL,
			schema_version INTEGER NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_workflow_id ON %s (workflow_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresSuspensionStore) Close() {
	s.pool.Close()
}

// Save stores a suspension, overwriting an existing ID.
func (s *PostgresSuspensionStore) Save(ctx context.Context, susp *store.Suspension) error {
	metadataJSON, err := json.Marshal(susp.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, workflow_id, node_id, reason, state, schema_version, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			workflow_id = EXCLUDED.workflow_id,
			node_id = EXCLUDED.node_id,
			reason = EXCLUDED.reason,
			state = EXCLUDED.state,
			schema_version = EXCLUDED.schema_version,
			metadata = EXCLUDED.metadata,
			created_at = EXCLUDED.created_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		susp.ID, susp.WorkflowID, susp.NodeID, susp.Reason,
		susp.State, susp.SchemaVersion, metadataJSON, susp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save suspension: %w", err)
	}
	return nil
}

// Load retrieves a suspension by ID.
func (s *PostgresSuspensionStore) Load(ctx context.Context, id string) (*store.Suspension, error) {
	query := fmt.Sprintf(`
		SELECT id, workflow_id, node_id, reason, state, schema_version, metadata, created_at
		FROM %s WHERE id = $1
	`, s.tableName)

	susp, err := scanSuspension(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("suspension %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load suspension: %w", err)
	}
	return susp, nil
}

// List returns the suspensions of a workflow execution, oldest first.
func (s *PostgresSuspensionStore) List(ctx context.Context, workflowID string) ([]*store.Suspension, error) {
	query := fmt.Sprintf(`
		SELECT id, workflow_id, node_id, reason, state, schema_version, metadata, created_at
		FROM %s WHERE workflow_id = $1 ORDER BY created_at ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, workflowID)
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
func (s *PostgresSuspensionStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete suspension: %w", err)
	}
	return nil
}

// Clear removes all suspensions of a workflow execution.
func (s *PostgresSuspensionStore) Clear(ctx context.Context, workflowID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE workflow_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, workflowID); err != nil {
		return fmt.Errorf("failed to clear suspensions: %w", err)
	}
	return nil
}

func scanSuspension(row pgx.Row) (*store.Suspension, error) {
	var susp store.Suspension
	var metadataJSON []byte

	err := row.Scan(&susp.ID, &susp.WorkflowID, &susp.NodeID, &susp.Reason,
		&susp.State, &susp.SchemaVersion, &metadataJSON, &susp.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &susp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &susp, nil
}
