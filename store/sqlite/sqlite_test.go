package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/graphflow/store"
)

func newTestStore(t *testing.T) *SqliteSuspensionStore {
	t.Helper()
	s, err := NewSqliteSuspensionStore(SqliteOptions{
		Path: filepath.Join(t.TempDir(), "suspensions.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSuspension(id, workflowID string, age time.Duration) *store.Suspension {
	return &store.Suspension{
		ID:            id,
		WorkflowID:    workflowID,
		NodeID:        "approve",
		Reason:        "awaiting approval",
		State:         []byte(`{"current":"approve"}`),
		SchemaVersion: 1,
		Metadata:      map[string]any{"priority": "high"},
		CreatedAt:     time.Now().Add(-age).UTC(),
	}
}

func TestSqliteStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	susp := sampleSuspension("susp-1", "wf-1", 0)
	require.NoError(t, s.Save(ctx, susp))

	loaded, err := s.Load(ctx, "susp-1")
	require.NoError(t, err)
	assert.Equal(t, susp.ID, loaded.ID)
	assert.Equal(t, susp.WorkflowID, loaded.WorkflowID)
	assert.Equal(t, susp.NodeID, loaded.NodeID)
	assert.Equal(t, susp.State, loaded.State)
	assert.Equal(t, susp.SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, "high", loaded.Metadata["priority"])
}

func TestSqliteStore_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSuspension("susp-1", "wf-1", 0)))
	updated := sampleSuspension("susp-1", "wf-1", 0)
	updated.Reason = "escalated"
	require.NoError(t, s.Save(ctx, updated))

	loaded, err := s.Load(ctx, "susp-1")
	require.NoError(t, err)
	assert.Equal(t, "escalated", loaded.Reason)

	listed, err := s.List(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestSqliteStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSqliteStore_NilMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	susp := sampleSuspension("susp-1", "wf-1", 0)
	susp.Metadata = nil
	require.NoError(t, s.Save(ctx, susp))

	loaded, err := s.Load(ctx, "susp-1")
	require.NoError(t, err)
	assert.Nil(t, loaded.Metadata)
}

func TestSqliteStore_ListOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSuspension("susp-new", "wf-1", time.Minute)))
	require.NoError(t, s.Save(ctx, sampleSuspension("susp-old", "wf-1", time.Hour)))
	require.NoError(t, s.Save(ctx, sampleSuspension("susp-other", "wf-2", 0)))

	listed, err := s.List(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "susp-old", listed[0].ID)
	assert.Equal(t, "susp-new", listed[1].ID)
}

func TestSqliteStore_DeleteAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSuspension("susp-1", "wf-1", 0)))
	require.NoError(t, s.Save(ctx, sampleSuspension("susp-2", "wf-1", 0)))
	require.NoError(t, s.Save(ctx, sampleSuspension("susp-3", "wf-2", 0)))

	require.NoError(t, s.Delete(ctx, "susp-1"))
	_, err := s.Load(ctx, "susp-1")
	assert.Error(t, err)
	assert.NoError(t, s.Delete(ctx, "susp-1"), "deleting a missing ID is not an error")

	require.NoError(t, s.Clear(ctx, "wf-1"))
	listed, err := s.List(ctx, "wf-1")
	require.NoError(t, err)
	assert.Empty(t, listed)

	kept, err := s.List(ctx, "wf-2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestSqliteStore_CustomTableName(t *testing.T) {
	s, err := NewSqliteSuspensionStore(SqliteOptions{
		Path:      filepath.Join(t.TempDir(), "custom.db"),
		TableName: "parked_workflows",
	})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSuspension("susp-1", "wf-1", 0)))
	loaded, err := s.Load(ctx, "susp-1")
	require.NoError(t, err)
	assert.Equal(t, "susp-1", loaded.ID)
}

func TestSqliteStore_PersistsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	first, err := NewSqliteSuspensionStore(SqliteOptions{Path: path})
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, sampleSuspension("susp-1", "wf-1", 0)))
	require.NoError(t, first.Close())

	second, err := NewSqliteSuspensionStore(SqliteOptions{Path: path})
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.Load(ctx, "susp-1")
	require.NoError(t, err)
	assert.Equal(t, "susp-1", loaded.ID)
}
