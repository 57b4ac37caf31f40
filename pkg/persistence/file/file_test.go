package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exeflow/exeflow/pkg/models"
	"github.com/exeflow/exeflow/pkg/persistence"
)

func TestStore_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	record := &persistence.ExecutionRecord{
		NodeID:      "node-1",
		NodeType:    "email",
		WorkflowID:  "wf-1",
		ExecutionID: "exec-1",
		Status:      models.StatusCompleted,
		OutputData:  map[string]any{"recipients": float64(2)},
	}

	require.NoError(t, store.SaveExecution(ctx, record))

	loaded, err := store.GetExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestStore_NotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.GetExecution(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestNewStore_AcceptsFileURL(t *testing.T) {
	root := t.TempDir()

	store, err := NewStore("file://" + root)
	require.NoError(t, err)
	assert.Equal(t, root, store.root)

	info, err := os.Stat(filepath.Join(root, "executions"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
