package repository

import (
	"os"
	"path/filepath"
	"testing"

	"lessonvisit/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotManager_Interval(t *testing.T) {
	sm := NewSnapshotManager(t.TempDir(), 0)
	assert.False(t, sm.ShouldCreateSnapshot(defaultSnapshotInterval-1))
	assert.True(t, sm.ShouldCreateSnapshot(defaultSnapshotInterval))

	sm = NewSnapshotManager(t.TempDir(), 5)
	assert.True(t, sm.ShouldCreateSnapshot(5))
}

func TestSnapshotManager_WriteAndLoadLatest(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "data")
	sm := NewSnapshotManager(baseDir, 1)

	set, err := sm.LoadLatest()
	require.NoError(t, err)
	assert.Nil(t, set, "no snapshot yet")

	tx := NewCopyOnWriteTx(baseDir)
	require.NoError(t, tx.Begin())
	_, err = sm.WriteSnapshot(tx, 9, &schema.RecordSet{LastEventID: "EVT-9", Records: []schema.AttendanceRecord{testRecord("a", "5")}})
	require.NoError(t, err)
	name, err := sm.WriteSnapshot(tx, 10, &schema.RecordSet{LastEventID: "EVT-10"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, "0000000010.yaml", name)

	set, err = sm.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Equal(t, "EVT-10", set.LastEventID, "numeric names sort by sequence")
}

func TestSnapshotManager_IgnoresForeignFiles(t *testing.T) {
	baseDir := t.TempDir()
	dir := filepath.Join(baseDir, snapshotsPath)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	set, err := NewSnapshotManager(baseDir, 1).LoadLatest()
	require.NoError(t, err)
	assert.Nil(t, set)
}
