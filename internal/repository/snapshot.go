package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lessonvisit/pkg/schema"

	"gopkg.in/yaml.v3"
)

const (
	defaultSnapshotInterval = 100 // Snapshot every 100 events
	recordsDir              = "records"
	snapshotDir             = "snapshots"
	changelogName           = "changelog.yaml"
)

var (
	changelogPath = filepath.Join(recordsDir, changelogName)
	snapshotsPath = filepath.Join(recordsDir, snapshotDir)
)

// SnapshotManager handles snapshot creation and loading.
type SnapshotManager struct {
	baseDir  string
	interval int
}

// NewSnapshotManager creates a snapshot manager that snapshots every interval
// events. A non-positive interval selects the default.
func NewSnapshotManager(baseDir string, interval int) *SnapshotManager {
	if interval <= 0 {
		interval = defaultSnapshotInterval
	}
	return &SnapshotManager{baseDir: baseDir, interval: interval}
}

// ShouldCreateSnapshot determines if a snapshot is due based on event count.
func (sm *SnapshotManager) ShouldCreateSnapshot(eventsSinceSnapshot int) bool {
	return eventsSinceSnapshot >= sm.interval
}

// snapshotName names the snapshot taken after seq events. Names sort in
// creation order.
func snapshotName(seq int) string {
	return fmt.Sprintf("%010d.yaml", seq)
}

// WriteSnapshot stores set inside tx and returns the snapshot name.
func (sm *SnapshotManager) WriteSnapshot(tx *CopyOnWriteTx, seq int, set *schema.RecordSet) (string, error) {
	data, err := yaml.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	name := snapshotName(seq)
	if err := tx.WriteFile(filepath.Join(snapshotsPath, name), data); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return name, nil
}

// LoadLatest loads the most recent snapshot. It returns nil when there is no
// usable snapshot, signalling a full replay.
func (sm *SnapshotManager) LoadLatest() (*schema.RecordSet, error) {
	name, err := sm.findMostRecentSnapshot()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(sm.baseDir, snapshotsPath, name))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var set schema.RecordSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		// Corrupted snapshot - fall back to full replay
		return nil, nil
	}
	return &set, nil
}

func (sm *SnapshotManager) findMostRecentSnapshot() (string, error) {
	entries, err := os.ReadDir(filepath.Join(sm.baseDir, snapshotsPath))
	if err != nil {
		return "", err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", os.ErrNotExist
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names[0], nil
}
