// Package repository persists attendance records as a YAML changelog with
// periodic snapshots inside a data directory.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lessonvisit/pkg/schema"

	"gopkg.in/yaml.v3"
)

// Repository stores records under baseDir. Every write appends changelog
// events inside a copy-on-write transaction.
type Repository struct {
	baseDir         string
	snapshotManager *SnapshotManager
	now             func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithSnapshotInterval snapshots the record set every n events.
func WithSnapshotInterval(n int) Option {
	return func(r *Repository) {
		r.snapshotManager = NewSnapshotManager(r.baseDir, n)
	}
}

// NewRepository creates a repository rooted at baseDir.
func NewRepository(baseDir string, opts ...Option) *Repository {
	r := &Repository{
		baseDir:         baseDir,
		snapshotManager: NewSnapshotManager(baseDir, 0),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BaseDir returns the data directory.
func (r *Repository) BaseDir() string {
	return r.baseDir
}

// LockPath returns the path of the data directory's lock file. It lives
// next to the data directory so transactions do not copy it.
func (r *Repository) LockPath() string {
	return filepath.Clean(r.baseDir) + ".lock"
}

// LoadRecords returns the committed records: the latest snapshot plus the
// events logged after it, or a full replay when there is no snapshot.
func (r *Repository) LoadRecords(ctx context.Context) ([]schema.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	changelog, err := readChangelog(filepath.Join(r.baseDir, changelogPath))
	if err != nil {
		return nil, err
	}

	set, err := r.snapshotManager.LoadLatest()
	if err != nil {
		return nil, fmt.Errorf("load from snapshot: %w", err)
	}
	if set == nil {
		set = &schema.RecordSet{}
	}

	pending, err := entriesAfter(changelog.Events, set.LastEventID)
	if err != nil {
		// The snapshot does not match the log; rebuild from scratch.
		set, pending = &schema.RecordSet{}, changelog.Events
	}

	set, err = replayEntries(set, pending)
	if err != nil {
		return nil, fmt.Errorf("replay events: %w", err)
	}
	if set.Records == nil {
		return []schema.AttendanceRecord{}, nil
	}
	return set.Records, nil
}

// SaveRecord inserts or replaces rec.
func (r *Repository) SaveRecord(ctx context.Context, rec schema.AttendanceRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("save record: missing id")
	}
	id, err := schema.NewEventID()
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}
	return r.appendEvents(ctx, []schema.ChangelogEvent{
		&schema.RecordSaved{EventID_: id, Record: rec.Clone(), Timestamp_: r.now()},
	})
}

// DeleteRecord removes the record with id. Deleting an unknown record fails.
func (r *Repository) DeleteRecord(ctx context.Context, id string) error {
	records, err := r.LoadRecords(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, rec := range records {
		if rec.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("delete record %s: %w", id, os.ErrNotExist)
	}

	eventID, err := schema.NewEventID()
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}
	return r.appendEvents(ctx, []schema.ChangelogEvent{
		&schema.RecordDeleted{EventID_: eventID, RecordID: id, Timestamp_: r.now()},
	})
}

// appendEvents writes events, and a snapshot when one is due, in a single
// transaction.
func (r *Repository) appendEvents(ctx context.Context, events []schema.ChangelogEvent) error {
	return Update(ctx, r.baseDir, func(tx *CopyOnWriteTx) error {
		var changelog changelogFile
		data, err := tx.ReadFile(changelogPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read changelog: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &changelog); err != nil {
				return fmt.Errorf("parse changelog: %w", err)
			}
		}

		for _, event := range events {
			entry, err := toEntry(event)
			if err != nil {
				return err
			}
			// Replay orders by timestamp; never log an event before its predecessor.
			if n := len(changelog.Events); n > 0 && entry.Timestamp.Before(changelog.Events[n-1].Timestamp) {
				entry.Timestamp = changelog.Events[n-1].Timestamp
			}
			changelog.Events = append(changelog.Events, entry)
			changelog.EventsSinceSnapshot++
		}

		if r.snapshotManager.ShouldCreateSnapshot(changelog.EventsSinceSnapshot) {
			set, err := replayEntries(&schema.RecordSet{}, changelog.Events)
			if err != nil {
				return fmt.Errorf("build snapshot: %w", err)
			}
			name, err := r.snapshotManager.WriteSnapshot(tx, len(changelog.Events), set)
			if err != nil {
				return err
			}
			changelog.LastSnapshot = name
			changelog.EventsSinceSnapshot = 0
		}

		data, err = yaml.Marshal(changelog)
		if err != nil {
			return fmt.Errorf("marshal changelog: %w", err)
		}
		return tx.WriteFile(changelogPath, data)
	})
}

func readChangelog(path string) (*changelogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &changelogFile{}, nil
		}
		return nil, fmt.Errorf("read changelog: %w", err)
	}
	var changelog changelogFile
	if err := yaml.Unmarshal(data, &changelog); err != nil {
		return nil, fmt.Errorf("parse changelog: %w", err)
	}
	return &changelog, nil
}
