package repository

import (
	"fmt"
	"sort"
	"time"

	"lessonvisit/pkg/schema"
)

// eventEntry is the on-disk form of a changelog event.
type eventEntry struct {
	EventType string                   `yaml:"event_type"`
	EventID   string                   `yaml:"event_id"`
	Timestamp time.Time                `yaml:"timestamp"`
	Record    *schema.AttendanceRecord `yaml:"record,omitempty"`
	RecordID  string                   `yaml:"record_id,omitempty"`
}

// changelogFile is the document stored at records/changelog.yaml.
type changelogFile struct {
	Events              []eventEntry `yaml:"events"`
	LastSnapshot        string       `yaml:"last_snapshot,omitempty"`
	EventsSinceSnapshot int          `yaml:"events_since_snapshot"`
}

// ReplayEvents applies changelog events to a record set in chronological
// order. Events with equal timestamps keep their log order.
func ReplayEvents(set *schema.RecordSet, events []schema.ChangelogEvent) (*schema.RecordSet, error) {
	if set == nil {
		return nil, fmt.Errorf("record set cannot be nil")
	}

	sorted := make([]schema.ChangelogEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp().Before(sorted[j].Timestamp())
	})

	for _, event := range sorted {
		if err := applyEvent(set, event); err != nil {
			return nil, fmt.Errorf("apply event %s: %w", event.EventID(), err)
		}
		set.LastEventID = event.EventID()
	}
	return set, nil
}

func applyEvent(set *schema.RecordSet, event schema.ChangelogEvent) error {
	switch e := event.(type) {
	case *schema.RecordSaved:
		return applyRecordSaved(set, e)
	case *schema.RecordDeleted:
		return applyRecordDeleted(set, e)
	default:
		return fmt.Errorf("unknown event type: %T", event)
	}
}

func applyRecordSaved(set *schema.RecordSet, event *schema.RecordSaved) error {
	if event.Record.ID == "" {
		return fmt.Errorf("saved record has no id")
	}
	for i := range set.Records {
		if set.Records[i].ID == event.Record.ID {
			set.Records[i] = event.Record.Clone()
			return nil
		}
	}
	set.Records = append(set.Records, event.Record.Clone())
	return nil
}

func applyRecordDeleted(set *schema.RecordSet, event *schema.RecordDeleted) error {
	kept := make([]schema.AttendanceRecord, 0, len(set.Records))
	found := false
	for _, rec := range set.Records {
		if rec.ID == event.RecordID {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return fmt.Errorf("record %s not found", event.RecordID)
	}
	set.Records = kept
	return nil
}

// toEntry converts a typed event to its on-disk form.
func toEntry(event schema.ChangelogEvent) (eventEntry, error) {
	entry := eventEntry{
		EventType: event.EventType(),
		EventID:   event.EventID(),
		Timestamp: event.Timestamp(),
	}
	switch e := event.(type) {
	case *schema.RecordSaved:
		rec := e.Record.Clone()
		entry.Record = &rec
	case *schema.RecordDeleted:
		entry.RecordID = e.RecordID
	default:
		return eventEntry{}, fmt.Errorf("unknown event type: %T", event)
	}
	return entry, nil
}

// toEvent converts an on-disk entry back to a typed event.
func (e eventEntry) toEvent() (schema.ChangelogEvent, error) {
	switch e.EventType {
	case "RecordSaved":
		if e.Record == nil {
			return nil, fmt.Errorf("event %s: missing record", e.EventID)
		}
		return &schema.RecordSaved{EventID_: e.EventID, Record: e.Record.Clone(), Timestamp_: e.Timestamp}, nil
	case "RecordDeleted":
		if e.RecordID == "" {
			return nil, fmt.Errorf("event %s: missing record_id", e.EventID)
		}
		return &schema.RecordDeleted{EventID_: e.EventID, RecordID: e.RecordID, Timestamp_: e.Timestamp}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.EventType)
	}
}

// replayEntries converts on-disk entries to typed events and replays them.
func replayEntries(set *schema.RecordSet, entries []eventEntry) (*schema.RecordSet, error) {
	events := make([]schema.ChangelogEvent, 0, len(entries))
	for _, entry := range entries {
		event, err := entry.toEvent()
		if err != nil {
			return nil, fmt.Errorf("convert event entry: %w", err)
		}
		events = append(events, event)
	}
	return ReplayEvents(set, events)
}

// entriesAfter returns the entries logged after the event with id. An empty
// id returns every entry.
func entriesAfter(entries []eventEntry, id string) ([]eventEntry, error) {
	if id == "" {
		return entries, nil
	}
	for i, entry := range entries {
		if entry.EventID == id {
			return entries[i+1:], nil
		}
	}
	return nil, fmt.Errorf("snapshot event %s not in changelog", id)
}
