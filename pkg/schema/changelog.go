package schema

import "time"

// ChangelogEvent is the interface for all record changelog events.
type ChangelogEvent interface {
	EventType() string
	EventID() string
	Timestamp() time.Time
}

// RecordSaved represents a record insert or update.
type RecordSaved struct {
	EventID_   string           `json:"event_id" yaml:"event_id"`
	Record     AttendanceRecord `json:"record" yaml:"record"`
	Timestamp_ time.Time        `json:"timestamp" yaml:"timestamp"`
}

func (e *RecordSaved) EventType() string    { return "RecordSaved" }
func (e *RecordSaved) EventID() string      { return e.EventID_ }
func (e *RecordSaved) Timestamp() time.Time { return e.Timestamp_ }

// RecordDeleted represents a record removal.
type RecordDeleted struct {
	EventID_   string    `json:"event_id" yaml:"event_id"`
	RecordID   string    `json:"record_id" yaml:"record_id"`
	Timestamp_ time.Time `json:"timestamp" yaml:"timestamp"`
}

func (e *RecordDeleted) EventType() string    { return "RecordDeleted" }
func (e *RecordDeleted) EventID() string      { return e.EventID_ }
func (e *RecordDeleted) Timestamp() time.Time { return e.Timestamp_ }

// RecordSet is the materialized state persisted in snapshots. LastEventID
// names the last changelog event already applied to it.
type RecordSet struct {
	LastEventID string             `json:"last_event_id,omitempty" yaml:"last_event_id,omitempty"`
	Records     []AttendanceRecord `json:"records" yaml:"records"`
}
