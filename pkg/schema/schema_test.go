package schema

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestIDGeneration(t *testing.T) {
	recID, err := NewRecordID()
	if err != nil {
		t.Fatalf("Failed to generate record ID: %v", err)
	}
	if !strings.HasPrefix(recID, "VIS-") {
		t.Errorf("Record ID should start with VIS-, got %s", recID)
	}
	if len(strings.TrimPrefix(recID, "VIS-")) != 10 {
		t.Errorf("Nanoid portion should be 10 characters")
	}

	evtID, err := NewEventID()
	if err != nil {
		t.Fatalf("Failed to generate event ID: %v", err)
	}
	if !strings.HasPrefix(evtID, "EVT-") {
		t.Errorf("Event ID should start with EVT-, got %s", evtID)
	}
}

func TestIDCollisionResistance(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id, err := NewRecordID()
		if err != nil {
			t.Fatalf("Failed to generate ID: %v", err)
		}
		if ids[id] {
			t.Fatalf("Collision detected after %d iterations: %s", i, id)
		}
		ids[id] = true
	}
}

func TestAttendanceRecordMarshaling(t *testing.T) {
	rec := AttendanceRecord{
		ID:          "VIS-abc",
		Subject:     SubjectMusic,
		SchoolYear:  "7",
		Date:        time.Date(2026, 3, 5, 9, 45, 0, 0, time.UTC),
		LessonTopic: "singing",
		Examiners: []ExaminerAssignment{
			{Role: RoleMusic, FullName: "A. Weber", RecordID: "VIS-abc"},
			{Role: RolePedagogy, RecordID: "VIS-abc"},
		},
		ClassroomMode: ClassroomInPerson,
	}

	jsonData, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Failed to marshal record to JSON: %v", err)
	}
	if !strings.Contains(string(jsonData), `"school_year":"7"`) {
		t.Errorf("JSON should contain the school year, got %s", jsonData)
	}

	yamlData, err := yaml.Marshal(rec)
	if err != nil {
		t.Fatalf("Failed to marshal record to YAML: %v", err)
	}
	var back AttendanceRecord
	if err := yaml.Unmarshal(yamlData, &back); err != nil {
		t.Fatalf("Failed to unmarshal record from YAML: %v", err)
	}
	if back.LessonTopic != rec.LessonTopic || len(back.Examiners) != 2 {
		t.Errorf("YAML round trip lost data: %+v", back)
	}
}

func TestConditionYAMLShape(t *testing.T) {
	src := `
min: 1
max: 2
range: {min: "5", max: "6"}
non_distinct: true
`
	var c SchoolYearCondition
	if err := yaml.Unmarshal([]byte(src), &c); err != nil {
		t.Fatalf("Failed to unmarshal condition: %v", err)
	}
	if c.Min() != 1 {
		t.Errorf("min = %d, want 1", c.Min())
	}
	if max, ok := c.Max(); !ok || max != 2 {
		t.Errorf("max = %d/%v, want 2/true", max, ok)
	}
	if c.SchoolYearRange.Min != "5" || c.SchoolYearRange.Max != "6" {
		t.Errorf("range = %+v", c.SchoolYearRange)
	}
	if !c.NonDistinct {
		t.Error("non_distinct should be decoded")
	}
}

func TestChangelogEventInterface(t *testing.T) {
	now := time.Now()
	events := []ChangelogEvent{
		&RecordSaved{EventID_: "EVT-1", Record: AttendanceRecord{ID: "VIS-1"}, Timestamp_: now},
		&RecordDeleted{EventID_: "EVT-2", RecordID: "VIS-1", Timestamp_: now},
	}
	for _, e := range events {
		if e.EventID() == "" {
			t.Error("EventID() should return non-empty string")
		}
		if e.EventType() == "" {
			t.Error("EventType() should return non-empty string")
		}
		if e.Timestamp().IsZero() {
			t.Error("Timestamp() should return non-zero time")
		}
	}
}
