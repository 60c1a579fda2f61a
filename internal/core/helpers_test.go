package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"lessonvisit/pkg/schema"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory RecordStore.
type memStore struct {
	records []schema.AttendanceRecord
	saveErr error
}

func (m *memStore) LoadRecords(ctx context.Context) ([]schema.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneRecords(m.records), nil
}

func (m *memStore) SaveRecord(_ context.Context, rec schema.AttendanceRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for i := range m.records {
		if m.records[i].ID == rec.ID {
			m.records[i] = rec.Clone()
			return nil
		}
	}
	m.records = append(m.records, rec.Clone())
	return nil
}

func (m *memStore) DeleteRecord(_ context.Context, id string) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("record %s: %w", id, os.ErrNotExist)
}

// fakeLock records Acquire/Release calls.
type fakeLock struct {
	acquireErr error
	acquired   int
	released   int
}

func (l *fakeLock) Acquire() error {
	if l.acquireErr != nil {
		return l.acquireErr
	}
	l.acquired++
	return nil
}

func (l *fakeLock) Release() error {
	l.released++
	return nil
}

var errHeld = errors.New("records locked by edit")

// testRulebook allows one history visit in years 5-6 and any number in 7-13.
func testRulebook() *schema.Rulebook {
	return &schema.Rulebook{
		Subjects: map[schema.SubjectKey]schema.SubjectRules{
			schema.SubjectHistory: {Variants: []schema.Variant{{
				Name: "Only",
				Conditions: []schema.SchoolYearCondition{
					{SchoolYearRange: *schema.Span(5, 6), MaxAttendances: schema.Limit(1)},
					{SchoolYearRange: *schema.Span(7, 13)},
				},
			}}},
		},
	}
}

var visitDay = time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)

func savedHistory(id string, year schema.SchoolYear, date time.Time) schema.AttendanceRecord {
	rec := schema.AttendanceRecord{ID: id, Subject: schema.SubjectHistory, SchoolYear: year, Date: date}
	return rec.WithExaminers([]schema.ExaminerRole{schema.RoleHistory})
}

func newTestEditor(t *testing.T, store RecordStore) *Editor {
	t.Helper()
	editor, err := NewEditor(store, testRulebook(), nil)
	require.NoError(t, err)
	return editor
}
