package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"lessonvisit/internal/validation"
	"lessonvisit/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, store *memStore, lock Locker, input string) (*CLISession, string, error) {
	t.Helper()
	editor := newTestEditor(t, store)
	session, err := editor.New(context.Background(), schema.SubjectHistory)
	require.NoError(t, err)

	var out bytes.Buffer
	cli := NewCLISession(editor, session, lock, strings.NewReader(input), &out)
	cli.Location = time.UTC
	err = cli.Run(context.Background())
	return cli, out.String(), err
}

func TestCLISession_SaveNewRecord(t *testing.T) {
	store := &memStore{}
	lock := &fakeLock{}
	input := strings.Join([]string{
		"examiners history, pedagogy",
		"year 7",
		"date 2026-03-05",
		"show",
		"save",
		"year 8",
	}, "\n")

	cli, out, err := runCLI(t, store, lock, input)
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, schema.SchoolYear("7"), rec.SchoolYear)
	assert.True(t, rec.Date.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []schema.ExaminerRole{schema.RoleHistory, schema.RolePedagogy}, rec.Roles())
	assert.True(t, cli.Session.Committed)

	assert.Contains(t, out, "examiners:   history, pedagogy")
	assert.Contains(t, out, "Saved "+rec.ID+".")
	assert.Equal(t, 1, lock.acquired)
	assert.Equal(t, 1, lock.released)
}

func TestCLISession_RefusedValuesAreReported(t *testing.T) {
	store := &memStore{records: []schema.AttendanceRecord{savedHistory("a", "5", visitDay)}}
	input := strings.Join([]string{
		"examiners history",
		"year 6",
		"year six",
		"date 05.03.2026",
		"date 2026-03-05",
		"topic singing",
		"frobnicate",
		"quit",
	}, "\n")

	cli, out, err := runCLI(t, store, nil, input)
	require.NoError(t, err)

	assert.Contains(t, out, "used up")
	assert.Contains(t, out, `"six" is not a school year`)
	assert.Contains(t, out, `"05.03.2026" is not a date (YYYY-MM-DD)`)
	assert.Contains(t, out, "On 2026-03-05 the history examiner is already booked for another visit.")
	assert.Contains(t, out, "lesson_topic cannot be set for history visits.")
	assert.Contains(t, out, `Unknown command "frobnicate"`)
	assert.Contains(t, out, "Changes discarded.")

	assert.Empty(t, cli.Session.Draft.SchoolYear)
	assert.True(t, cli.Session.Draft.Date.IsZero())
	assert.Len(t, store.records, 1)
}

func TestCLISession_SaveRejectedKeepsSessionOpen(t *testing.T) {
	store := &memStore{}
	input := strings.Join([]string{
		"examiners history",
		"save",
		"year 9",
		"date 2026-03-06",
		"save",
	}, "\n")

	_, out, err := runCLI(t, store, nil, input)
	require.NoError(t, err)

	assert.Contains(t, out, "Not saved: school year must be 5-13")
	require.Len(t, store.records, 1)
	assert.Equal(t, schema.SchoolYear("9"), store.records[0].SchoolYear)
}

func TestCLISession_LockHeld(t *testing.T) {
	lock := &fakeLock{acquireErr: errHeld}

	_, out, err := runCLI(t, &memStore{}, lock, "year 7\nsave\n")

	var lockErr *LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Equal(t, "acquire", lockErr.Operation)
	assert.ErrorIs(t, err, errHeld)
	assert.Empty(t, out)
	assert.Equal(t, 0, lock.released)
}

func TestCLISession_EndOfInput(t *testing.T) {
	store := &memStore{}
	lock := &fakeLock{}

	_, _, err := runCLI(t, store, lock, "examiners history\nyear 7")
	require.NoError(t, err)
	assert.Empty(t, store.records, "nothing is saved without save")
	assert.Equal(t, 1, lock.released)
}

func TestFormatRecord(t *testing.T) {
	rec := schema.AttendanceRecord{Subject: schema.SubjectMusic, SchoolYear: "8"}
	out := FormatRecord(rec)

	assert.Contains(t, out, "id:          (new)")
	assert.Contains(t, out, "school year: 8")
	assert.Contains(t, out, "topic:       -")
	assert.Contains(t, out, "date:        -")
	assert.Contains(t, out, "examiners:   -")
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name      string
		arg       string
		wantField validation.Field
		wantValue any
		wantErr   string
	}{
		{"year", "7", validation.FieldSchoolYear, 7, ""},
		{"school_year", "12", validation.FieldSchoolYear, 12, ""},
		{"year", "seven", "", nil, `"seven" is not a school year`},
		{"topic", "singing", validation.FieldLessonTopic, schema.LessonTopic("singing"), ""},
		{"date", "2026-03-05", validation.FieldDate, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), ""},
		{"examinants", "music, pedagogy,", validation.FieldExaminants, []schema.ExaminerRole{schema.RoleMusic, schema.RolePedagogy}, ""},
		{"notes", "hello", "", nil, `unknown field "notes"`},
		{"date", "", "", nil, "date needs a value"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.arg, func(t *testing.T) {
			field, value, err := ParseField(tt.name, tt.arg, time.UTC)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}
