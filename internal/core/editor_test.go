package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lessonvisit/internal/repository"
	"lessonvisit/internal/validation"
	"lessonvisit/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEditor_RequiresRulebook(t *testing.T) {
	_, err := NewEditor(&memStore{}, nil, nil)
	var argErr *schema.ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestEditor_CommitNewRecord(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	editor := newTestEditor(t, store)

	session, err := editor.New(ctx, schema.SubjectHistory)
	require.NoError(t, err)
	require.NoError(t, session.Set(validation.FieldExaminants, []schema.ExaminerRole{schema.RoleHistory, schema.RolePedagogy}))
	require.NoError(t, session.Set(validation.FieldSchoolYear, 7))
	require.NoError(t, session.Set(validation.FieldDate, visitDay))

	rec, err := editor.Commit(ctx, session)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.ID, "VIS-"))
	for _, e := range rec.Examiners {
		assert.Equal(t, rec.ID, e.RecordID)
	}
	assert.True(t, session.Committed)
	assert.Equal(t, rec.ID, session.Draft.ID)

	require.Len(t, store.records, 1)
	assert.Equal(t, rec.ID, store.records[0].ID)

	_, err = editor.Commit(ctx, session)
	assert.Error(t, err, "a session commits once")
}

func TestEditor_CommitRejectsIncompleteRecord(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	editor := newTestEditor(t, store)

	session, err := editor.New(ctx, schema.SubjectHistory)
	require.NoError(t, err)
	require.NoError(t, session.Set(validation.FieldExaminants, []string{"history"}))

	_, err = editor.Commit(ctx, session)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Message, "school year")
	assert.Empty(t, store.records)
	assert.False(t, session.Committed)
}

func TestEditor_CommitRevalidatesAgainstFreshRecords(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	editor := newTestEditor(t, store)

	session, err := editor.New(ctx, schema.SubjectHistory)
	require.NoError(t, err)
	require.NoError(t, session.Set(validation.FieldExaminants, []string{"history"}))
	require.NoError(t, session.Set(validation.FieldSchoolYear, 9))
	require.NoError(t, session.Set(validation.FieldDate, visitDay))

	// Another session books the examiner on the same day first.
	store.records = append(store.records, savedHistory("other", "10", visitDay.Add(3*time.Hour)))

	_, err = editor.Commit(ctx, session)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "date", valErr.Field)
	assert.Equal(t, "On 2026-03-05 the history examiner is already booked for another visit.", valErr.Message)
	assert.Len(t, store.records, 1)
}

func TestEditor_OpenAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := &memStore{records: []schema.AttendanceRecord{savedHistory("VIS-a", "5", visitDay)}}
	editor := newTestEditor(t, store)

	session, err := editor.Open(ctx, "VIS-a")
	require.NoError(t, err)
	assert.False(t, session.IsNew())

	// The record's own save does not count against its quota.
	require.NoError(t, session.Set(validation.FieldSchoolYear, "6"))
	rec, err := editor.Commit(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "VIS-a", rec.ID)
	require.Len(t, store.records, 1)
	assert.Equal(t, schema.SchoolYear("6"), store.records[0].SchoolYear)

	_, err = editor.Open(ctx, "VIS-missing")
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEditor_Check(t *testing.T) {
	ctx := context.Background()
	editor := newTestEditor(t, &memStore{records: []schema.AttendanceRecord{savedHistory("a", "6", visitDay)}})
	draft := savedHistory("", "", visitDay.AddDate(0, 0, 1))

	msg, err := editor.Check(ctx, draft, validation.FieldSchoolYear, "5")
	require.NoError(t, err)
	assert.Contains(t, msg, "used up")

	msg, err = editor.Check(ctx, draft, validation.FieldSchoolYear, "13")
	require.NoError(t, err)
	assert.Empty(t, msg)

	_, err = editor.Check(ctx, draft, validation.Field("notes"), "x")
	var unsupported *schema.UnsupportedFieldError
	assert.ErrorAs(t, err, &unsupported)
}

func TestEditor_StorageFailures(t *testing.T) {
	ctx := context.Background()
	diskFull := errors.New("disk full")
	store := &memStore{saveErr: diskFull}
	editor := newTestEditor(t, store)

	session := NewSession(editor.factory, savedHistory("", "8", visitDay), nil)
	_, err := editor.Commit(ctx, session)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "save", storageErr.Operation)
	assert.ErrorIs(t, err, diskFull)

	err = editor.Delete(ctx, "nope")
	assert.ErrorIs(t, err, os.ErrNotExist)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = editor.Records(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEditor_WithYAMLRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(filepath.Join(t.TempDir(), "data"))
	editor := newTestEditor(t, repo)

	first := NewSession(editor.factory, savedHistory("", "5", visitDay), nil)
	rec, err := editor.Commit(ctx, first)
	require.NoError(t, err)

	second, err := editor.New(ctx, schema.SubjectHistory)
	require.NoError(t, err)
	require.Len(t, second.Saved, 1)
	require.NoError(t, second.Set(validation.FieldExaminants, []string{"history"}))
	err = second.Set(validation.FieldSchoolYear, 6)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	require.NoError(t, editor.Delete(ctx, rec.ID))
	records, err := editor.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
