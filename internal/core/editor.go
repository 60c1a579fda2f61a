package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"lessonvisit/internal/validation"
	"lessonvisit/pkg/schema"
)

// RecordStore persists committed attendance records.
type RecordStore interface {
	LoadRecords(ctx context.Context) ([]schema.AttendanceRecord, error)
	SaveRecord(ctx context.Context, rec schema.AttendanceRecord) error
	DeleteRecord(ctx context.Context, id string) error
}

// Editor opens, checks and commits edit sessions against a record store.
type Editor struct {
	store   RecordStore
	factory *validation.Factory
	logger  Logger
}

// NewEditor creates an editor over store using the quotas in rules. A nil
// logger discards log output.
func NewEditor(store RecordStore, rules *schema.Rulebook, logger Logger) (*Editor, error) {
	if logger == nil {
		logger = NopLogger()
	}
	logger = logger.With("component", "editor")
	factory, err := validation.NewFactory(validation.Context{Rulebook: rules, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create validator factory: %w", err)
	}
	return &Editor{store: store, factory: factory, logger: logger}, nil
}

// Records returns the committed records.
func (e *Editor) Records(ctx context.Context) ([]schema.AttendanceRecord, error) {
	records, err := e.store.LoadRecords(ctx)
	if err != nil {
		return nil, &StorageError{Operation: "load", Message: "read saved records", Err: err}
	}
	return records, nil
}

// New starts a session for a new visit of subject.
func (e *Editor) New(ctx context.Context, subject schema.SubjectKey) (*Session, error) {
	saved, err := e.Records(ctx)
	if err != nil {
		return nil, err
	}
	return NewSession(e.factory, schema.AttendanceRecord{Subject: subject}, saved), nil
}

// Open starts a session editing the committed record id.
func (e *Editor) Open(ctx context.Context, id string) (*Session, error) {
	saved, err := e.Records(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range saved {
		if rec.ID == id {
			return NewSession(e.factory, rec, saved), nil
		}
	}
	return nil, &StorageError{Operation: "open", Message: "record " + id, Err: os.ErrNotExist}
}

// Check validates value for field of rec against the committed records and
// returns the validator's message.
func (e *Editor) Check(ctx context.Context, rec schema.AttendanceRecord, field validation.Field, value any) (string, error) {
	saved, err := e.Records(ctx)
	if err != nil {
		return "", err
	}
	v, err := e.factory.WithSaved(saved).For(field, rec)
	if err != nil {
		return "", err
	}
	return v.Validate(value)
}

// Commit re-validates every filled field of the session's draft against the
// records committed now, checks the record structure and saves it. New
// records get an ID. The committed record is returned.
func (e *Editor) Commit(ctx context.Context, s *Session) (schema.AttendanceRecord, error) {
	if s.Committed {
		return schema.AttendanceRecord{}, fmt.Errorf("session already committed")
	}

	saved, err := e.Records(ctx)
	if err != nil {
		return schema.AttendanceRecord{}, err
	}

	rec := s.Draft.Clone()
	if rec.ID == "" {
		id, err := schema.NewRecordID()
		if err != nil {
			return schema.AttendanceRecord{}, fmt.Errorf("generate record id: %w", err)
		}
		rec.ID = id
		rec = rec.WithExaminers(rec.Roles())
	}

	if err := schema.ValidateRecord(&rec); err != nil {
		e.logger.Warn("commit rejected", "id", rec.ID, "reason", err.Error())
		return schema.AttendanceRecord{}, &ValidationError{Message: err.Error(), Err: err}
	}

	factory := e.factory.WithSaved(saved)
	for _, field := range validation.Fields {
		value, filled := validation.Value(field, rec)
		if !filled {
			continue
		}
		v, err := factory.For(field, rec)
		if err != nil {
			var unsupported *schema.UnsupportedFieldError
			if errors.As(err, &unsupported) {
				continue
			}
			return schema.AttendanceRecord{}, err
		}
		msg, err := v.Validate(value)
		if err != nil {
			return schema.AttendanceRecord{}, fmt.Errorf("validate %s: %w", field, err)
		}
		if msg != "" {
			e.logger.Warn("commit rejected", "id", rec.ID, "field", string(field), "reason", msg)
			return schema.AttendanceRecord{}, &ValidationError{Field: string(field), Message: msg}
		}
	}

	if err := e.store.SaveRecord(ctx, rec); err != nil {
		return schema.AttendanceRecord{}, &StorageError{Operation: "save", Message: "record " + rec.ID, Err: err}
	}
	e.logger.Info("record committed", "id", rec.ID, "subject", string(rec.Subject), "school_year", string(rec.SchoolYear))

	s.Draft = rec.Clone()
	s.Committed = true
	return rec, nil
}

// Delete removes the committed record id.
func (e *Editor) Delete(ctx context.Context, id string) error {
	if err := e.store.DeleteRecord(ctx, id); err != nil {
		return &StorageError{Operation: "delete", Message: "record " + id, Err: err}
	}
	e.logger.Info("record deleted", "id", id)
	return nil
}
