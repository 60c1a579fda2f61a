package core

import (
	"lessonvisit/internal/validation"
	"lessonvisit/pkg/schema"
)

// Session is the in-memory state of one record being edited. Saved is the
// set of committed records the draft is checked against.
type Session struct {
	Draft     schema.AttendanceRecord
	Saved     []schema.AttendanceRecord
	Committed bool

	factory *validation.Factory
}

// NewSession creates a session editing draft against saved.
func NewSession(factory *validation.Factory, draft schema.AttendanceRecord, saved []schema.AttendanceRecord) *Session {
	return &Session{
		Draft:   draft.Clone(),
		Saved:   cloneRecords(saved),
		factory: factory,
	}
}

// IsNew reports whether the draft has never been committed.
func (s *Session) IsNew() bool {
	return s.Draft.ID == ""
}

// Set checks value for field and applies it to the draft. A value the
// validator objects to is refused with a *ValidationError carrying the
// validator's message; the draft is left unchanged.
func (s *Session) Set(field validation.Field, value any) error {
	msg, err := s.Check(field, value)
	if err != nil {
		return err
	}
	if msg != "" {
		return &ValidationError{Field: string(field), Message: msg}
	}
	next, err := validation.Apply(field, s.Draft, value)
	if err != nil {
		return err
	}
	s.Draft = next
	return nil
}

// Check returns the validator's message for value without applying it.
func (s *Session) Check(field validation.Field, value any) (string, error) {
	v, err := s.factory.WithSaved(s.Saved).For(field, s.Draft)
	if err != nil {
		return "", err
	}
	return v.Validate(value)
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	return &Session{
		Draft:     s.Draft.Clone(),
		Saved:     cloneRecords(s.Saved),
		Committed: s.Committed,
		factory:   s.factory,
	}
}

func cloneRecords(records []schema.AttendanceRecord) []schema.AttendanceRecord {
	out := make([]schema.AttendanceRecord, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
