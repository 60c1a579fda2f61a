// Package validation decides whether a proposed field value keeps every
// rulebook quota of a lesson visit satisfiable.
//
// Every validator answers with a message: "" means the value is acceptable,
// anything else is shown to the user as the reason it is not. The error
// return is reserved for misuse, such as a nil rule list or a field that does
// not exist for the record's subject.
package validation

import (
	"fmt"
	"time"

	"lessonvisit/internal/conditions"
	"lessonvisit/pkg/schema"
)

// Field names an editable record field.
type Field string

const (
	FieldSchoolYear  Field = "school_year"
	FieldLessonTopic Field = "lesson_topic"
	FieldDate        Field = "date"
	FieldExaminants  Field = "examinants"
)

// Fields lists the validated fields in editing order.
var Fields = []Field{FieldSchoolYear, FieldLessonTopic, FieldDate, FieldExaminants}

// Logger is the subset of the application logger validators use.
type Logger interface {
	Debug(msg string, fields ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Context carries the inputs shared by all validators of one editing step.
type Context struct {
	Rulebook *schema.Rulebook
	// Saved holds committed records only.
	Saved  []schema.AttendanceRecord
	Logger Logger
}

func (c Context) logger() Logger {
	if c.Logger == nil {
		return nopLogger{}
	}
	return c.Logger
}

// Validator checks one field of one record.
type Validator interface {
	Field() Field
	Validate(value any) (string, error)
}

// base binds a validator to the record being edited.
type base struct {
	ctx    Context
	record schema.AttendanceRecord
}

func newBase(ctx Context, record schema.AttendanceRecord) base {
	return base{ctx: ctx, record: record.Clone()}
}

// savedWithout returns the saved records minus the prior save of the record
// being edited.
func (b base) savedWithout() []schema.AttendanceRecord {
	return conditions.Without(b.ctx.Saved, b.record.ID)
}

// savedWith returns the saved records with rec in place of the prior save.
func (b base) savedWith(rec schema.AttendanceRecord) []schema.AttendanceRecord {
	return conditions.Splice(b.ctx.Saved, rec)
}

// Record returns a copy of the record the validator is bound to.
func (b base) Record() schema.AttendanceRecord {
	return b.record.Clone()
}

type stage func() (string, error)

// firstMessage runs stages in order and stops at the first objection.
func firstMessage(stages ...stage) (string, error) {
	for _, s := range stages {
		msg, err := s()
		if err != nil || msg != "" {
			return msg, err
		}
	}
	return "", nil
}

func requireRules(op string, rules []schema.SchoolYearCondition) error {
	if rules == nil {
		return schema.NewArgumentError(op, "rules", "no rules configured")
	}
	return nil
}

// bound adapts a typed validator to the Validator interface.
type bound[V any] struct {
	field    Field
	ctx      Context
	convert  func(any) (V, bool)
	validate func(V) (string, error)
}

func (b bound[V]) Field() Field { return b.field }

func (b bound[V]) Validate(value any) (string, error) {
	v, ok := b.convert(value)
	if !ok {
		return "", schema.NewArgumentError("validate "+string(b.field), "value", fmt.Sprintf("unexpected type %T", value))
	}
	msg, err := b.validate(v)
	if err != nil {
		return "", err
	}
	if msg != "" {
		b.ctx.logger().Debug("value rejected", "field", string(b.field), "value", value, "reason", msg)
	}
	return msg, nil
}

func asSchoolYear(value any) (schema.SchoolYear, bool) {
	switch v := value.(type) {
	case schema.SchoolYear:
		return v, true
	case string:
		return schema.SchoolYear(v), true
	case int:
		return schema.SchoolYearFromInt(v), true
	}
	return "", false
}

func asTopic(value any) (schema.LessonTopic, bool) {
	switch v := value.(type) {
	case schema.LessonTopic:
		return v, true
	case string:
		return schema.LessonTopic(v), true
	}
	return "", false
}

func asDate(value any) (time.Time, bool) {
	v, ok := value.(time.Time)
	return v, ok
}

func asRoles(value any) ([]schema.ExaminerRole, bool) {
	switch v := value.(type) {
	case []schema.ExaminerRole:
		return v, true
	case []string:
		roles := make([]schema.ExaminerRole, len(v))
		for i, s := range v {
			roles[i] = schema.ExaminerRole(s)
		}
		return roles, true
	}
	return nil, false
}

// Apply returns a copy of rec with field set to value. Values are accepted in
// the same forms Validate accepts.
func Apply(field Field, rec schema.AttendanceRecord, value any) (schema.AttendanceRecord, error) {
	wrongType := schema.NewArgumentError("apply "+string(field), "value", fmt.Sprintf("unexpected type %T", value))
	switch field {
	case FieldSchoolYear:
		if y, ok := asSchoolYear(value); ok {
			return rec.WithSchoolYear(y), nil
		}
		return rec, wrongType
	case FieldLessonTopic:
		if t, ok := asTopic(value); ok {
			return rec.WithLessonTopic(t), nil
		}
		return rec, wrongType
	case FieldDate:
		if d, ok := asDate(value); ok {
			return rec.WithDate(d), nil
		}
		return rec, wrongType
	case FieldExaminants:
		if roles, ok := asRoles(value); ok {
			return rec.WithExaminers(roles), nil
		}
		return rec, wrongType
	}
	return rec, &schema.UnsupportedFieldError{Field: string(field), Subject: rec.Subject}
}

// Value returns the current value of field on rec and whether it is filled.
func Value(field Field, rec schema.AttendanceRecord) (any, bool) {
	switch field {
	case FieldSchoolYear:
		return rec.SchoolYear, rec.SchoolYear != ""
	case FieldLessonTopic:
		return rec.LessonTopic, rec.LessonTopic != ""
	case FieldDate:
		return rec.Date, !rec.Date.IsZero()
	case FieldExaminants:
		return rec.Roles(), len(rec.Examiners) > 0
	}
	return nil, false
}
