package validation

import (
	"time"

	"lessonvisit/pkg/schema"
)

// SchoolYearValidator is implemented by the subject school-year validators.
type SchoolYearValidator interface {
	Validate(year schema.SchoolYear) (string, error)
}

// schoolYearValidator picks the school-year validator of the record's
// subject. Subjects other than music use the history rules.
func schoolYearValidator(ctx Context, record schema.AttendanceRecord) SchoolYearValidator {
	if record.Subject == schema.SubjectMusic {
		return NewMusicValidator(ctx, record)
	}
	return NewHistoryValidator(ctx, record)
}

// Factory builds field validators over one rulebook and one set of saved
// records.
type Factory struct {
	ctx Context
}

// NewFactory returns a factory for ctx. ctx.Rulebook must be set.
func NewFactory(ctx Context) (*Factory, error) {
	if ctx.Rulebook == nil {
		return nil, schema.NewArgumentError("new validator factory", "rulebook", "is nil")
	}
	return &Factory{ctx: ctx}, nil
}

// Context returns the inputs the factory binds validators to.
func (f *Factory) Context() Context {
	return f.ctx
}

// WithSaved returns a factory over a different set of saved records.
func (f *Factory) WithSaved(saved []schema.AttendanceRecord) *Factory {
	ctx := f.ctx
	ctx.Saved = saved
	return &Factory{ctx: ctx}
}

// For returns the validator of field for record. Lesson topics exist only
// for music, and a subject must be configured in the rulebook to have a
// school-year validator.
func (f *Factory) For(field Field, record schema.AttendanceRecord) (Validator, error) {
	unsupported := &schema.UnsupportedFieldError{Field: string(field), Subject: record.Subject}
	_, configured := f.ctx.Rulebook.SubjectRulesFor(record.Subject)

	switch field {
	case FieldSchoolYear:
		switch {
		case !configured:
			return nil, unsupported
		case record.Subject == schema.SubjectHistory:
			return bound[schema.SchoolYear]{field: field, ctx: f.ctx, convert: asSchoolYear, validate: NewHistoryValidator(f.ctx, record).Validate}, nil
		case record.Subject == schema.SubjectMusic:
			return bound[schema.SchoolYear]{field: field, ctx: f.ctx, convert: asSchoolYear, validate: NewMusicValidator(f.ctx, record).Validate}, nil
		}
	case FieldLessonTopic:
		if configured && record.Subject == schema.SubjectMusic {
			return bound[schema.LessonTopic]{field: field, ctx: f.ctx, convert: asTopic, validate: NewTopicValidator(f.ctx, record).Validate}, nil
		}
	case FieldDate:
		return bound[time.Time]{field: field, ctx: f.ctx, convert: asDate, validate: NewDateValidator(f.ctx, record).Validate}, nil
	case FieldExaminants:
		if configured {
			return bound[[]schema.ExaminerRole]{field: field, ctx: f.ctx, convert: asRoles, validate: NewExaminantValidator(f.ctx, record).Validate}, nil
		}
	}
	return nil, unsupported
}
