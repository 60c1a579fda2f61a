package validation

import (
	"fmt"

	"lessonvisit/pkg/schema"
)

// ExaminantValidator checks the set of examiner roles of a visit. Changing
// examiners changes which quotas a visit counts towards, so the other field
// validators are re-run against the hypothetical record.
type ExaminantValidator struct {
	base
}

// NewExaminantValidator binds an examiner validator to record.
func NewExaminantValidator(ctx Context, record schema.AttendanceRecord) *ExaminantValidator {
	return &ExaminantValidator{base: newBase(ctx, record)}
}

// ShouldValidate reports whether the record has a subject and roles are given.
func (e *ExaminantValidator) ShouldValidate(roles []schema.ExaminerRole) bool {
	return e.record.Subject != "" && len(roles) > 0
}

// ValidNonContextConditions rejects unknown and repeated roles, and subject
// examiners of another subject.
func (e *ExaminantValidator) ValidNonContextConditions(_ []schema.SchoolYearCondition, roles []schema.ExaminerRole) (string, error) {
	seen := make(map[schema.ExaminerRole]bool, len(roles))
	own := schema.SubjectExaminer(e.record.Subject)
	for _, role := range roles {
		if !role.IsKnown() {
			return fmt.Sprintf("Unknown examiner role %q.", role), nil
		}
		if seen[role] {
			return fmt.Sprintf("The %s examiner is listed twice.", role), nil
		}
		seen[role] = true
		if role.IsSubjectExaminer() && role != own {
			return fmt.Sprintf("The %s examiner cannot attend a %s visit.", role, e.record.Subject), nil
		}
	}
	return "", nil
}

// ValidContextConditions checks the record as it would be with roles: the
// graduation-relevant caps first, then the topic for music or the school
// year otherwise, then examiner availability on the record's date.
func (e *ExaminantValidator) ValidContextConditions(_ []schema.SchoolYearCondition, roles []schema.ExaminerRole) (string, error) {
	candidate := e.record.WithExaminers(roles)
	return firstMessage(
		func() (string, error) {
			return NewGubValidator(e.ctx, e.record).Validate(candidate)
		},
		func() (string, error) {
			if candidate.Subject == schema.SubjectMusic {
				return NewTopicValidator(e.ctx, candidate).Validate(candidate.LessonTopic)
			}
			return schoolYearValidator(e.ctx, candidate).Validate(candidate.SchoolYear)
		},
		func() (string, error) {
			return NewDateValidator(e.ctx, candidate).Validate(candidate.Date)
		},
	)
}

// ValidFuture never objects.
func (e *ExaminantValidator) ValidFuture([]schema.ExaminerRole) (string, error) {
	return "", nil
}

// Validate runs the stages in order.
func (e *ExaminantValidator) Validate(roles []schema.ExaminerRole) (string, error) {
	if !e.ShouldValidate(roles) {
		return "", nil
	}
	return firstMessage(
		func() (string, error) { return e.ValidNonContextConditions(nil, roles) },
		func() (string, error) { return e.ValidContextConditions(nil, roles) },
		func() (string, error) { return e.ValidFuture(roles) },
	)
}
