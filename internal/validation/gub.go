package validation

import (
	"fmt"

	"lessonvisit/internal/conditions"
	"lessonvisit/pkg/schema"
)

// GubValidator enforces the caps on graduation-relevant visits. It checks a
// complete hypothetical record rather than a single field.
type GubValidator struct {
	base
}

// NewGubValidator binds a GUB validator to the record being edited.
func NewGubValidator(ctx Context, record schema.AttendanceRecord) *GubValidator {
	return &GubValidator{base: newBase(ctx, record)}
}

// Validate checks candidate, a hypothetical version of the bound record,
// against the total, per-range and per-subject caps. Records that are not
// graduation relevant always pass.
func (g *GubValidator) Validate(candidate schema.AttendanceRecord) (string, error) {
	if !candidate.IsGub() {
		return "", nil
	}
	rules := g.ctx.Rulebook.Gub

	if rules.Total > 0 {
		count := 0
		for _, rec := range g.savedWithout() {
			if !rec.IsGub() {
				continue
			}
			count++
			if count >= rules.Total {
				return fmt.Sprintf("At most %d graduation-relevant visits are allowed and all of them are booked.", rules.Total), nil
			}
		}
	}

	records := g.savedWith(candidate)

	if len(rules.Ranges) > 0 {
		include := conditions.And(conditions.GubFilter, conditions.HasSchoolYear)
		counted, err := conditions.WithCount(schema.Destructure(rules.Ranges), records, include)
		if err != nil {
			return "", fmt.Errorf("count gub ranges: %w", err)
		}
		for _, c := range counted {
			if c.Exceeded() {
				max, _ := c.Max()
				return fmt.Sprintf("At most %d graduation-relevant visits are allowed in %s.", max, c.SchoolYearRange), nil
			}
		}
	}

	if subjectRules := rules.Subjects[candidate.Subject]; len(subjectRules) > 0 {
		include := conditions.And(conditions.GubFilter, sameSubject(candidate.Subject))
		counted, err := conditions.WithCount(schema.Destructure(subjectRules), records, include)
		if err != nil {
			return "", fmt.Errorf("count gub subject %s: %w", candidate.Subject, err)
		}
		for _, c := range counted {
			if c.Exceeded() {
				max, _ := c.Max()
				return fmt.Sprintf("At most %d graduation-relevant %s visits are allowed in %s.", max, candidate.Subject, c.SchoolYearRange), nil
			}
		}
	}

	return "", nil
}

func sameSubject(subject schema.SubjectKey) conditions.Predicate {
	return func(rec schema.AttendanceRecord) bool {
		return rec.Subject == subject
	}
}
