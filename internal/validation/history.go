package validation

import (
	"fmt"
	"strings"

	"lessonvisit/pkg/schema"
)

// HistoryValidator checks the school year of a history visit. History quotas
// come in alternative variants; the saved visits together with the new one
// must fit a single variant completely.
type HistoryValidator struct {
	schoolYearQuota
	variants []schema.Variant
}

// NewHistoryValidator binds a history school-year validator to record.
func NewHistoryValidator(ctx Context, record schema.AttendanceRecord) *HistoryValidator {
	rules, _ := ctx.Rulebook.SubjectRulesFor(schema.SubjectHistory)
	return &HistoryValidator{
		schoolYearQuota: schoolYearQuota{base: newBase(ctx, record), subject: schema.SubjectHistory},
		variants:        rules.Variants,
	}
}

// ValidNonContextConditions checks year against the quotas of one variant.
func (h *HistoryValidator) ValidNonContextConditions(rules []schema.SchoolYearCondition, year schema.SchoolYear) (string, error) {
	return h.nonContext("history non-context", rules, year)
}

// ValidContextConditions checks the saved visits plus this one against the
// maximums of one variant.
func (h *HistoryValidator) ValidContextConditions(rules []schema.SchoolYearCondition, year schema.SchoolYear) (string, error) {
	return h.context("history context", rules, year)
}

// ValidFuture reports whether some variant can still reach all of its
// minimums after a visit in year.
func (h *HistoryValidator) ValidFuture(year schema.SchoolYear) (string, error) {
	var reasons []string
	for _, v := range h.variants {
		msg, err := h.placeUnits("history future", v.Conditions, year)
		if err != nil {
			return "", err
		}
		if msg == "" {
			return "", nil
		}
		reasons = append(reasons, v.Name+": "+msg)
	}
	return strings.Join(reasons, "\n"), nil
}

// Validate accepts year when one variant passes every stage on its own. The
// first such variant wins and the resulting record is then checked against
// the graduation-relevant caps.
func (h *HistoryValidator) Validate(year schema.SchoolYear) (string, error) {
	if !h.ShouldValidate(year) {
		return "", nil
	}
	if len(h.variants) == 0 {
		return "", schema.NewArgumentError("history validate", "rules", "no history variants configured")
	}

	reasons := make([]string, 0, len(h.variants))
	for _, v := range h.variants {
		msg, err := h.validateVariant(v, year)
		if err != nil {
			return "", fmt.Errorf("variant %q: %w", v.Name, err)
		}
		if msg == "" {
			candidate := h.record.WithSchoolYear(year).WithLessonTopic("")
			return NewGubValidator(h.ctx, h.record).Validate(candidate)
		}
		reasons = append(reasons, v.Name+": "+msg)
	}
	return strings.Join(reasons, "\n"), nil
}

func (h *HistoryValidator) validateVariant(v schema.Variant, year schema.SchoolYear) (string, error) {
	return firstMessage(
		func() (string, error) { return h.ValidNonContextConditions(v.Conditions, year) },
		func() (string, error) { return h.ValidContextConditions(v.Conditions, year) },
		func() (string, error) { return h.placeUnits("history future", v.Conditions, year) },
	)
}
