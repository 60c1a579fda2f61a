package validation

import (
	"fmt"

	"lessonvisit/internal/conditions"
	"lessonvisit/pkg/schema"
)

// schoolYearQuota holds the school-year checks shared by the subject
// validators. Only records of the subject that have the subject's examiner
// count towards its quotas.
type schoolYearQuota struct {
	base
	subject schema.SubjectKey
}

func (q schoolYearQuota) include() conditions.Predicate {
	return conditions.SubjectFilter(q.subject)
}

// ShouldValidate reports whether year is set and the bound record is a visit
// of the subject's own examiner.
func (q schoolYearQuota) ShouldValidate(year schema.SchoolYear) bool {
	return year != "" &&
		q.record.Subject == q.subject &&
		q.record.HasExaminer(schema.SubjectExaminer(q.subject))
}

// nonContext rejects year when a quota containing it is already used up by
// the other saved records, or when no quota admits it at all.
func (q schoolYearQuota) nonContext(op string, rules []schema.SchoolYearCondition, year schema.SchoolYear) (string, error) {
	if err := requireRules(op, rules); err != nil {
		return "", err
	}
	if !year.IsValid() {
		return fmt.Sprintf("School year %s is not between %d and %d.", year, schema.SchoolYearFirst, schema.SchoolYearLast), nil
	}

	counted, err := conditions.WithCount(rules, q.savedWithout(), q.include())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	covered := false
	for _, c := range counted {
		in, err := schema.IsWithinRange(year, &c.SchoolYearRange)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !in {
			continue
		}
		covered = true
		if c.AtCapacity() {
			max, _ := c.Max()
			return fmt.Sprintf("The quota for %s is used up (%d of %d visits).", c.Describe(), c.AttendanceCount, max), nil
		}
	}
	if !covered {
		return fmt.Sprintf("No %s quota admits a visit in school year %s.", q.subject, year), nil
	}
	return "", nil
}

// context rejects year when counting the bound record with it would push any
// quota over its maximum.
func (q schoolYearQuota) context(op string, rules []schema.SchoolYearCondition, year schema.SchoolYear) (string, error) {
	if err := requireRules(op, rules); err != nil {
		return "", err
	}
	candidate := q.record.WithSchoolYear(year)
	counted, err := conditions.WithCount(rules, q.savedWith(candidate), q.include())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	for _, c := range counted {
		if c.Exceeded() {
			max, _ := c.Max()
			return fmt.Sprintf("School year %s would exceed the quota for %s (%d of %d visits).", year, c.Describe(), c.AttendanceCount, max), nil
		}
	}
	return "", nil
}

// placeUnits is a greedy forward check: after counting the bound record with
// year, every outstanding unit of minimum must still fit into some school
// year of its range without overfilling a quota. Tighter ranges go first.
func (q schoolYearQuota) placeUnits(op string, rules []schema.SchoolYearCondition, year schema.SchoolYear) (string, error) {
	if err := requireRules(op, rules); err != nil {
		return "", err
	}
	candidate := q.record.WithSchoolYear(year)
	records := q.savedWith(candidate)

	unmet, err := conditions.Unsatisfied(rules, records, q.include(), conditions.ByRange)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	counted, err := conditions.WithCount(rules, records, q.include())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for _, unit := range schema.SortByRangeSize(schema.Destructure(unmet)) {
		placed := false
		for n := schema.SchoolYearFirst; n <= schema.SchoolYearLast && !placed; n++ {
			y := schema.SchoolYearFromInt(n)
			if in, _ := schema.IsWithinRange(y, &unit.SchoolYearRange); !in {
				continue
			}
			if !hasRoom(counted, y) {
				continue
			}
			consume(counted, y)
			placed = true
		}
		if !placed {
			return fmt.Sprintf("With a visit in school year %s the minimum for %s can no longer be reached.", year, unit.Describe()), nil
		}
	}
	return "", nil
}

// hasRoom reports whether every quota containing y can take one more visit.
func hasRoom(counted []schema.CountedCondition, y schema.SchoolYear) bool {
	for _, c := range counted {
		if in, _ := schema.IsWithinRange(y, &c.SchoolYearRange); in && c.AtCapacity() {
			return false
		}
	}
	return true
}

func consume(counted []schema.CountedCondition, y schema.SchoolYear) {
	for i := range counted {
		if in, _ := schema.IsWithinRange(y, &counted[i].SchoolYearRange); in {
			counted[i].AttendanceCount++
		}
	}
}
