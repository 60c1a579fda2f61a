package validation

import (
	"fmt"

	"lessonvisit/internal/conditions"
	"lessonvisit/pkg/schema"
)

// MusicValidator checks the school year of a music visit against the music
// school-year quotas and against the lesson topics that still have to be
// covered.
type MusicValidator struct {
	schoolYearQuota
	years  []schema.SchoolYearCondition
	topics []schema.SchoolYearCondition
}

// NewMusicValidator binds a music school-year validator to record.
func NewMusicValidator(ctx Context, record schema.AttendanceRecord) *MusicValidator {
	rules, _ := ctx.Rulebook.SubjectRulesFor(schema.SubjectMusic)
	return &MusicValidator{
		schoolYearQuota: schoolYearQuota{base: newBase(ctx, record), subject: schema.SubjectMusic},
		years:           rules.SchoolYears,
		topics:          rules.Topics,
	}
}

// ValidNonContextConditions rejects year when one of its quotas is used up.
func (m *MusicValidator) ValidNonContextConditions(rules []schema.SchoolYearCondition, year schema.SchoolYear) (string, error) {
	return m.nonContext("music non-context", rules, year)
}

// ValidContextConditions rejects year when it would overfill a quota, or when
// the record's topic is not taught in that school year.
func (m *MusicValidator) ValidContextConditions(rules []schema.SchoolYearCondition, year schema.SchoolYear) (string, error) {
	msg, err := m.context("music context", rules, year)
	if err != nil || msg != "" {
		return msg, err
	}
	topic := m.record.LessonTopic
	if topic == "" || len(m.topics) == 0 {
		return "", nil
	}
	for _, rule := range m.topics {
		if rule.LessonTopic != topic {
			continue
		}
		in, err := schema.IsWithinRange(year, &rule.SchoolYearRange)
		if err != nil {
			return "", fmt.Errorf("music context: %w", err)
		}
		if in {
			return "", nil
		}
	}
	return fmt.Sprintf("%s is not taught in school year %s.", m.ctx.Rulebook.TopicLabel(topic), year), nil
}

// ValidFuture makes one greedy pass over the topics that still need visits.
// Each outstanding topic visit takes the tightest overlapping school-year
// quota with room left. Shared quotas absorb every topic visit that overlaps
// them and fail as soon as they overflow. The pass does not search for an
// optimal assignment.
func (m *MusicValidator) ValidFuture(year schema.SchoolYear) (string, error) {
	if len(m.topics) == 0 {
		return "", nil
	}
	candidate := m.record.WithSchoolYear(year)
	records := m.savedWith(candidate)

	unmet, err := conditions.UnsatisfiedTopics(m.topics, records, m.include())
	if err != nil {
		return "", fmt.Errorf("music future: %w", err)
	}
	counted, err := conditions.WithCount(m.years, records, m.include())
	if err != nil {
		return "", fmt.Errorf("music future: %w", err)
	}
	quotas := schema.SortCountedByRangeSize(counted)

	for _, unit := range schema.SortByRangeSize(schema.Destructure(unmet)) {
		label := m.ctx.Rulebook.TopicLabel(unit.LessonTopic)
		overlapping, distinct, placed := false, false, false

		for i := range quotas {
			q := &quotas[i]
			if !schema.RangesOverlap(q.SchoolYearRange, unit.SchoolYearRange) {
				continue
			}
			overlapping = true
			if q.NonDistinct {
				q.AttendanceCount++
				if q.Exceeded() {
					max, _ := q.Max()
					return fmt.Sprintf("%s can no longer be covered: the shared quota for %s allows only %d visits.", label, q.SchoolYearRange, max), nil
				}
				continue
			}
			distinct = true
			if placed || q.AtCapacity() {
				continue
			}
			q.AttendanceCount++
			placed = true
		}

		switch {
		case !overlapping:
			return fmt.Sprintf("No school-year quota covers %s in %s.", label, unit.SchoolYearRange), nil
		case distinct && !placed:
			return fmt.Sprintf("%s can no longer be covered: the quotas for %s are used up.", label, unit.SchoolYearRange), nil
		}
	}
	return "", nil
}

// Validate runs the stages in order and, once they pass, checks the caps on
// graduation-relevant visits.
func (m *MusicValidator) Validate(year schema.SchoolYear) (string, error) {
	if !m.ShouldValidate(year) {
		return "", nil
	}
	msg, err := firstMessage(
		func() (string, error) { return m.ValidNonContextConditions(m.years, year) },
		func() (string, error) { return m.ValidContextConditions(m.years, year) },
		func() (string, error) { return m.ValidFuture(year) },
	)
	if err != nil || msg != "" {
		return msg, err
	}
	return NewGubValidator(m.ctx, m.record).Validate(m.record.WithSchoolYear(year))
}
