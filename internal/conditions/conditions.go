// Package conditions counts saved records against rulebook conditions.
package conditions

import (
	"lessonvisit/pkg/schema"
)

// Predicate selects the records that take part in a count.
type Predicate func(rec schema.AttendanceRecord) bool

// KeyFunc reports whether a record satisfies a rule.
type KeyFunc func(rule schema.SchoolYearCondition, rec schema.AttendanceRecord) (bool, error)

// All accepts every record.
func All(schema.AttendanceRecord) bool { return true }

// SubjectFilter accepts records of subject that have the subject's examiner.
func SubjectFilter(subject schema.SubjectKey) Predicate {
	role := schema.SubjectExaminer(subject)
	return func(rec schema.AttendanceRecord) bool {
		return rec.Subject == subject && rec.HasExaminer(role)
	}
}

// GubFilter accepts graduation-relevant records.
func GubFilter(rec schema.AttendanceRecord) bool {
	return rec.IsGub()
}

// HasSchoolYear accepts records whose school year parses.
func HasSchoolYear(rec schema.AttendanceRecord) bool {
	_, ok := rec.SchoolYear.Int()
	return ok
}

// And combines predicates; a record must pass all of them.
func And(preds ...Predicate) Predicate {
	return func(rec schema.AttendanceRecord) bool {
		for _, p := range preds {
			if !p(rec) {
				return false
			}
		}
		return true
	}
}

// ByRange matches records whose school year lies in the rule's range.
func ByRange(rule schema.SchoolYearCondition, rec schema.AttendanceRecord) (bool, error) {
	return schema.IsWithinRange(rec.SchoolYear, &rule.SchoolYearRange)
}

// ByTopic matches records with the rule's topic and a school year in its range.
func ByTopic(rule schema.SchoolYearCondition, rec schema.AttendanceRecord) (bool, error) {
	if rule.LessonTopic == "" || rule.LessonTopic != rec.LessonTopic {
		return false, nil
	}
	return ByRange(rule, rec)
}

// Matches applies every constraint a rule carries: range, and topic or
// examiner role when set. A record without a school year only matches
// universal ranges.
func Matches(rule schema.SchoolYearCondition, rec schema.AttendanceRecord) (bool, error) {
	if rule.LessonTopic != "" && rule.LessonTopic != rec.LessonTopic {
		return false, nil
	}
	if rule.ExaminantRole != "" && !rec.HasExaminer(rule.ExaminantRole) {
		return false, nil
	}
	if rule.SchoolYearRange.IsUniversal() {
		return true, nil
	}
	if rec.SchoolYear == "" {
		return false, nil
	}
	return ByRange(rule, rec)
}

// Filter returns the records accepted by include.
func Filter(records []schema.AttendanceRecord, include Predicate) []schema.AttendanceRecord {
	out := make([]schema.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if include(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Without returns records minus the one with the given id.
func Without(records []schema.AttendanceRecord, id string) []schema.AttendanceRecord {
	out := make([]schema.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if id != "" && rec.ID == id {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Splice returns records with any prior version of current replaced by current.
func Splice(records []schema.AttendanceRecord, current schema.AttendanceRecord) []schema.AttendanceRecord {
	return append(Without(records, current.ID), current)
}

// WithCount copies rules and counts, for each one, the records accepted by
// include that match it. A record may count towards several rules.
func WithCount(rules []schema.SchoolYearCondition, records []schema.AttendanceRecord, include Predicate) ([]schema.CountedCondition, error) {
	counted := make([]schema.CountedCondition, len(rules))
	for i, rule := range rules {
		counted[i] = schema.CountedCondition{SchoolYearCondition: rule.Clone()}
	}

	for _, rec := range records {
		if !include(rec) {
			continue
		}
		for i := range counted {
			ok, err := Matches(counted[i].SchoolYearCondition, rec)
			if err != nil {
				return nil, err
			}
			if ok {
				counted[i].AttendanceCount++
			}
		}
	}
	return counted, nil
}

// Unsatisfied returns the rules whose minimum is not yet reached by the
// records accepted by include, with minimums reduced by the matches found.
// Rules without a positive minimum are never unsatisfied.
func Unsatisfied(rules []schema.SchoolYearCondition, records []schema.AttendanceRecord, include Predicate, key KeyFunc) ([]schema.SchoolYearCondition, error) {
	remaining := make([]schema.SchoolYearCondition, 0, len(rules))
	for _, rule := range rules {
		if rule.Min() > 0 {
			remaining = append(remaining, rule.Clone())
		}
	}

	for _, rec := range records {
		if !include(rec) {
			continue
		}
		var matched []int
		for i, rule := range remaining {
			ok, err := key(rule, rec)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, i)
			}
		}
		// Descending so removals keep the lower indices valid.
		for j := len(matched) - 1; j >= 0; j-- {
			i := matched[j]
			left := remaining[i].Min() - 1
			if left <= 0 {
				remaining = append(remaining[:i], remaining[i+1:]...)
				continue
			}
			remaining[i].MinAttendances = schema.Limit(left)
		}
	}
	return remaining, nil
}

// UnsatisfiedTopics is Unsatisfied keyed by lesson topic.
func UnsatisfiedTopics(rules []schema.SchoolYearCondition, records []schema.AttendanceRecord, include Predicate) ([]schema.SchoolYearCondition, error) {
	return Unsatisfied(rules, records, include, ByTopic)
}
