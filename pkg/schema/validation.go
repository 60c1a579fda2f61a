package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// ValidateRecord checks that a record is complete enough to be saved.
func ValidateRecord(r *AttendanceRecord) error {
	if err := structValidator.Struct(r); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	if !r.SchoolYear.IsValid() {
		return fmt.Errorf("school year must be %d-%d, got %q", SchoolYearFirst, SchoolYearLast, r.SchoolYear)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if r.LessonTopic != "" && r.Subject != SubjectMusic {
		return fmt.Errorf("lesson topic is only used for %s", SubjectMusic)
	}

	seen := make(map[ExaminerRole]bool, len(r.Examiners))
	for _, e := range r.Examiners {
		if !e.Role.IsKnown() {
			return fmt.Errorf("unknown examiner role: %s", e.Role)
		}
		if seen[e.Role] {
			return fmt.Errorf("examiner role %s assigned twice", e.Role)
		}
		seen[e.Role] = true
	}
	return nil
}

// ValidateCondition checks the internal consistency of a rule.
func ValidateCondition(c *SchoolYearCondition) error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid condition: %w", err)
	}
	if max, ok := c.Max(); ok && c.Min() > max {
		return fmt.Errorf("%s: min %d exceeds max %d", c.Describe(), c.Min(), max)
	}
	for _, b := range []SchoolYear{c.SchoolYearRange.Min, c.SchoolYearRange.Max} {
		if b != "" && !b.IsValid() {
			return fmt.Errorf("%s: bound %q is not a school year", c.Describe(), b)
		}
	}
	lo, minOK := c.SchoolYearRange.Min.Int()
	hi, maxOK := c.SchoolYearRange.Max.Int()
	if minOK && maxOK && lo > hi {
		return fmt.Errorf("range min %d exceeds max %d", lo, hi)
	}
	return nil
}

// ValidateRulebook checks a rulebook before it is used by validators.
func ValidateRulebook(rb *Rulebook) error {
	if err := structValidator.Struct(rb); err != nil {
		return fmt.Errorf("invalid rulebook: %w", err)
	}
	if rb.Gub.Total < 0 {
		return fmt.Errorf("gub total must not be negative")
	}

	check := func(where string, conds []SchoolYearCondition) error {
		for i := range conds {
			if err := ValidateCondition(&conds[i]); err != nil {
				return fmt.Errorf("%s[%d]: %w", where, i, err)
			}
		}
		return nil
	}

	if err := check("gub.ranges", rb.Gub.Ranges); err != nil {
		return err
	}
	for subject, conds := range rb.Gub.Subjects {
		if !isKnownSubject(subject) {
			return fmt.Errorf("gub.subjects: unknown subject %s", subject)
		}
		if err := check(fmt.Sprintf("gub.subjects.%s", subject), conds); err != nil {
			return err
		}
	}

	for subject, sr := range rb.Subjects {
		if !isKnownSubject(subject) {
			return fmt.Errorf("unknown subject: %s", subject)
		}
		for _, v := range sr.Variants {
			if err := check(fmt.Sprintf("%s.variants.%s", subject, v.Name), v.Conditions); err != nil {
				return err
			}
		}
		if err := check(fmt.Sprintf("%s.school_years", subject), sr.SchoolYears); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("%s.topics", subject), sr.Topics); err != nil {
			return err
		}
		for i, t := range sr.Topics {
			if t.LessonTopic == "" {
				return fmt.Errorf("%s.topics[%d]: topic is required", subject, i)
			}
		}
	}

	if history, ok := rb.Subjects[SubjectHistory]; ok && len(history.Variants) == 0 {
		return fmt.Errorf("%s needs at least one variant", SubjectHistory)
	}
	return nil
}

func isKnownSubject(s SubjectKey) bool {
	for _, k := range KnownSubjects {
		if k == s {
			return true
		}
	}
	return false
}
