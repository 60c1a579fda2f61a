package validation

import (
	"fmt"

	"lessonvisit/internal/conditions"
	"lessonvisit/pkg/schema"
)

// TopicValidator checks the lesson topic of a music visit.
type TopicValidator struct {
	base
	topics []schema.SchoolYearCondition
}

// NewTopicValidator binds a lesson topic validator to record.
func NewTopicValidator(ctx Context, record schema.AttendanceRecord) *TopicValidator {
	rules, _ := ctx.Rulebook.SubjectRulesFor(schema.SubjectMusic)
	return &TopicValidator{base: newBase(ctx, record), topics: rules.Topics}
}

// ShouldValidate reports whether topic is set on a music visit with the
// music examiner.
func (t *TopicValidator) ShouldValidate(topic schema.LessonTopic) bool {
	return topic != "" &&
		t.record.Subject == schema.SubjectMusic &&
		t.record.HasExaminer(schema.RoleMusic)
}

// ValidNonContextConditions rejects unknown topics and topics whose maximum
// is already reached in the record's school year.
func (t *TopicValidator) ValidNonContextConditions(rules []schema.SchoolYearCondition, topic schema.LessonTopic) (string, error) {
	if err := requireRules("topic non-context", rules); err != nil {
		return "", err
	}
	known := false
	for _, rule := range rules {
		if rule.LessonTopic == topic {
			known = true
			break
		}
	}
	if !known {
		return fmt.Sprintf("Unknown lesson topic %q.", topic), nil
	}

	year := t.record.SchoolYear
	if !year.IsValid() {
		return "", nil
	}
	counted, err := conditions.WithCount(rules, t.savedWithout(), conditions.SubjectFilter(schema.SubjectMusic))
	if err != nil {
		return "", fmt.Errorf("topic non-context: %w", err)
	}
	for _, c := range counted {
		if c.LessonTopic != topic {
			continue
		}
		in, err := schema.IsWithinRange(year, &c.SchoolYearRange)
		if err != nil {
			return "", fmt.Errorf("topic non-context: %w", err)
		}
		if in && c.AtCapacity() {
			max, _ := c.Max()
			return fmt.Sprintf("%s already has %d of at most %d visits in %s.", t.ctx.Rulebook.TopicLabel(topic), c.AttendanceCount, max, c.SchoolYearRange), nil
		}
	}
	return "", nil
}

// ValidContextConditions rejects topic when it is not taught in the record's
// school year. Records without a school year pass.
func (t *TopicValidator) ValidContextConditions(rules []schema.SchoolYearCondition, topic schema.LessonTopic) (string, error) {
	if err := requireRules("topic context", rules); err != nil {
		return "", err
	}
	year := t.record.SchoolYear
	if year == "" {
		return "", nil
	}
	for _, rule := range rules {
		if rule.LessonTopic != topic {
			continue
		}
		in, err := schema.IsWithinRange(year, &rule.SchoolYearRange)
		if err != nil {
			return "", fmt.Errorf("topic context: %w", err)
		}
		if in {
			return "", nil
		}
	}
	return fmt.Sprintf("%s is not taught in school year %s.", t.ctx.Rulebook.TopicLabel(topic), year), nil
}

// ValidFuture never objects.
func (t *TopicValidator) ValidFuture(schema.LessonTopic) (string, error) {
	return "", nil
}

// Validate runs the stages in order.
func (t *TopicValidator) Validate(topic schema.LessonTopic) (string, error) {
	if !t.ShouldValidate(topic) {
		return "", nil
	}
	return firstMessage(
		func() (string, error) { return t.ValidNonContextConditions(t.topics, topic) },
		func() (string, error) { return t.ValidContextConditions(t.topics, topic) },
		func() (string, error) { return t.ValidFuture(topic) },
	)
}
