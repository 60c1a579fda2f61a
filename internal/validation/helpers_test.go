package validation

import (
	"testing"

	"lessonvisit/pkg/schema"

	"github.com/stretchr/testify/require"
)

// cond builds a range condition; negative limits are left unset.
func cond(lo, hi, min, max int) schema.SchoolYearCondition {
	c := schema.SchoolYearCondition{SchoolYearRange: *schema.Span(lo, hi)}
	if min >= 0 {
		c.MinAttendances = schema.Limit(min)
	}
	if max >= 0 {
		c.MaxAttendances = schema.Limit(max)
	}
	return c
}

func topicCond(topic schema.LessonTopic, lo, hi, min int) schema.SchoolYearCondition {
	c := cond(lo, hi, min, -1)
	c.LessonTopic = topic
	return c
}

func visit(id string, subject schema.SubjectKey, year schema.SchoolYear, roles ...schema.ExaminerRole) schema.AttendanceRecord {
	rec := schema.AttendanceRecord{ID: id, Subject: subject, SchoolYear: year}
	return rec.WithExaminers(roles)
}

func historyVisit(id string, year schema.SchoolYear) schema.AttendanceRecord {
	return visit(id, schema.SubjectHistory, year, schema.RoleHistory)
}

func musicVisit(id string, year schema.SchoolYear, topic schema.LessonTopic) schema.AttendanceRecord {
	return visit(id, schema.SubjectMusic, year, schema.RoleMusic).WithLessonTopic(topic)
}

func historyRulebook(variants ...schema.Variant) *schema.Rulebook {
	return &schema.Rulebook{
		Subjects: map[schema.SubjectKey]schema.SubjectRules{
			schema.SubjectHistory: {Variants: variants},
		},
	}
}

func musicRulebook(years, topics []schema.SchoolYearCondition) *schema.Rulebook {
	return &schema.Rulebook{
		Subjects: map[schema.SubjectKey]schema.SubjectRules{
			schema.SubjectMusic: {SchoolYears: years, Topics: topics},
		},
	}
}

func variant(name string, conds ...schema.SchoolYearCondition) schema.Variant {
	return schema.Variant{Name: name, Conditions: conds}
}

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) {
	l.messages = append(l.messages, msg)
}

func requireArgumentError(t *testing.T, err error) {
	t.Helper()
	var argErr *schema.ArgumentError
	require.ErrorAs(t, err, &argErr)
}
