package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lessonvisit/pkg/schema"
)

// DateValidator prevents booking an examiner twice on the same day.
type DateValidator struct {
	base
}

// NewDateValidator binds a date validator to record.
func NewDateValidator(ctx Context, record schema.AttendanceRecord) *DateValidator {
	return &DateValidator{base: newBase(ctx, record)}
}

// ShouldValidate reports whether a date is set and the record has examiners.
func (d *DateValidator) ShouldValidate(date time.Time) bool {
	return !date.IsZero() && len(d.record.Examiners) > 0
}

// InvalidValues lists, in ascending order, the days on which an examiner of
// the bound record is already booked for another visit of any subject.
func (d *DateValidator) InvalidValues() []time.Time {
	seen := make(map[string]bool)
	var days []time.Time
	for _, rec := range d.savedWithout() {
		if rec.Date.IsZero() || len(d.record.SharedExaminers(rec)) == 0 {
			continue
		}
		day := schema.Day(rec.Date)
		key := day.Format(time.DateOnly)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// ValidNonContextConditions never objects; a date is not limited by quotas.
func (d *DateValidator) ValidNonContextConditions(_ []schema.SchoolYearCondition, _ time.Time) (string, error) {
	return "", nil
}

// ValidContextConditions rejects date when a saved visit on the same calendar
// day shares an examiner with the bound record.
func (d *DateValidator) ValidContextConditions(_ []schema.SchoolYearCondition, date time.Time) (string, error) {
	for _, rec := range d.savedWithout() {
		if rec.Date.IsZero() || !schema.SameDay(date, rec.Date) {
			continue
		}
		shared := d.record.SharedExaminers(rec)
		if len(shared) == 0 {
			continue
		}
		return fmt.Sprintf("On %s the %s examiner is already booked for another visit.", date.Format(time.DateOnly), joinRoles(shared)), nil
	}
	return "", nil
}

// ValidFuture never objects.
func (d *DateValidator) ValidFuture(time.Time) (string, error) {
	return "", nil
}

// Validate runs the stages in order.
func (d *DateValidator) Validate(date time.Time) (string, error) {
	if !d.ShouldValidate(date) {
		return "", nil
	}
	return firstMessage(
		func() (string, error) { return d.ValidNonContextConditions(nil, date) },
		func() (string, error) { return d.ValidContextConditions(nil, date) },
		func() (string, error) { return d.ValidFuture(date) },
	)
}

func joinRoles(roles []schema.ExaminerRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " and ")
}
