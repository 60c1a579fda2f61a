package schema

import "fmt"

// SchoolYearCondition is one quota rule of a rulebook. Absent limits are nil.
type SchoolYearCondition struct {
	MinAttendances  *int            `json:"min,omitempty" yaml:"min,omitempty" validate:"omitempty,gte=0"`
	MaxAttendances  *int            `json:"max,omitempty" yaml:"max,omitempty" validate:"omitempty,gte=0"`
	SchoolYearRange SchoolYearRange `json:"range" yaml:"range"`
	LessonTopic     LessonTopic     `json:"topic,omitempty" yaml:"topic,omitempty"`
	ExaminantRole   ExaminerRole    `json:"role,omitempty" yaml:"role,omitempty"`
	// NonDistinct marks a band that shares its capacity with overlapping bands.
	NonDistinct bool `json:"non_distinct,omitempty" yaml:"non_distinct,omitempty"`
}

// Limit returns a pointer to n, for building conditions in code.
func Limit(n int) *int {
	return &n
}

// Min returns the minimum attendance count, zero when absent.
func (c SchoolYearCondition) Min() int {
	if c.MinAttendances == nil {
		return 0
	}
	return *c.MinAttendances
}

// Max returns the maximum attendance count and whether one is set.
func (c SchoolYearCondition) Max() (int, bool) {
	if c.MaxAttendances == nil {
		return 0, false
	}
	return *c.MaxAttendances, true
}

// Clone returns a copy that shares no memory with c.
func (c SchoolYearCondition) Clone() SchoolYearCondition {
	out := c
	if c.MinAttendances != nil {
		out.MinAttendances = Limit(*c.MinAttendances)
	}
	if c.MaxAttendances != nil {
		out.MaxAttendances = Limit(*c.MaxAttendances)
	}
	return out
}

// WithMin returns a copy with the minimum replaced.
func (c SchoolYearCondition) WithMin(n int) SchoolYearCondition {
	out := c.Clone()
	out.MinAttendances = Limit(n)
	return out
}

// Describe renders the condition for user-facing messages.
func (c SchoolYearCondition) Describe() string {
	desc := c.SchoolYearRange.String()
	if c.LessonTopic != "" {
		desc = fmt.Sprintf("topic %q in %s", c.LessonTopic, desc)
	}
	return desc
}

// CloneConditions deep-copies a rule list.
func CloneConditions(conds []SchoolYearCondition) []SchoolYearCondition {
	if conds == nil {
		return nil
	}
	out := make([]SchoolYearCondition, len(conds))
	for i, c := range conds {
		out[i] = c.Clone()
	}
	return out
}

// Destructure expands every condition requiring n > 0 attendances into n
// unit conditions requiring one each. Other conditions pass through.
func Destructure(conds []SchoolYearCondition) []SchoolYearCondition {
	out := make([]SchoolYearCondition, 0, len(conds))
	for _, c := range conds {
		n := c.Min()
		if n <= 0 {
			out = append(out, c.Clone())
			continue
		}
		for i := 0; i < n; i++ {
			out = append(out, c.WithMin(1))
		}
	}
	return out
}

// CountedCondition is a condition together with the number of records that
// match it. It is only produced by counting functions.
type CountedCondition struct {
	SchoolYearCondition
	AttendanceCount int
}

// AtCapacity reports whether one more match would exceed the maximum.
func (c CountedCondition) AtCapacity() bool {
	max, ok := c.Max()
	return ok && c.AttendanceCount >= max
}

// Exceeded reports whether the count is already above the maximum.
func (c CountedCondition) Exceeded() bool {
	max, ok := c.Max()
	return ok && c.AttendanceCount > max
}
