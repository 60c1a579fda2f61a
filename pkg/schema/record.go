package schema

import "time"

// AttendanceRecord is a booked lesson visit.
type AttendanceRecord struct {
	ID            string               `json:"id" yaml:"id" validate:"required"`
	Subject       SubjectKey           `json:"subject" yaml:"subject" validate:"required,oneof=history music"`
	SchoolYear    SchoolYear           `json:"school_year" yaml:"school_year"`
	Date          time.Time            `json:"date" yaml:"date"`
	LessonTopic   LessonTopic          `json:"lesson_topic,omitempty" yaml:"lesson_topic,omitempty"`
	Examiners     []ExaminerAssignment `json:"examiners" yaml:"examiners" validate:"dive"`
	ClassroomMode ClassroomMode        `json:"classroom_mode,omitempty" yaml:"classroom_mode,omitempty" validate:"omitempty,oneof=in_person online hybrid"`
	Notes         string               `json:"notes,omitempty" yaml:"notes,omitempty" validate:"max=2000"`
}

// ExaminerAssignment places one examiner role on a record.
type ExaminerAssignment struct {
	Role     ExaminerRole `json:"role" yaml:"role" validate:"required"`
	FullName string       `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	RecordID string       `json:"record_id,omitempty" yaml:"record_id,omitempty"`
}

// Clone returns a deep copy.
func (r AttendanceRecord) Clone() AttendanceRecord {
	out := r
	if r.Examiners != nil {
		out.Examiners = make([]ExaminerAssignment, len(r.Examiners))
		copy(out.Examiners, r.Examiners)
	}
	return out
}

// WithSchoolYear returns a copy with the school year replaced.
func (r AttendanceRecord) WithSchoolYear(y SchoolYear) AttendanceRecord {
	out := r.Clone()
	out.SchoolYear = y
	return out
}

// WithLessonTopic returns a copy with the lesson topic replaced.
func (r AttendanceRecord) WithLessonTopic(t LessonTopic) AttendanceRecord {
	out := r.Clone()
	out.LessonTopic = t
	return out
}

// WithDate returns a copy with the date replaced.
func (r AttendanceRecord) WithDate(d time.Time) AttendanceRecord {
	out := r.Clone()
	out.Date = d
	return out
}

// WithExaminers returns a copy holding exactly the given roles. Names of
// roles already assigned are kept.
func (r AttendanceRecord) WithExaminers(roles []ExaminerRole) AttendanceRecord {
	out := r.Clone()
	names := make(map[ExaminerRole]string, len(r.Examiners))
	for _, e := range r.Examiners {
		names[e.Role] = e.FullName
	}
	out.Examiners = make([]ExaminerAssignment, 0, len(roles))
	for _, role := range roles {
		out.Examiners = append(out.Examiners, ExaminerAssignment{
			Role:     role,
			FullName: names[role],
			RecordID: r.ID,
		})
	}
	return out
}

// Roles lists the assigned examiner roles in assignment order.
func (r AttendanceRecord) Roles() []ExaminerRole {
	roles := make([]ExaminerRole, 0, len(r.Examiners))
	for _, e := range r.Examiners {
		roles = append(roles, e.Role)
	}
	return roles
}

// HasExaminer reports whether role is assigned.
func (r AttendanceRecord) HasExaminer(role ExaminerRole) bool {
	for _, e := range r.Examiners {
		if e.Role == role {
			return true
		}
	}
	return false
}

// SharedExaminers returns the roles assigned on both records.
func (r AttendanceRecord) SharedExaminers(other AttendanceRecord) []ExaminerRole {
	var shared []ExaminerRole
	for _, e := range r.Examiners {
		if other.HasExaminer(e.Role) {
			shared = append(shared, e.Role)
		}
	}
	return shared
}

// IsGub reports whether the record is graduation relevant: the pedagogy
// examiner and the examiner of the record's own subject both attend.
func (r AttendanceRecord) IsGub() bool {
	if r.Subject == "" {
		return false
	}
	return r.HasExaminer(RolePedagogy) && r.HasExaminer(SubjectExaminer(r.Subject))
}

// SameDay reports whether two instants fall on the same calendar day, using
// the location of a.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
