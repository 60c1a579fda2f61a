package schema

// SubjectKey identifies a teaching subject.
type SubjectKey string

const (
	SubjectHistory SubjectKey = "history"
	SubjectMusic   SubjectKey = "music"
)

// KnownSubjects lists every subject the rulebook may configure.
var KnownSubjects = []SubjectKey{SubjectHistory, SubjectMusic}

// ExaminerRole identifies who attends a lesson visit. Subject examiners use
// the subject key as their role.
type ExaminerRole string

const (
	RoleHistory    ExaminerRole = "history"    // Subject examiner for history
	RoleMusic      ExaminerRole = "music"      // Subject examiner for music
	RolePedagogy   ExaminerRole = "pedagogy"   // Pedagogy examiner
	RoleHeadmaster ExaminerRole = "headmaster" // School head
)

// KnownRoles lists every accepted examiner role.
var KnownRoles = []ExaminerRole{RoleHistory, RoleMusic, RolePedagogy, RoleHeadmaster}

// SubjectExaminer returns the examiner role belonging to a subject.
func SubjectExaminer(subject SubjectKey) ExaminerRole {
	return ExaminerRole(subject)
}

// IsSubjectExaminer reports whether role is the examiner of some subject.
func (r ExaminerRole) IsSubjectExaminer() bool {
	for _, s := range KnownSubjects {
		if ExaminerRole(s) == r {
			return true
		}
	}
	return false
}

// IsKnown reports whether role is one of KnownRoles.
func (r ExaminerRole) IsKnown() bool {
	for _, k := range KnownRoles {
		if k == r {
			return true
		}
	}
	return false
}

// ClassroomMode describes how the visited lesson is held.
type ClassroomMode string

const (
	ClassroomInPerson ClassroomMode = "in_person"
	ClassroomOnline   ClassroomMode = "online"
	ClassroomHybrid   ClassroomMode = "hybrid"
)

// LessonTopic is a subject-specific topic key. Only music uses topics.
type LessonTopic string

// School year bounds.
const (
	SchoolYearFirst = 5
	SchoolYearLast  = 13
	NotesMax        = 2000
)
