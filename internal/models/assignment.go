package models

import "time"

// TeachingAssignment is a teacher's claim on one (education level,
// grade/year level, section) triple. Triples are compared by value, so the
// duplicate check must run before insert; two stored rows with identical
// fields would be indistinguishable.
type TeachingAssignment struct {
	ID             string    `db:"id" json:"id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	EducationLevel string    `db:"education_level" json:"education_level"`
	GradeYearLevel string    `db:"grade_year_level" json:"grade_year_level"`
	Section        string    `db:"section" json:"section"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Scope projects the assignment onto its roster scope triple.
func (a TeachingAssignment) Scope() RosterScope {
	return RosterScope{
		EducationLevel: a.EducationLevel,
		GradeYearLevel: a.GradeYearLevel,
		Section:        a.Section,
	}
}
