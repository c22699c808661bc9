package models

import "time"

// Requirement states how many weekly lessons a class section owes a subject.
type Requirement struct {
	ID                    string    `db:"id" json:"id"`
	SchoolID              string    `db:"school_id" json:"school_id"`
	AcademicYear          string    `db:"academic_year" json:"academic_year"`
	ClassSectionID        string    `db:"class_section_id" json:"class_section_id"`
	SubjectID             string    `db:"subject_id" json:"subject_id"`
	WeeklyLessonsRequired int       `db:"weekly_lessons_required" json:"weekly_lessons_required"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}
