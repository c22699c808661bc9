package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	ShortName string    `db:"short_name" json:"short_name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherQualification links a teacher to a subject they may teach.
type TeacherQualification struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// TeacherAvailability marks a (day, period) pair a teacher cannot teach.
// Only exceptions are stored; absence of a row means the teacher is free.
type TeacherAvailability struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	PeriodID  string `db:"period_id" json:"period_id"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	SchoolID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
