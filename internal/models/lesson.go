package models

import "time"

// LessonStatus represents the lifecycle state of a lesson.
type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "SCHEDULED"
	LessonStatusCancelled LessonStatus = "CANCELLED"
)

// Lesson is a concrete placement of a class/subject/teacher/room on a time slot.
type Lesson struct {
	ID             string       `db:"id" json:"id"`
	SchoolID       string       `db:"school_id" json:"school_id"`
	AcademicYear   string       `db:"academic_year" json:"academic_year"`
	TermID         string       `db:"term_id" json:"term_id"`
	ClassSectionID string       `db:"class_section_id" json:"class_section_id"`
	SubjectID      string       `db:"subject_id" json:"subject_id"`
	TeacherID      string       `db:"teacher_id" json:"teacher_id"`
	RoomID         string       `db:"room_id" json:"room_id"`
	TimeSlotID     string       `db:"time_slot_id" json:"time_slot_id"`
	Status         LessonStatus `db:"status" json:"status"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// Active reports whether the lesson still occupies its slot.
func (l Lesson) Active() bool {
	return l.Status == LessonStatusScheduled
}

// LessonFilter describes query params for listing lessons.
type LessonFilter struct {
	SchoolID       string
	TermID         string
	ClassSectionID string
	TeacherID      string
	RoomID         string
	TimeSlotID     string
	Status         LessonStatus
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// LessonDetail enriches a lesson with display names for timetable views.
type LessonDetail struct {
	Lesson
	SubjectName      string `db:"subject_name" json:"subject_name"`
	TeacherShortName string `db:"teacher_short_name" json:"teacher_short_name"`
	RoomName         string `db:"room_name" json:"room_name"`
	ClassSectionName string `db:"class_section_name" json:"class_section_name"`
	DayOfWeek        int    `db:"day_of_week" json:"day_of_week"`
	PeriodID         string `db:"period_id" json:"period_id"`
}
