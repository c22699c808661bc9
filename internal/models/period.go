package models

import "time"

// PeriodSet is a named weekly template of periods for an academic year.
type PeriodSet struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Period is a named interval within a period set. Break periods are never
// schedulable.
type Period struct {
	ID          string `db:"id" json:"id"`
	PeriodSetID string `db:"period_set_id" json:"period_set_id"`
	Name        string `db:"name" json:"name"`
	OrderIndex  int    `db:"order_index" json:"order_index"`
	IsBreak     bool   `db:"is_break" json:"is_break"`
}

// TimeSlot is the atomic unit of scheduling: a (day, period) pair within a
// period set. DayOfWeek follows time.Weekday numbering (0 = Sunday).
type TimeSlot struct {
	ID          string `db:"id" json:"id"`
	PeriodSetID string `db:"period_set_id" json:"period_set_id"`
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	PeriodID    string `db:"period_id" json:"period_id"`
	PeriodOrder int    `db:"period_order" json:"period_order"`
}
