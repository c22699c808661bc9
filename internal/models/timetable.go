package models

// TimetableCell is a compact lesson summary inside a projected grid.
type TimetableCell struct {
	LessonID     string `json:"lesson_id"`
	Subject      string `json:"subject"`
	Teacher      string `json:"teacher"`
	Room         string `json:"room"`
	ClassSection string `json:"class_section,omitempty"`
}

// TimetableGrid is a day-by-period projection of active lessons for one
// class, teacher or room. Days are indexed 0-6 (time.Weekday); a day without
// any placed lesson keeps a nil inner map, which serialises to JSON null and
// distinguishes "no lessons that day" from "day present but cell empty".
type TimetableGrid struct {
	TermID string                   `json:"term_id"`
	Scope  string                   `json:"scope"`
	Days   [7]map[string]TimetableCell `json:"days"`
}
