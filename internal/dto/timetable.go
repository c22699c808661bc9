package dto

// GenerateTimetableRequest asks the generator to fill unmet weekly
// requirements for one term.
type GenerateTimetableRequest struct {
	SchoolID    string                   `json:"school_id" validate:"required"`
	TermID      string                   `json:"term_id" validate:"required"`
	PeriodSetID string                   `json:"period_set_id" validate:"required"`
	Options     GenerateTimetableOptions `json:"options"`
}

// GenerateTimetableOptions tunes generator behaviour per run. Nil fields fall
// back to the configured scheduler defaults.
type GenerateTimetableOptions struct {
	RespectTeacherAvailability      *bool `json:"respect_teacher_availability"`
	RespectRoomSuitability          *bool `json:"respect_room_suitability"`
	MaxConsecutiveLessonsPerTeacher *int  `json:"max_consecutive_lessons_per_teacher" validate:"omitempty,min=0"`
}

// UnfulfilledRequirement reports a requirement the run could not fully place.
type UnfulfilledRequirement struct {
	ClassSectionID   string `json:"class_section_id"`
	SubjectID        string `json:"subject_id"`
	RequiredLessons  int    `json:"required_lessons"`
	ScheduledLessons int    `json:"scheduled_lessons"`
	Reason           string `json:"reason"`
}

// GenerationReport summarises a generator run. Under-fulfilment is reported
// data, never an error.
type GenerationReport struct {
	TotalLessonsCreated        int                      `json:"total_lessons_created"`
	TotalRequirementsFulfilled int                      `json:"total_requirements_fulfilled"`
	TotalRequirements          int                      `json:"total_requirements"`
	Unfulfilled                []UnfulfilledRequirement `json:"unfulfilled"`
}

// CreateLessonRequest describes payload for creating a lesson by hand.
type CreateLessonRequest struct {
	SchoolID       string `json:"school_id" validate:"required"`
	AcademicYear   string `json:"academic_year" validate:"required"`
	TermID         string `json:"term_id" validate:"required"`
	ClassSectionID string `json:"class_section_id" validate:"required"`
	SubjectID      string `json:"subject_id" validate:"required"`
	TeacherID      string `json:"teacher_id" validate:"required"`
	RoomID         string `json:"room_id" validate:"required"`
	TimeSlotID     string `json:"time_slot_id" validate:"required"`
}

// UpdateLessonRequest moves a scheduled lesson to a new teacher/room/slot.
type UpdateLessonRequest struct {
	SubjectID  string `json:"subject_id" validate:"required"`
	TeacherID  string `json:"teacher_id" validate:"required"`
	RoomID     string `json:"room_id" validate:"required"`
	TimeSlotID string `json:"time_slot_id" validate:"required"`
}

// BulkCreateLessonsRequest holds multiple lesson payloads. Items fail or
// succeed independently.
type BulkCreateLessonsRequest struct {
	Items []CreateLessonRequest `json:"items" validate:"required,min=1,dive"`
}

// BulkLessonError records why one bulk item was rejected.
type BulkLessonError struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkCreateLessonsResult summarises a bulk creation.
type BulkCreateLessonsResult struct {
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Errors  []BulkLessonError `json:"errors"`
}

// ValidateSubstitutionRequest checks a temporary teacher swap for a lesson.
type ValidateSubstitutionRequest struct {
	LessonID            string `json:"lesson_id" validate:"required"`
	SubstituteTeacherID string `json:"substitute_teacher_id" validate:"required"`
}

// ValidateSubstitutionResult reports whether the swap is legal.
type ValidateSubstitutionResult struct {
	Valid  bool   `json:"valid"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}
