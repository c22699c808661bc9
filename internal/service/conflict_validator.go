package service

import (
	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

// resourceSlotKey identifies one resource occupying one time slot.
type resourceSlotKey struct {
	ResourceID string
	TimeSlotID string
}

// lessonCandidate is the tuple checked before a lesson is placed or moved.
type lessonCandidate struct {
	SchoolID       string
	TermID         string
	SubjectID      string
	TeacherID      string
	ClassSectionID string
	RoomID         string
	Slot           models.TimeSlot
}

// conflictValidator answers whether placing a candidate tuple is legal. It is
// shared by manual lesson writes and the generator so both paths apply the
// same rules in the same order.
type conflictValidator struct {
	index         *constraintIndex
	byTeacherSlot map[resourceSlotKey]string
	byClassSlot   map[resourceSlotKey]string
	byRoomSlot    map[resourceSlotKey]string
}

// newConflictValidator indexes the active lessons of one (school, term).
// Cancelled lessons never occupy a slot.
func newConflictValidator(index *constraintIndex, activeLessons []models.Lesson) *conflictValidator {
	v := &conflictValidator{
		index:         index,
		byTeacherSlot: make(map[resourceSlotKey]string, len(activeLessons)),
		byClassSlot:   make(map[resourceSlotKey]string, len(activeLessons)),
		byRoomSlot:    make(map[resourceSlotKey]string, len(activeLessons)),
	}
	for _, l := range activeLessons {
		if !l.Active() {
			continue
		}
		v.byTeacherSlot[resourceSlotKey{l.TeacherID, l.TimeSlotID}] = l.ID
		v.byClassSlot[resourceSlotKey{l.ClassSectionID, l.TimeSlotID}] = l.ID
		v.byRoomSlot[resourceSlotKey{l.RoomID, l.TimeSlotID}] = l.ID
	}
	return v
}

// Validate runs the checks in fixed order, first failure wins:
// teacher conflict, class conflict, room conflict, qualification, room
// suitability, teacher availability. excludeLessonID lets updates ignore the
// row being moved.
func (v *conflictValidator) Validate(c lessonCandidate, excludeLessonID string) error {
	if id, ok := v.byTeacherSlot[resourceSlotKey{c.TeacherID, c.Slot.ID}]; ok && id != excludeLessonID {
		return appErrors.ErrScheduleConflictTeacher
	}
	if id, ok := v.byClassSlot[resourceSlotKey{c.ClassSectionID, c.Slot.ID}]; ok && id != excludeLessonID {
		return appErrors.ErrScheduleConflictClass
	}
	if id, ok := v.byRoomSlot[resourceSlotKey{c.RoomID, c.Slot.ID}]; ok && id != excludeLessonID {
		return appErrors.ErrScheduleConflictRoom
	}
	if !v.index.isQualified(c.TeacherID, c.SubjectID) {
		return appErrors.ErrTeacherNotQualified
	}
	if !v.index.roomSuitable(c.RoomID, c.SubjectID) {
		return appErrors.ErrRoomNotSuitable
	}
	if v.index.isBlocked(c.TeacherID, c.Slot.DayOfWeek, c.Slot.PeriodID) {
		return appErrors.ErrTeacherNotAvailable
	}
	return nil
}

// occupy registers an accepted candidate so later checks against the same
// validator see its slots as taken. Bulk creation uses this to make sibling
// items conflict with each other, not only with stored lessons.
func (v *conflictValidator) occupy(c lessonCandidate, lessonID string) {
	v.byTeacherSlot[resourceSlotKey{c.TeacherID, c.Slot.ID}] = lessonID
	v.byClassSlot[resourceSlotKey{c.ClassSectionID, c.Slot.ID}] = lessonID
	v.byRoomSlot[resourceSlotKey{c.RoomID, c.Slot.ID}] = lessonID
}
