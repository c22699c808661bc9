package service

import "github.com/noah-isme/school-timetable-api/internal/models"

// blockedSlotKey identifies a (teacher, day, period) unavailability triple.
type blockedSlotKey struct {
	TeacherID string
	DayOfWeek int
	PeriodID  string
}

// constraintIndex holds the lookup structures the scheduler and validator
// share: qualification sets, blocked availability triples and room
// suitability sets. It is built once per run from collaborator snapshots and
// never mutated afterwards.
type constraintIndex struct {
	qualifiedSubjectsByTeacher map[string]map[string]struct{}
	teachersBySubject          map[string][]string
	blockedSlots               map[blockedSlotKey]struct{}
	suitableSubjectsByRoom     map[string]map[string]struct{}
}

// buildConstraintIndex assembles the index. teachers must be the active
// roster in its original order; teachersBySubject preserves that order so the
// greedy placement loop scans candidates deterministically for a fixed input.
func buildConstraintIndex(
	teachers []models.Teacher,
	qualifications []models.TeacherQualification,
	unavailability []models.TeacherAvailability,
	suitability []models.RoomSuitability,
) *constraintIndex {
	idx := &constraintIndex{
		qualifiedSubjectsByTeacher: make(map[string]map[string]struct{}, len(teachers)),
		teachersBySubject:          make(map[string][]string),
		blockedSlots:               make(map[blockedSlotKey]struct{}, len(unavailability)),
		suitableSubjectsByRoom:     make(map[string]map[string]struct{}),
	}

	active := make(map[string]struct{}, len(teachers))
	for _, t := range teachers {
		active[t.ID] = struct{}{}
	}

	for _, q := range qualifications {
		if _, ok := active[q.TeacherID]; !ok {
			continue
		}
		if idx.qualifiedSubjectsByTeacher[q.TeacherID] == nil {
			idx.qualifiedSubjectsByTeacher[q.TeacherID] = make(map[string]struct{})
		}
		idx.qualifiedSubjectsByTeacher[q.TeacherID][q.SubjectID] = struct{}{}
	}

	// Roster order, not qualification-row order, drives candidate scanning.
	for _, t := range teachers {
		for subjectID := range idx.qualifiedSubjectsByTeacher[t.ID] {
			idx.teachersBySubject[subjectID] = append(idx.teachersBySubject[subjectID], t.ID)
		}
	}
	for subjectID, list := range idx.teachersBySubject {
		idx.teachersBySubject[subjectID] = orderByRoster(list, teachers)
	}

	for _, u := range unavailability {
		idx.blockedSlots[blockedSlotKey{TeacherID: u.TeacherID, DayOfWeek: u.DayOfWeek, PeriodID: u.PeriodID}] = struct{}{}
	}

	for _, s := range suitability {
		if idx.suitableSubjectsByRoom[s.RoomID] == nil {
			idx.suitableSubjectsByRoom[s.RoomID] = make(map[string]struct{})
		}
		idx.suitableSubjectsByRoom[s.RoomID][s.SubjectID] = struct{}{}
	}

	return idx
}

func orderByRoster(teacherIDs []string, roster []models.Teacher) []string {
	member := make(map[string]struct{}, len(teacherIDs))
	for _, id := range teacherIDs {
		member[id] = struct{}{}
	}
	ordered := make([]string, 0, len(teacherIDs))
	for _, t := range roster {
		if _, ok := member[t.ID]; ok {
			ordered = append(ordered, t.ID)
		}
	}
	return ordered
}

// isQualified reports whether the teacher may teach the subject.
func (idx *constraintIndex) isQualified(teacherID, subjectID string) bool {
	subjects, ok := idx.qualifiedSubjectsByTeacher[teacherID]
	if !ok {
		return false
	}
	_, ok = subjects[subjectID]
	return ok
}

// isBlocked reports whether the teacher is marked unavailable for the
// (day, period) pair. Absence of an entry means available.
func (idx *constraintIndex) isBlocked(teacherID string, dayOfWeek int, periodID string) bool {
	_, ok := idx.blockedSlots[blockedSlotKey{TeacherID: teacherID, DayOfWeek: dayOfWeek, PeriodID: periodID}]
	return ok
}

// roomSuitable reports whether the room accepts the subject. A room without
// suitability rows accepts everything.
func (idx *constraintIndex) roomSuitable(roomID, subjectID string) bool {
	subjects, ok := idx.suitableSubjectsByRoom[roomID]
	if !ok || len(subjects) == 0 {
		return true
	}
	_, ok = subjects[subjectID]
	return ok
}

// qualifiedTeachers returns the roster-ordered teacher ids for a subject.
func (idx *constraintIndex) qualifiedTeachers(subjectID string) []string {
	return idx.teachersBySubject[subjectID]
}
