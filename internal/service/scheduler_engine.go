package service

import (
	"math/rand"
	"sort"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	"github.com/noah-isme/school-timetable-api/internal/models"
)

const reasonNoQualifiedTeacher = "No qualified teacher for subject"
const reasonNoCombination = "No available teacher/room/slot combination"

// schedulerOptions mirrors the per-run generator options. A zero
// MaxConsecutiveLessonsPerTeacher means no limit.
type schedulerOptions struct {
	RespectTeacherAvailability      bool
	RespectRoomSuitability          bool
	MaxConsecutiveLessonsPerTeacher int
}

// slotOrdering decides the order in which candidate slots are scanned.
// Production shuffles to spread placements across the week; tests pin the
// catalog order to make runs reproducible.
type slotOrdering func([]models.TimeSlot) []models.TimeSlot

// shuffleOrdering returns an ordering backed by the given RNG.
func shuffleOrdering(rng *rand.Rand) slotOrdering {
	return func(slots []models.TimeSlot) []models.TimeSlot {
		shuffled := make([]models.TimeSlot, len(slots))
		copy(shuffled, slots)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled
	}
}

// catalogOrdering keeps the slot catalog order (day, then period).
func catalogOrdering() slotOrdering {
	return func(slots []models.TimeSlot) []models.TimeSlot {
		return slots
	}
}

// placement is one concrete lesson the engine decided to create.
type placement struct {
	Requirement models.Requirement
	TeacherID   string
	RoomID      string
	Slot        models.TimeSlot
}

// schedulerInput bundles the snapshots one run works on.
type schedulerInput struct {
	Requirements []models.Requirement
	Index        *constraintIndex
	Rooms        []models.Room
	Slots        []models.TimeSlot
	Existing     []models.Lesson
	Options      schedulerOptions
	Ordering     slotOrdering
}

// scheduleResult is the in-memory outcome before anything is persisted.
type scheduleResult struct {
	Placements                 []placement
	Unfulfilled                []dto.UnfulfilledRequirement
	TotalRequirements          int
	TotalRequirementsFulfilled int
}

// schedulerState owns the used-slot bookkeeping of a single run. All maps are
// local to the run; two invocations never share state.
type schedulerState struct {
	index     *constraintIndex
	opts      schedulerOptions
	rooms     []models.Room
	slots     []models.TimeSlot
	slotsByID map[string]models.TimeSlot

	teacherUsed map[resourceSlotKey]struct{}
	classUsed   map[resourceSlotKey]struct{}
	roomUsed    map[resourceSlotKey]struct{}

	// teacher -> day -> set of occupied period order indexes, for the
	// consecutive-lessons limit.
	teacherDayPeriods map[string]map[int]map[int]struct{}

	// (class, subject) -> already scheduled count, seeded from existing
	// lessons so re-runs only fill gaps.
	scheduledCount map[classSubjectKey]int
}

type classSubjectKey struct {
	ClassSectionID string
	SubjectID      string
}

func newSchedulerState(in schedulerInput) *schedulerState {
	ordered := in.Ordering(in.Slots)
	s := &schedulerState{
		index:             in.Index,
		opts:              in.Options,
		rooms:             in.Rooms,
		slots:             ordered,
		slotsByID:         make(map[string]models.TimeSlot, len(in.Slots)),
		teacherUsed:       make(map[resourceSlotKey]struct{}),
		classUsed:         make(map[resourceSlotKey]struct{}),
		roomUsed:          make(map[resourceSlotKey]struct{}),
		teacherDayPeriods: make(map[string]map[int]map[int]struct{}),
		scheduledCount:    make(map[classSubjectKey]int),
	}
	for _, slot := range in.Slots {
		s.slotsByID[slot.ID] = slot
	}
	for _, lesson := range in.Existing {
		if !lesson.Active() {
			continue
		}
		s.teacherUsed[resourceSlotKey{lesson.TeacherID, lesson.TimeSlotID}] = struct{}{}
		s.classUsed[resourceSlotKey{lesson.ClassSectionID, lesson.TimeSlotID}] = struct{}{}
		s.roomUsed[resourceSlotKey{lesson.RoomID, lesson.TimeSlotID}] = struct{}{}
		s.scheduledCount[classSubjectKey{lesson.ClassSectionID, lesson.SubjectID}]++
		if slot, ok := s.slotsByID[lesson.TimeSlotID]; ok {
			s.markTeacherPeriod(lesson.TeacherID, slot)
		}
	}
	return s
}

// runScheduler executes one greedy first-fit pass: most constrained
// requirements first, then per instance the first (slot, teacher, room)
// triple surviving every check wins. No backtracking.
func runScheduler(in schedulerInput) scheduleResult {
	state := newSchedulerState(in)

	requirements := make([]models.Requirement, len(in.Requirements))
	copy(requirements, in.Requirements)
	sort.SliceStable(requirements, func(i, j int) bool {
		return len(in.Index.qualifiedTeachers(requirements[i].SubjectID)) < len(in.Index.qualifiedTeachers(requirements[j].SubjectID))
	})

	result := scheduleResult{TotalRequirements: len(requirements)}
	for _, req := range requirements {
		state.placeRequirement(req, &result)
		key := classSubjectKey{req.ClassSectionID, req.SubjectID}
		scheduled := state.scheduledCount[key]
		if scheduled >= req.WeeklyLessonsRequired {
			result.TotalRequirementsFulfilled++
			continue
		}
		reason := reasonNoCombination
		if len(in.Index.qualifiedTeachers(req.SubjectID)) == 0 {
			reason = reasonNoQualifiedTeacher
		}
		result.Unfulfilled = append(result.Unfulfilled, dto.UnfulfilledRequirement{
			ClassSectionID:   req.ClassSectionID,
			SubjectID:        req.SubjectID,
			RequiredLessons:  req.WeeklyLessonsRequired,
			ScheduledLessons: scheduled,
			Reason:           reason,
		})
	}
	return result
}

// placeRequirement attempts the missing instances of one requirement.
func (s *schedulerState) placeRequirement(req models.Requirement, result *scheduleResult) {
	key := classSubjectKey{req.ClassSectionID, req.SubjectID}
	for s.scheduledCount[key] < req.WeeklyLessonsRequired {
		teacherID, roomID, slot, ok := s.findTriple(req)
		if !ok {
			return
		}
		s.teacherUsed[resourceSlotKey{teacherID, slot.ID}] = struct{}{}
		s.classUsed[resourceSlotKey{req.ClassSectionID, slot.ID}] = struct{}{}
		s.roomUsed[resourceSlotKey{roomID, slot.ID}] = struct{}{}
		s.markTeacherPeriod(teacherID, slot)
		s.scheduledCount[key]++
		result.Placements = append(result.Placements, placement{
			Requirement: req,
			TeacherID:   teacherID,
			RoomID:      roomID,
			Slot:        slot,
		})
	}
}

// findTriple scans slots in the run's order, teachers and rooms in roster
// order, and returns the first combination surviving every check.
func (s *schedulerState) findTriple(req models.Requirement) (teacherID, roomID string, slot models.TimeSlot, ok bool) {
	for _, candidate := range s.slots {
		if _, used := s.classUsed[resourceSlotKey{req.ClassSectionID, candidate.ID}]; used {
			continue
		}
		for _, tid := range s.index.qualifiedTeachers(req.SubjectID) {
			if _, used := s.teacherUsed[resourceSlotKey{tid, candidate.ID}]; used {
				continue
			}
			if s.opts.RespectTeacherAvailability && s.index.isBlocked(tid, candidate.DayOfWeek, candidate.PeriodID) {
				continue
			}
			if s.wouldExceedConsecutive(tid, candidate) {
				continue
			}
			for _, room := range s.rooms {
				if _, used := s.roomUsed[resourceSlotKey{room.ID, candidate.ID}]; used {
					continue
				}
				if s.opts.RespectRoomSuitability && !s.index.roomSuitable(room.ID, req.SubjectID) {
					continue
				}
				return tid, room.ID, candidate, true
			}
		}
	}
	return "", "", models.TimeSlot{}, false
}

func (s *schedulerState) markTeacherPeriod(teacherID string, slot models.TimeSlot) {
	days := s.teacherDayPeriods[teacherID]
	if days == nil {
		days = make(map[int]map[int]struct{})
		s.teacherDayPeriods[teacherID] = days
	}
	periods := days[slot.DayOfWeek]
	if periods == nil {
		periods = make(map[int]struct{})
		days[slot.DayOfWeek] = periods
	}
	periods[slot.PeriodOrder] = struct{}{}
}

// wouldExceedConsecutive reports whether occupying the slot would give the
// teacher a longer uninterrupted run of lessons that day than the configured
// limit allows.
func (s *schedulerState) wouldExceedConsecutive(teacherID string, slot models.TimeSlot) bool {
	limit := s.opts.MaxConsecutiveLessonsPerTeacher
	if limit <= 0 {
		return false
	}
	periods := s.teacherDayPeriods[teacherID][slot.DayOfWeek]
	run := 1
	for p := slot.PeriodOrder - 1; ; p-- {
		if _, ok := periods[p]; !ok {
			break
		}
		run++
	}
	for p := slot.PeriodOrder + 1; ; p++ {
		if _, ok := periods[p]; !ok {
			break
		}
		run++
	}
	return run > limit
}
