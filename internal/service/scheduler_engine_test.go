package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-timetable-api/internal/models"
)

// weekSlots builds a catalog of days×periods schedulable slots, days starting
// at Monday (1), in day-then-period order.
func weekSlots(days, periods int) []models.TimeSlot {
	var slots []models.TimeSlot
	for d := 1; d <= days; d++ {
		for p := 1; p <= periods; p++ {
			slots = append(slots, models.TimeSlot{
				ID:          fmt.Sprintf("slot-d%dp%d", d, p),
				DayOfWeek:   d,
				PeriodID:    fmt.Sprintf("period-%d", p),
				PeriodOrder: p,
			})
		}
	}
	return slots
}

func requirement(classID, subjectID string, weekly int) models.Requirement {
	return models.Requirement{
		ID:                    classID + "-" + subjectID,
		ClassSectionID:        classID,
		SubjectID:             subjectID,
		WeeklyLessonsRequired: weekly,
	}
}

func TestRunSchedulerFillsAllRequirements(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}, {ID: "t2"}}
	qualifications := []models.TeacherQualification{
		{TeacherID: "t1", SubjectID: "math"},
		{TeacherID: "t2", SubjectID: "english"},
	}
	idx := buildConstraintIndex(roster, qualifications, nil, nil)

	result := runScheduler(schedulerInput{
		Requirements: []models.Requirement{
			requirement("class-a", "math", 3),
			requirement("class-a", "english", 2),
			requirement("class-b", "math", 2),
		},
		Index:    idx,
		Rooms:    []models.Room{{ID: "room-1"}, {ID: "room-2"}},
		Slots:    weekSlots(5, 4),
		Ordering: catalogOrdering(),
	})

	assert.Len(t, result.Placements, 7)
	assert.Equal(t, 3, result.TotalRequirements)
	assert.Equal(t, 3, result.TotalRequirementsFulfilled)
	assert.Empty(t, result.Unfulfilled)

	// No teacher, class or room is double booked.
	teacherSeen := map[string]bool{}
	classSeen := map[string]bool{}
	roomSeen := map[string]bool{}
	for _, p := range result.Placements {
		tk := p.TeacherID + "@" + p.Slot.ID
		ck := p.Requirement.ClassSectionID + "@" + p.Slot.ID
		rk := p.RoomID + "@" + p.Slot.ID
		assert.False(t, teacherSeen[tk], tk)
		assert.False(t, classSeen[ck], ck)
		assert.False(t, roomSeen[rk], rk)
		teacherSeen[tk] = true
		classSeen[ck] = true
		roomSeen[rk] = true
	}
}

func TestRunSchedulerReportsNoQualifiedTeacher(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}}
	qualifications := []models.TeacherQualification{{TeacherID: "t1", SubjectID: "math"}}
	idx := buildConstraintIndex(roster, qualifications, nil, nil)

	result := runScheduler(schedulerInput{
		Requirements: []models.Requirement{requirement("class-a", "latin", 2)},
		Index:        idx,
		Rooms:        []models.Room{{ID: "room-1"}},
		Slots:        weekSlots(5, 4),
		Ordering:     catalogOrdering(),
	})

	assert.Empty(t, result.Placements)
	assert.Equal(t, 0, result.TotalRequirementsFulfilled)
	require.Len(t, result.Unfulfilled, 1)
	assert.Equal(t, reasonNoQualifiedTeacher, result.Unfulfilled[0].Reason)
	assert.Equal(t, 2, result.Unfulfilled[0].RequiredLessons)
	assert.Equal(t, 0, result.Unfulfilled[0].ScheduledLessons)
}

func TestRunSchedulerPartialPlacement(t *testing.T) {
	// One qualified teacher, four slots, six lessons required: the run places
	// four and reports the remainder.
	roster := []models.Teacher{{ID: "t1"}}
	qualifications := []models.TeacherQualification{{TeacherID: "t1", SubjectID: "math"}}
	idx := buildConstraintIndex(roster, qualifications, nil, nil)

	result := runScheduler(schedulerInput{
		Requirements: []models.Requirement{requirement("class-a", "math", 6)},
		Index:        idx,
		Rooms:        []models.Room{{ID: "room-1"}},
		Slots:        weekSlots(2, 2),
		Ordering:     catalogOrdering(),
	})

	assert.Len(t, result.Placements, 4)
	assert.Equal(t, 0, result.TotalRequirementsFulfilled)
	require.Len(t, result.Unfulfilled, 1)
	assert.Equal(t, reasonNoCombination, result.Unfulfilled[0].Reason)
	assert.Equal(t, 4, result.Unfulfilled[0].ScheduledLessons)
}

func TestRunSchedulerIsIdempotentAcrossRuns(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}}
	qualifications := []models.TeacherQualification{{TeacherID: "t1", SubjectID: "math"}}
	idx := buildConstraintIndex(roster, qualifications, nil, nil)

	input := schedulerInput{
		Requirements: []models.Requirement{requirement("class-a", "math", 3)},
		Index:        idx,
		Rooms:        []models.Room{{ID: "room-1"}},
		Slots:        weekSlots(5, 4),
		Ordering:     catalogOrdering(),
	}

	first := runScheduler(input)
	require.Len(t, first.Placements, 3)

	// Feed the first run's outcome back in as stored lessons.
	existing := make([]models.Lesson, 0, len(first.Placements))
	for i, p := range first.Placements {
		existing = append(existing, models.Lesson{
			ID:             fmt.Sprintf("lesson-%d", i),
			ClassSectionID: p.Requirement.ClassSectionID,
			SubjectID:      p.Requirement.SubjectID,
			TeacherID:      p.TeacherID,
			RoomID:         p.RoomID,
			TimeSlotID:     p.Slot.ID,
			Status:         models.LessonStatusScheduled,
		})
	}
	input.Existing = existing

	second := runScheduler(input)
	assert.Empty(t, second.Placements)
	assert.Equal(t, 1, second.TotalRequirementsFulfilled)
	assert.Empty(t, second.Unfulfilled)
}

func TestRunSchedulerFillsGapAfterCancellation(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}}
	qualifications := []models.TeacherQualification{{TeacherID: "t1", SubjectID: "math"}}
	idx := buildConstraintIndex(roster, qualifications, nil, nil)

	// Two of three lessons exist; one was cancelled and must not count.
	existing := []models.Lesson{
		{ID: "l1", ClassSectionID: "class-a", SubjectID: "math", TeacherID: "t1", RoomID: "room-1", TimeSlotID: "slot-d1p1", Status: models.LessonStatusScheduled},
		{ID: "l2", ClassSectionID: "class-a", SubjectID: "math", TeacherID: "t1", RoomID: "room-1", TimeSlotID: "slot-d1p2", Status: models.LessonStatusCancelled},
	}

	result := runScheduler(schedulerInput{
		Requirements: []models.Requirement{requirement("class-a", "math", 2)},
		Index:        idx,
		Rooms:        []models.Room{{ID: "room-1"}},
		Slots:        weekSlots(5, 4),
		Existing:     existing,
		Ordering:     catalogOrdering(),
	})

	// Exactly one new lesson, and the cancelled lesson's slot is reusable.
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "slot-d1p2", result.Placements[0].Slot.ID)
	assert.Equal(t, 1, result.TotalRequirementsFulfilled)
}

func TestRunSchedulerRespectsTeacherAvailability(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}}
	qualifications := []models.TeacherQualification{{TeacherID: "t1", SubjectID: "math"}}
	unavailability := []models.TeacherAvailability{
		{TeacherID: "t1", DayOfWeek: 1, PeriodID: "period-1"},
	}
	idx := buildConstraintIndex(roster, qualifications, unavailability, nil)

	input := schedulerInput{
		Requirements: []models.Requirement{requirement("class-a", "math", 1)},
		Index:        idx,
		Rooms:        []models.Room{{ID: "room-1"}},
		Slots:        weekSlots(1, 2),
		Options:      schedulerOptions{RespectTeacherAvailability: true},
		Ordering:     catalogOrdering(),
	}

	result := runScheduler(input)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "slot-d1p2", result.Placements[0].Slot.ID)

	// With the option off the blocked slot is fair game.
	input.Options.RespectTeacherAvailability = false
	result = runScheduler(input)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "slot-d1p1", result.Placements[0].Slot.ID)
}

func TestRunSchedulerRespectsRoomSuitability(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}}
	qualifications := []models.TeacherQualification{{TeacherID: "t1", SubjectID: "chemistry"}}
	suitability := []models.RoomSuitability{{RoomID: "lab", SubjectID: "chemistry"}}
	idx := buildConstraintIndex(roster, qualifications, nil, suitability)

	result := runScheduler(schedulerInput{
		Requirements: []models.Requirement{requirement("class-a", "chemistry", 2)},
		Index:        idx,
		// lab accepts chemistry explicitly; plain accepts everything.
		Rooms:    []models.Room{{ID: "lab"}, {ID: "plain"}},
		Slots:    weekSlots(1, 2),
		Options:  schedulerOptions{RespectRoomSuitability: true},
		Ordering: catalogOrdering(),
	})

	require.Len(t, result.Placements, 2)
	for _, p := range result.Placements {
		assert.Equal(t, "lab", p.RoomID)
	}
}

func TestRunSchedulerLimitsConsecutiveLessons(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}}
	qualifications := []models.TeacherQualification{{TeacherID: "t1", SubjectID: "math"}}
	idx := buildConstraintIndex(roster, qualifications, nil, nil)

	result := runScheduler(schedulerInput{
		Requirements: []models.Requirement{requirement("class-a", "math", 3)},
		Index:        idx,
		Rooms:        []models.Room{{ID: "room-1"}},
		Slots:        weekSlots(1, 5),
		Options:      schedulerOptions{MaxConsecutiveLessonsPerTeacher: 2},
		Ordering:     catalogOrdering(),
	})

	require.Len(t, result.Placements, 3)
	var slots []string
	for _, p := range result.Placements {
		slots = append(slots, p.Slot.ID)
	}
	// Periods 1 and 2 fill, period 3 would make a run of three, period 4 is
	// separated by the gap and legal again.
	assert.Equal(t, []string{"slot-d1p1", "slot-d1p2", "slot-d1p4"}, slots)
}

func TestRunSchedulerMostConstrainedFirst(t *testing.T) {
	roster := []models.Teacher{{ID: "t1"}, {ID: "t2"}}
	qualifications := []models.TeacherQualification{
		{TeacherID: "t1", SubjectID: "latin"},
		{TeacherID: "t1", SubjectID: "math"},
		{TeacherID: "t2", SubjectID: "math"},
	}
	idx := buildConstraintIndex(roster, qualifications, nil, nil)

	// One slot for one class: only one of the two requirements can land, and
	// it must be the one with fewer qualified teachers.
	result := runScheduler(schedulerInput{
		Requirements: []models.Requirement{
			requirement("class-a", "math", 1),
			requirement("class-a", "latin", 1),
		},
		Index:    idx,
		Rooms:    []models.Room{{ID: "room-1"}},
		Slots:    weekSlots(1, 1),
		Ordering: catalogOrdering(),
	})

	require.Len(t, result.Placements, 1)
	assert.Equal(t, "latin", result.Placements[0].Requirement.SubjectID)
	require.Len(t, result.Unfulfilled, 1)
	assert.Equal(t, "math", result.Unfulfilled[0].SubjectID)
}

func TestShuffleOrderingIsSeededAndNonDestructive(t *testing.T) {
	slots := weekSlots(5, 4)
	original := make([]models.TimeSlot, len(slots))
	copy(original, slots)

	a := shuffleOrdering(rand.New(rand.NewSource(42)))(slots)
	b := shuffleOrdering(rand.New(rand.NewSource(42)))(slots)

	assert.Equal(t, a, b)
	assert.Equal(t, original, slots)
	assert.ElementsMatch(t, original, a)
}
