package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

func newSubstitutionFixture() (*SubstitutionService, *stubLessonRepo) {
	repo := newStubLessonRepo()
	slots := newStubTimeSlotRepo(weekSlots(5, 4))
	teachers := &stubTeacherDir{
		roster: []models.Teacher{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}},
		quals: []models.TeacherQualification{
			{TeacherID: "t1", SubjectID: "math"},
			{TeacherID: "t2", SubjectID: "math"},
			{TeacherID: "t3", SubjectID: "english"},
		},
		blocks: []models.TeacherAvailability{
			{TeacherID: "t2", DayOfWeek: 2, PeriodID: "period-1"},
		},
	}
	rooms := &stubRoomDir{rooms: []models.Room{{ID: "room-1"}}}
	svc := NewSubstitutionService(repo, slots, teachers, rooms, nil, zap.NewNop())
	return svc, repo
}

func storedLesson(id, teacherID, slotID string, status models.LessonStatus) *models.Lesson {
	return &models.Lesson{
		ID:             id,
		SchoolID:       "school-1",
		AcademicYear:   "2026/2027",
		TermID:         "term-1",
		ClassSectionID: "class-a",
		SubjectID:      "math",
		TeacherID:      teacherID,
		RoomID:         "room-1",
		TimeSlotID:     slotID,
		Status:         status,
	}
}

func TestSubstitutionValid(t *testing.T) {
	svc, repo := newSubstitutionFixture()
	repo.lessons["l1"] = storedLesson("l1", "t1", "slot-d1p1", models.LessonStatusScheduled)

	result, err := svc.Validate(context.Background(), dto.ValidateSubstitutionRequest{
		LessonID:            "l1",
		SubstituteTeacherID: "t2",
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Code)
}

func TestSubstitutionRejectsUnqualified(t *testing.T) {
	svc, repo := newSubstitutionFixture()
	repo.lessons["l1"] = storedLesson("l1", "t1", "slot-d1p1", models.LessonStatusScheduled)

	result, err := svc.Validate(context.Background(), dto.ValidateSubstitutionRequest{
		LessonID:            "l1",
		SubstituteTeacherID: "t3",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, appErrors.ErrTeacherNotQualified.Code, result.Code)
}

func TestSubstitutionRejectsBusyTeacher(t *testing.T) {
	svc, repo := newSubstitutionFixture()
	repo.lessons["l1"] = storedLesson("l1", "t1", "slot-d1p1", models.LessonStatusScheduled)
	other := storedLesson("l2", "t2", "slot-d1p1", models.LessonStatusScheduled)
	other.ClassSectionID = "class-b"
	other.RoomID = "room-2"
	repo.lessons["l2"] = other

	result, err := svc.Validate(context.Background(), dto.ValidateSubstitutionRequest{
		LessonID:            "l1",
		SubstituteTeacherID: "t2",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, appErrors.ErrScheduleConflictTeacher.Code, result.Code)
}

func TestSubstitutionRejectsBlockedTeacher(t *testing.T) {
	svc, repo := newSubstitutionFixture()
	// Slot d2p1 is blocked for t2.
	repo.lessons["l1"] = storedLesson("l1", "t1", "slot-d2p1", models.LessonStatusScheduled)

	result, err := svc.Validate(context.Background(), dto.ValidateSubstitutionRequest{
		LessonID:            "l1",
		SubstituteTeacherID: "t2",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, appErrors.ErrTeacherNotAvailable.Code, result.Code)
}

func TestSubstitutionCancelledLesson(t *testing.T) {
	svc, repo := newSubstitutionFixture()
	repo.lessons["l1"] = storedLesson("l1", "t1", "slot-d1p1", models.LessonStatusCancelled)

	result, err := svc.Validate(context.Background(), dto.ValidateSubstitutionRequest{
		LessonID:            "l1",
		SubstituteTeacherID: "t2",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, appErrors.ErrInvalidStatusTransition.Code, result.Code)
}

func TestSubstitutionLessonNotFound(t *testing.T) {
	svc, _ := newSubstitutionFixture()

	_, err := svc.Validate(context.Background(), dto.ValidateSubstitutionRequest{
		LessonID:            "missing",
		SubstituteTeacherID: "t2",
	})
	assert.Equal(t, appErrors.ErrLessonNotFound, err)
}
