package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

// SubstitutionService answers whether a substitute teacher may take over an
// existing lesson. It is a dry run: nothing is written, the same conflict
// checks as a real move are evaluated with the lesson's own occupancy
// excluded.
type SubstitutionService struct {
	lessons   lessonRepository
	slots     timeSlotRepository
	teachers  teacherDirectory
	rooms     roomDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubstitutionService constructs a SubstitutionService.
func NewSubstitutionService(
	lessons lessonRepository,
	slots timeSlotRepository,
	teachers teacherDirectory,
	rooms roomDirectory,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{
		lessons:   lessons,
		slots:     slots,
		teachers:  teachers,
		rooms:     rooms,
		validator: validate,
		logger:    logger,
	}
}

// Validate checks a substitute against one lesson's slot. The result reports
// the first violated rule; a cancelled lesson cannot be substituted.
func (s *SubstitutionService) Validate(ctx context.Context, req dto.ValidateSubstitutionRequest) (*dto.ValidateSubstitutionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	lesson, err := s.findLesson(ctx, req.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Status != models.LessonStatusScheduled {
		return &dto.ValidateSubstitutionResult{
			Valid:  false,
			Code:   appErrors.ErrInvalidStatusTransition.Code,
			Reason: "lesson is not scheduled",
		}, nil
	}

	slot, err := s.slots.FindByID(ctx, lesson.TimeSlotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	checker, err := loadConflictValidator(ctx, s.teachers, s.rooms, s.lessons, lesson.SchoolID, lesson.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling constraints")
	}

	candidate := lessonCandidate{
		SchoolID:       lesson.SchoolID,
		TermID:         lesson.TermID,
		SubjectID:      lesson.SubjectID,
		TeacherID:      req.SubstituteTeacherID,
		ClassSectionID: lesson.ClassSectionID,
		RoomID:         lesson.RoomID,
		Slot:           *slot,
	}
	if err := checker.Validate(candidate, lesson.ID); err != nil {
		appErr := appErrors.FromError(err)
		return &dto.ValidateSubstitutionResult{Valid: false, Code: appErr.Code, Reason: appErr.Message}, nil
	}
	return &dto.ValidateSubstitutionResult{Valid: true}, nil
}

func (s *SubstitutionService) findLesson(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrLessonNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}
