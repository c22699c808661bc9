package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ListActiveByTerm(ctx context.Context, schoolID, termID string) ([]models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error
	DeleteByTerm(ctx context.Context, schoolID, termID string) (int64, error)
}

type timeSlotRepository interface {
	FindPeriodSet(ctx context.Context, id string) (*models.PeriodSet, error)
	ListSchedulable(ctx context.Context, periodSetID string) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

type teacherDirectory interface {
	ListActive(ctx context.Context, schoolID string) ([]models.Teacher, error)
	ListQualifications(ctx context.Context, schoolID string) ([]models.TeacherQualification, error)
	ListUnavailability(ctx context.Context, schoolID string) ([]models.TeacherAvailability, error)
}

type roomDirectory interface {
	List(ctx context.Context, schoolID string) ([]models.Room, error)
	ListSuitability(ctx context.Context, schoolID string) ([]models.RoomSuitability, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type termLocker interface {
	Lock(key string)
	Unlock(key string)
}

// termKey builds the serialisation key for one school/term pair. Lesson
// writes, generator runs and term clears all contend on it.
func termKey(schoolID, termID string) string {
	return schoolID + "|" + termID
}

// loadConflictValidator snapshots the constraint relations and active lessons
// of one school/term and builds a validator over them. Callers hold the term
// lock so the snapshot cannot go stale under them.
func loadConflictValidator(
	ctx context.Context,
	teachers teacherDirectory,
	rooms roomDirectory,
	lessons lessonRepository,
	schoolID, termID string,
) (*conflictValidator, error) {
	roster, err := teachers.ListActive(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	qualifications, err := teachers.ListQualifications(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	unavailability, err := teachers.ListUnavailability(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	suitability, err := rooms.ListSuitability(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	active, err := lessons.ListActiveByTerm(ctx, schoolID, termID)
	if err != nil {
		return nil, err
	}
	index := buildConstraintIndex(roster, qualifications, unavailability, suitability)
	return newConflictValidator(index, active), nil
}

// LessonService owns the manual lesson lifecycle: create, move, cancel, bulk
// load and clear-by-term. Every write revalidates against the live constraint
// snapshot under the term lock.
type LessonService struct {
	lessons   lessonRepository
	slots     timeSlotRepository
	teachers  teacherDirectory
	rooms     roomDirectory
	cache     timetableCache
	locks     termLocker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs a LessonService.
func NewLessonService(
	lessons lessonRepository,
	slots timeSlotRepository,
	teachers teacherDirectory,
	rooms roomDirectory,
	cache timetableCache,
	locks termLocker,
	validate *validator.Validate,
	logger *zap.Logger,
) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{
		lessons:   lessons,
		slots:     slots,
		teachers:  teachers,
		rooms:     rooms,
		cache:     cache,
		locks:     locks,
		validator: validate,
		logger:    logger,
	}
}

// List returns lessons plus pagination data.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	lessons, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return lessons, pagination, nil
}

// Get returns a lesson by id.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrLessonNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Create places one lesson after running the full conflict check.
func (s *LessonService) Create(ctx context.Context, req dto.CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	key := termKey(req.SchoolID, req.TermID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	slot, err := s.resolveSlot(ctx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}

	checker, err := loadConflictValidator(ctx, s.teachers, s.rooms, s.lessons, req.SchoolID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling constraints")
	}

	candidate := lessonCandidate{
		SchoolID:       req.SchoolID,
		TermID:         req.TermID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		ClassSectionID: req.ClassSectionID,
		RoomID:         req.RoomID,
		Slot:           *slot,
	}
	if err := checker.Validate(candidate, ""); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		SchoolID:       req.SchoolID,
		AcademicYear:   req.AcademicYear,
		TermID:         req.TermID,
		ClassSectionID: req.ClassSectionID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		RoomID:         req.RoomID,
		TimeSlotID:     req.TimeSlotID,
		Status:         models.LessonStatusScheduled,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, err
	}

	s.invalidateTerm(ctx, req.TermID)
	s.logger.Info("lesson created",
		zap.String("lesson_id", lesson.ID),
		zap.String("term_id", req.TermID),
		zap.String("class_section_id", req.ClassSectionID))
	return lesson, nil
}

// Update moves a scheduled lesson to another subject/teacher/room/slot. The
// effective post-update tuple is validated with the lesson's own occupancy
// excluded, so moving within the same slot stays legal.
func (s *LessonService) Update(ctx context.Context, id string, req dto.UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := termKey(lesson.SchoolID, lesson.TermID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// Re-read under the lock: a cancel may have landed while we waited, and
	// cancelled is terminal.
	lesson, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson.Status != models.LessonStatusScheduled {
		return nil, appErrors.ErrInvalidStatusTransition
	}

	slot, err := s.resolveSlot(ctx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}

	checker, err := loadConflictValidator(ctx, s.teachers, s.rooms, s.lessons, lesson.SchoolID, lesson.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling constraints")
	}

	candidate := lessonCandidate{
		SchoolID:       lesson.SchoolID,
		TermID:         lesson.TermID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		ClassSectionID: lesson.ClassSectionID,
		RoomID:         req.RoomID,
		Slot:           *slot,
	}
	if err := checker.Validate(candidate, lesson.ID); err != nil {
		return nil, err
	}

	lesson.SubjectID = req.SubjectID
	lesson.TeacherID = req.TeacherID
	lesson.RoomID = req.RoomID
	lesson.TimeSlotID = req.TimeSlotID
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, err
	}

	s.invalidateTerm(ctx, lesson.TermID)
	s.logger.Info("lesson updated", zap.String("lesson_id", lesson.ID), zap.String("term_id", lesson.TermID))
	return lesson, nil
}

// Cancel transitions a scheduled lesson to cancelled, freeing its slot for
// future placements. Only SCHEDULED lessons may be cancelled.
func (s *LessonService) Cancel(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := termKey(lesson.SchoolID, lesson.TermID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// Re-read under the lock so exactly one of two racing cancels wins.
	lesson, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson.Status != models.LessonStatusScheduled {
		return nil, appErrors.ErrInvalidStatusTransition
	}

	if err := s.lessons.UpdateStatus(ctx, id, models.LessonStatusCancelled); err != nil {
		if err == appErrors.ErrInvalidStatusTransition {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel lesson")
	}
	lesson.Status = models.LessonStatusCancelled

	s.invalidateTerm(ctx, lesson.TermID)
	s.logger.Info("lesson cancelled", zap.String("lesson_id", lesson.ID), zap.String("term_id", lesson.TermID))
	return lesson, nil
}

// ClearByTerm removes every lesson of a school/term pair and reports how many
// rows went away. The operation is idempotent; clearing an empty term returns
// zero.
func (s *LessonService) ClearByTerm(ctx context.Context, schoolID, termID string) (int64, error) {
	if schoolID == "" || termID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "school_id and term_id are required")
	}

	key := termKey(schoolID, termID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	count, err := s.lessons.DeleteByTerm(ctx, schoolID, termID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear lessons")
	}

	s.invalidateTerm(ctx, termID)
	s.logger.Info("lessons cleared", zap.String("term_id", termID), zap.Int64("count", count))
	return count, nil
}

// BulkCreate loads many lessons with per-item isolation: each item is checked
// against stored lessons plus the items accepted before it, and a rejected
// item never blocks its siblings.
func (s *LessonService) BulkCreate(ctx context.Context, req dto.BulkCreateLessonsRequest) (*dto.BulkCreateLessonsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	// Every term lock is taken up front in one canonical order, so two bulk
	// requests spanning the same terms in different item orders cannot
	// deadlock against each other.
	termKeys := make([]string, 0, 1)
	seen := make(map[string]struct{}, 1)
	for _, item := range req.Items {
		key := termKey(item.SchoolID, item.TermID)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			termKeys = append(termKeys, key)
		}
	}
	sort.Strings(termKeys)
	for _, key := range termKeys {
		s.locks.Lock(key)
	}
	defer func() {
		for _, key := range termKeys {
			s.locks.Unlock(key)
		}
	}()

	checkers := make(map[string]*conflictValidator)
	slotCache := make(map[string]*models.TimeSlot)

	result := &dto.BulkCreateLessonsResult{}
	for i, item := range req.Items {
		key := termKey(item.SchoolID, item.TermID)
		checker, ok := checkers[key]
		if !ok {
			loaded, err := loadConflictValidator(ctx, s.teachers, s.rooms, s.lessons, item.SchoolID, item.TermID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling constraints")
			}
			checker = loaded
			checkers[key] = checker
		}

		slot, ok := slotCache[item.TimeSlotID]
		if !ok {
			resolved, err := s.resolveSlot(ctx, item.TimeSlotID)
			if err != nil {
				result.Failed++
				appErr := appErrors.FromError(err)
				result.Errors = append(result.Errors, dto.BulkLessonError{Index: i, Code: appErr.Code, Message: appErr.Message})
				continue
			}
			slot = resolved
			slotCache[item.TimeSlotID] = slot
		}

		candidate := lessonCandidate{
			SchoolID:       item.SchoolID,
			TermID:         item.TermID,
			SubjectID:      item.SubjectID,
			TeacherID:      item.TeacherID,
			ClassSectionID: item.ClassSectionID,
			RoomID:         item.RoomID,
			Slot:           *slot,
		}
		if err := checker.Validate(candidate, ""); err != nil {
			result.Failed++
			appErr := appErrors.FromError(err)
			result.Errors = append(result.Errors, dto.BulkLessonError{Index: i, Code: appErr.Code, Message: appErr.Message})
			continue
		}

		lesson := &models.Lesson{
			SchoolID:       item.SchoolID,
			AcademicYear:   item.AcademicYear,
			TermID:         item.TermID,
			ClassSectionID: item.ClassSectionID,
			SubjectID:      item.SubjectID,
			TeacherID:      item.TeacherID,
			RoomID:         item.RoomID,
			TimeSlotID:     item.TimeSlotID,
			Status:         models.LessonStatusScheduled,
		}
		if err := s.lessons.Create(ctx, lesson); err != nil {
			result.Failed++
			appErr := appErrors.FromError(err)
			result.Errors = append(result.Errors, dto.BulkLessonError{Index: i, Code: appErr.Code, Message: appErr.Message})
			continue
		}

		checker.occupy(candidate, lesson.ID)
		result.Created++
	}

	for key := range checkers {
		s.invalidateTerm(ctx, termIDFromKey(key))
	}
	s.logger.Info("bulk lessons processed", zap.Int("created", result.Created), zap.Int("failed", result.Failed))
	return result, nil
}

func (s *LessonService) resolveSlot(ctx context.Context, timeSlotID string) (*models.TimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, timeSlotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	return slot, nil
}

func (s *LessonService) invalidateTerm(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, timetableCachePattern(termID)); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("term_id", termID), zap.Error(err))
	}
}

func termIDFromKey(key string) string {
	if _, termID, ok := strings.Cut(key, "|"); ok {
		return termID
	}
	return key
}
