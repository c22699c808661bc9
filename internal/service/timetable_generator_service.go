package service

import (
	"context"
	"database/sql"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	"github.com/noah-isme/school-timetable-api/internal/models"
	"github.com/noah-isme/school-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
	"github.com/noah-isme/school-timetable-api/pkg/jobs"
)

// JobTypeCacheWarmup is enqueued after a generator run so projected grids for
// the touched term are rebuilt before the first read hits the database.
const JobTypeCacheWarmup = "timetable_cache_warmup"

// CacheWarmupPayload carries the scope of a warm-up job.
type CacheWarmupPayload struct {
	SchoolID string `json:"school_id"`
	TermID   string `json:"term_id"`
}

type termRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type requirementRepository interface {
	ListByAcademicYear(ctx context.Context, schoolID, academicYear string) ([]models.Requirement, error)
}

type generatorLessonRepository interface {
	ListActiveByTerm(ctx context.Context, schoolID, termID string) ([]models.Lesson, error)
	BulkCreate(ctx context.Context, schoolID, termID string, lessons []models.Lesson) error
}

type warmupEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type generationObserver interface {
	ObserveGenerationRun(lessonsCreated, unfulfilled int, duration time.Duration)
}

// TimetableGeneratorService runs the batch placement engine for one term and
// persists whatever it managed to place. Under-fulfilment is reported, never
// treated as failure.
type TimetableGeneratorService struct {
	terms        termRepository
	requirements requirementRepository
	teachers     teacherDirectory
	rooms        roomDirectory
	slots        timeSlotRepository
	lessons      generatorLessonRepository
	cache        timetableCache
	locks        termLocker
	metrics      generationObserver
	warmups      warmupEnqueuer
	defaults     config.SchedulerConfig
	ordering     slotOrdering
	validator    *validator.Validate
	logger       *zap.Logger
}

// TimetableGeneratorDeps bundles the collaborators of the generator service.
type TimetableGeneratorDeps struct {
	Terms        termRepository
	Requirements requirementRepository
	Teachers     teacherDirectory
	Rooms        roomDirectory
	Slots        timeSlotRepository
	Lessons      generatorLessonRepository
	Cache        timetableCache
	Locks        termLocker
	Metrics      generationObserver
	Warmups      warmupEnqueuer
	Defaults     config.SchedulerConfig
	Ordering     slotOrdering
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewTimetableGeneratorService constructs the generator service. A nil
// Ordering gets a time-seeded shuffle; tests inject catalogOrdering for
// reproducible runs.
func NewTimetableGeneratorService(deps TimetableGeneratorDeps) *TimetableGeneratorService {
	if deps.Ordering == nil {
		deps.Ordering = shuffleOrdering(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &TimetableGeneratorService{
		terms:        deps.Terms,
		requirements: deps.Requirements,
		teachers:     deps.Teachers,
		rooms:        deps.Rooms,
		slots:        deps.Slots,
		lessons:      deps.Lessons,
		cache:        deps.Cache,
		locks:        deps.Locks,
		metrics:      deps.Metrics,
		warmups:      deps.Warmups,
		defaults:     deps.Defaults,
		ordering:     deps.Ordering,
		validator:    deps.Validator,
		logger:       deps.Logger,
	}
}

// Generate fills the unmet weekly requirements of one term. Re-running over a
// partially built timetable only adds the missing lessons; existing active
// lessons are never moved or deleted.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if term.SchoolID != req.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}

	periodSet, err := s.slots.FindPeriodSet(ctx, req.PeriodSetID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "period set not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period set")
	}

	key := termKey(req.SchoolID, req.TermID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	started := time.Now()

	requirements, err := s.requirements.ListByAcademicYear(ctx, req.SchoolID, term.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirements")
	}
	roster, err := s.teachers.ListActive(ctx, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	qualifications, err := s.teachers.ListQualifications(ctx, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualifications")
	}
	unavailability, err := s.teachers.ListUnavailability(ctx, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher availability")
	}
	rooms, err := s.rooms.List(ctx, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	suitability, err := s.rooms.ListSuitability(ctx, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room suitability")
	}
	slots, err := s.slots.ListSchedulable(ctx, periodSet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	existing, err := s.lessons.ListActiveByTerm(ctx, req.SchoolID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing lessons")
	}

	index := buildConstraintIndex(roster, qualifications, unavailability, suitability)
	result := runScheduler(schedulerInput{
		Requirements: requirements,
		Index:        index,
		Rooms:        rooms,
		Slots:        slots,
		Existing:     existing,
		Options:      s.resolveOptions(req.Options),
		Ordering:     s.ordering,
	})

	created := make([]models.Lesson, 0, len(result.Placements))
	for _, p := range result.Placements {
		created = append(created, models.Lesson{
			ID:             uuid.NewString(),
			SchoolID:       req.SchoolID,
			AcademicYear:   term.AcademicYear,
			TermID:         req.TermID,
			ClassSectionID: p.Requirement.ClassSectionID,
			SubjectID:      p.Requirement.SubjectID,
			TeacherID:      p.TeacherID,
			RoomID:         p.RoomID,
			TimeSlotID:     p.Slot.ID,
			Status:         models.LessonStatusScheduled,
		})
	}
	if err := s.lessons.BulkCreate(ctx, req.SchoolID, req.TermID, created); err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	if s.metrics != nil {
		s.metrics.ObserveGenerationRun(len(created), len(result.Unfulfilled), elapsed)
	}
	s.invalidateAndWarm(ctx, req.SchoolID, req.TermID)

	s.logger.Info("timetable generated",
		zap.String("term_id", req.TermID),
		zap.Int("lessons_created", len(created)),
		zap.Int("requirements_total", result.TotalRequirements),
		zap.Int("requirements_fulfilled", result.TotalRequirementsFulfilled),
		zap.Duration("elapsed", elapsed))

	return &dto.GenerationReport{
		TotalLessonsCreated:        len(created),
		TotalRequirementsFulfilled: result.TotalRequirementsFulfilled,
		TotalRequirements:          result.TotalRequirements,
		Unfulfilled:                result.Unfulfilled,
	}, nil
}

func (s *TimetableGeneratorService) resolveOptions(opts dto.GenerateTimetableOptions) schedulerOptions {
	resolved := schedulerOptions{
		RespectTeacherAvailability:      s.defaults.RespectTeacherAvailability,
		RespectRoomSuitability:          s.defaults.RespectRoomSuitability,
		MaxConsecutiveLessonsPerTeacher: s.defaults.MaxConsecutiveLessonsPerTeacher,
	}
	if opts.RespectTeacherAvailability != nil {
		resolved.RespectTeacherAvailability = *opts.RespectTeacherAvailability
	}
	if opts.RespectRoomSuitability != nil {
		resolved.RespectRoomSuitability = *opts.RespectRoomSuitability
	}
	if opts.MaxConsecutiveLessonsPerTeacher != nil {
		resolved.MaxConsecutiveLessonsPerTeacher = *opts.MaxConsecutiveLessonsPerTeacher
	}
	return resolved
}

func (s *TimetableGeneratorService) invalidateAndWarm(ctx context.Context, schoolID, termID string) {
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, timetableCachePattern(termID)); err != nil {
			s.logger.Warn("failed to invalidate timetable cache", zap.String("term_id", termID), zap.Error(err))
		}
	}
	if s.warmups == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeCacheWarmup,
		Payload: CacheWarmupPayload{SchoolID: schoolID, TermID: termID},
	}
	if err := s.warmups.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue cache warm-up", zap.String("term_id", termID), zap.Error(err))
	}
}
