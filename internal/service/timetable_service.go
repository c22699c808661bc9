package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/school-timetable-api/internal/models"
	"github.com/noah-isme/school-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
	"github.com/noah-isme/school-timetable-api/pkg/export"
)

// Timetable scopes used in cache keys and projected grids.
const (
	ScopeClass   = "class"
	ScopeTeacher = "teacher"
	ScopeRoom    = "room"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func timetableCacheKey(termID, scope, id string) string {
	return fmt.Sprintf("timetable:%s:%s:%s", termID, scope, id)
}

func timetableCachePattern(termID string) string {
	return "timetable:" + termID + ":*"
}

type lessonDetailReader interface {
	ListActiveDetailByClass(ctx context.Context, schoolID, termID, classSectionID string) ([]models.LessonDetail, error)
	ListActiveDetailByTeacher(ctx context.Context, schoolID, termID, teacherID string) ([]models.LessonDetail, error)
	ListActiveDetailByRoom(ctx context.Context, schoolID, termID, roomID string) ([]models.LessonDetail, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledDatasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// TimetableService projects lessons into read-side grids and renders exports.
// Grids are cached per (term, scope, id) and invalidated wholesale whenever a
// lesson of the term changes.
type TimetableService struct {
	lessons lessonDetailReader
	cache   timetableCache
	cfg     config.TimetableConfig
	csv     datasetRenderer
	pdf     titledDatasetRenderer
	logger  *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(lessons lessonDetailReader, cache timetableCache, cfg config.TimetableConfig, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		lessons: lessons,
		cache:   cache,
		cfg:     cfg,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// ByClass returns the weekly grid of one class section.
func (s *TimetableService) ByClass(ctx context.Context, schoolID, termID, classSectionID string) (*models.TimetableGrid, error) {
	return s.projected(ctx, termID, ScopeClass, classSectionID, false, func() ([]models.LessonDetail, error) {
		return s.lessons.ListActiveDetailByClass(ctx, schoolID, termID, classSectionID)
	})
}

// ByTeacher returns the weekly grid of one teacher, class names included.
func (s *TimetableService) ByTeacher(ctx context.Context, schoolID, termID, teacherID string) (*models.TimetableGrid, error) {
	return s.projected(ctx, termID, ScopeTeacher, teacherID, true, func() ([]models.LessonDetail, error) {
		return s.lessons.ListActiveDetailByTeacher(ctx, schoolID, termID, teacherID)
	})
}

// ByRoom returns the weekly grid of one room, class names included.
func (s *TimetableService) ByRoom(ctx context.Context, schoolID, termID, roomID string) (*models.TimetableGrid, error) {
	return s.projected(ctx, termID, ScopeRoom, roomID, true, func() ([]models.LessonDetail, error) {
		return s.lessons.ListActiveDetailByRoom(ctx, schoolID, termID, roomID)
	})
}

func (s *TimetableService) projected(ctx context.Context, termID, scope, id string, includeClass bool, load func() ([]models.LessonDetail, error)) (*models.TimetableGrid, error) {
	key := timetableCacheKey(termID, scope, id)
	if s.cacheEnabled() {
		var cached models.TimetableGrid
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	lessons, err := load()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons for timetable")
	}
	grid := projectTimetable(termID, scope, lessons, includeClass)

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, grid, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return &grid, nil
}

func (s *TimetableService) cacheEnabled() bool {
	return s.cache != nil && s.cfg.CacheEnabled
}

// ExportClassCSV renders a class timetable as CSV, one row per lesson ordered
// by day then period.
func (s *TimetableService) ExportClassCSV(ctx context.Context, schoolID, termID, classSectionID string) ([]byte, error) {
	data, err := s.classDataset(ctx, schoolID, termID, classSectionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return payload, nil
}

// ExportClassPDF renders a class timetable as a landscape PDF table.
func (s *TimetableService) ExportClassPDF(ctx context.Context, schoolID, termID, classSectionID string) ([]byte, error) {
	data, err := s.classDataset(ctx, schoolID, termID, classSectionID)
	if err != nil {
		return nil, err
	}
	title := "Class Timetable"
	if len(data.Rows) > 0 {
		title = fmt.Sprintf("Timetable %s", data.Rows[0]["Class"])
	}
	payload, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return payload, nil
}

func (s *TimetableService) classDataset(ctx context.Context, schoolID, termID, classSectionID string) (export.Dataset, error) {
	lessons, err := s.lessons.ListActiveDetailByClass(ctx, schoolID, termID, classSectionID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons for export")
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].DayOfWeek != lessons[j].DayOfWeek {
			return lessons[i].DayOfWeek < lessons[j].DayOfWeek
		}
		return lessons[i].PeriodID < lessons[j].PeriodID
	})

	data := export.Dataset{Headers: []string{"Day", "Period", "Subject", "Teacher", "Room", "Class"}}
	for _, lesson := range lessons {
		day := ""
		if lesson.DayOfWeek >= 0 && lesson.DayOfWeek < len(dayNames) {
			day = dayNames[lesson.DayOfWeek]
		}
		data.Rows = append(data.Rows, map[string]string{
			"Day":     day,
			"Period":  lesson.PeriodID,
			"Subject": lesson.SubjectName,
			"Teacher": lesson.TeacherShortName,
			"Room":    lesson.RoomName,
			"Class":   lesson.ClassSectionName,
		})
	}
	return data, nil
}

// WarmCache rebuilds the class grid cache entries for a term. The background
// queue invokes this after a generator run.
func (s *TimetableService) WarmCache(ctx context.Context, schoolID, termID string, classSectionIDs []string) {
	for _, classID := range classSectionIDs {
		if _, err := s.ByClass(ctx, schoolID, termID, classID); err != nil {
			s.logger.Warn("cache warm-up failed", zap.String("term_id", termID), zap.String("class_section_id", classID), zap.Error(err))
		}
	}
}
