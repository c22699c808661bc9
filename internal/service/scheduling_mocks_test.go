package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
	"github.com/noah-isme/school-timetable-api/pkg/jobs"
)

// In-memory collaborators shared by the service tests. They mimic repository
// behaviour closely enough for the write paths: lessons are stored by id and
// filtered the way the SQL queries would.

type stubLessonRepo struct {
	mu        sync.Mutex
	lessons   map[string]*models.Lesson
	seq       int
	createErr error
}

func newStubLessonRepo() *stubLessonRepo {
	return &stubLessonRepo{lessons: make(map[string]*models.Lesson)}
}

func (s *stubLessonRepo) List(_ context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lesson
	for _, l := range s.lessons {
		if filter.TermID != "" && l.TermID != filter.TermID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (s *stubLessonRepo) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (s *stubLessonRepo) ListActiveByTerm(_ context.Context, schoolID, termID string) ([]models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lesson
	for _, l := range s.lessons {
		if l.SchoolID == schoolID && l.TermID == termID && l.Active() {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *stubLessonRepo) Create(_ context.Context, lesson *models.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if lesson.ID == "" {
		s.seq++
		lesson.ID = fmt.Sprintf("lesson-%d", s.seq)
	}
	if lesson.Status == "" {
		lesson.Status = models.LessonStatusScheduled
	}
	cp := *lesson
	s.lessons[lesson.ID] = &cp
	return nil
}

func (s *stubLessonRepo) BulkCreate(ctx context.Context, _, _ string, lessons []models.Lesson) error {
	for i := range lessons {
		if err := s.Create(ctx, &lessons[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubLessonRepo) Update(_ context.Context, lesson *models.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.lessons[lesson.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if stored.Status != models.LessonStatusScheduled {
		return appErrors.ErrInvalidStatusTransition
	}
	stored.SubjectID = lesson.SubjectID
	stored.TeacherID = lesson.TeacherID
	stored.RoomID = lesson.RoomID
	stored.TimeSlotID = lesson.TimeSlotID
	return nil
}

func (s *stubLessonRepo) UpdateStatus(_ context.Context, id string, status models.LessonStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.lessons[id]
	if !ok {
		return sql.ErrNoRows
	}
	if stored.Status != models.LessonStatusScheduled {
		return appErrors.ErrInvalidStatusTransition
	}
	stored.Status = status
	return nil
}

func (s *stubLessonRepo) DeleteByTerm(_ context.Context, schoolID, termID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, l := range s.lessons {
		if l.SchoolID == schoolID && l.TermID == termID {
			delete(s.lessons, id)
			count++
		}
	}
	return count, nil
}

func (s *stubLessonRepo) setStatus(id string, status models.LessonStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.lessons[id]; ok {
		stored.Status = status
	}
}

func (s *stubLessonRepo) get(id string) models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.lessons[id]
}

func (s *stubLessonRepo) active(termID string) []models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lesson
	for _, l := range s.lessons {
		if l.TermID == termID && l.Active() {
			out = append(out, *l)
		}
	}
	return out
}

type stubTimeSlotRepo struct {
	periodSet *models.PeriodSet
	slots     map[string]models.TimeSlot
	catalog   []models.TimeSlot
}

func newStubTimeSlotRepo(catalog []models.TimeSlot) *stubTimeSlotRepo {
	s := &stubTimeSlotRepo{
		periodSet: &models.PeriodSet{ID: "ps-1", SchoolID: "school-1", AcademicYear: "2026/2027", Name: "Default"},
		slots:     make(map[string]models.TimeSlot, len(catalog)),
		catalog:   catalog,
	}
	for _, slot := range catalog {
		s.slots[slot.ID] = slot
	}
	return s
}

func (s *stubTimeSlotRepo) FindPeriodSet(_ context.Context, id string) (*models.PeriodSet, error) {
	if s.periodSet == nil || s.periodSet.ID != id {
		return nil, sql.ErrNoRows
	}
	cp := *s.periodSet
	return &cp, nil
}

func (s *stubTimeSlotRepo) ListSchedulable(_ context.Context, _ string) ([]models.TimeSlot, error) {
	return s.catalog, nil
}

func (s *stubTimeSlotRepo) FindByID(_ context.Context, id string) (*models.TimeSlot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &slot, nil
}

type stubTeacherDir struct {
	roster []models.Teacher
	quals  []models.TeacherQualification
	blocks []models.TeacherAvailability
}

func (s *stubTeacherDir) ListActive(_ context.Context, _ string) ([]models.Teacher, error) {
	return s.roster, nil
}

func (s *stubTeacherDir) ListQualifications(_ context.Context, _ string) ([]models.TeacherQualification, error) {
	return s.quals, nil
}

func (s *stubTeacherDir) ListUnavailability(_ context.Context, _ string) ([]models.TeacherAvailability, error) {
	return s.blocks, nil
}

type stubRoomDir struct {
	rooms []models.Room
	suit  []models.RoomSuitability
}

func (s *stubRoomDir) List(_ context.Context, _ string) ([]models.Room, error) {
	return s.rooms, nil
}

func (s *stubRoomDir) ListSuitability(_ context.Context, _ string) ([]models.RoomSuitability, error) {
	return s.suit, nil
}

type stubCache struct {
	entries  map[string][]byte
	patterns []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (s *stubCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *stubCache) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	// Pattern is always "timetable:{term}:*"; drop everything with the prefix.
	prefix := pattern[:len(pattern)-1]
	for key := range s.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.entries, key)
		}
	}
	return nil
}

type stubTermRepo struct {
	term *models.Term
}

func (s *stubTermRepo) FindByID(_ context.Context, id string) (*models.Term, error) {
	if s.term == nil || s.term.ID != id {
		return nil, sql.ErrNoRows
	}
	cp := *s.term
	return &cp, nil
}

type stubRequirementRepo struct {
	items []models.Requirement
}

func (s *stubRequirementRepo) ListByAcademicYear(_ context.Context, _, _ string) ([]models.Requirement, error) {
	return s.items, nil
}

type stubQueue struct {
	enqueued []jobs.Job
}

func (s *stubQueue) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}

type stubObserver struct {
	runs        int
	created     int
	unfulfilled int
}

func (s *stubObserver) ObserveGenerationRun(lessonsCreated, unfulfilled int, _ time.Duration) {
	s.runs++
	s.created += lessonsCreated
	s.unfulfilled += unfulfilled
}
