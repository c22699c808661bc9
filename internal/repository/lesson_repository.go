package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

const lessonColumns = "id, school_id, academic_year, term_id, class_section_id, subject_id, teacher_id, room_id, time_slot_id, status, created_at, updated_at"

const lessonDetailQuery = `SELECT l.id, l.school_id, l.academic_year, l.term_id, l.class_section_id, l.subject_id, l.teacher_id, l.room_id, l.time_slot_id, l.status, l.created_at, l.updated_at,
	s.name AS subject_name, t.short_name AS teacher_short_name, r.name AS room_name, c.name AS class_section_name,
	ts.day_of_week, ts.period_id
	FROM lessons l
	JOIN subjects s ON s.id = l.subject_id
	JOIN teachers t ON t.id = l.teacher_id
	JOIN rooms r ON r.id = l.room_id
	JOIN class_sections c ON c.id = l.class_section_id
	JOIN time_slots ts ON ts.id = l.time_slot_id
	WHERE l.school_id = $1 AND l.term_id = $2 AND l.status = 'SCHEDULED'`

// LessonRepository provides persistence for lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns lessons with optional filtering and pagination.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	base := "FROM lessons WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.ClassSectionID != "" {
		conditions = append(conditions, fmt.Sprintf("class_section_id = $%d", len(args)+1))
		args = append(args, filter.ClassSectionID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.TimeSlotID != "" {
		conditions = append(conditions, fmt.Sprintf("time_slot_id = $%d", len(args)+1))
		args = append(args, filter.TimeSlotID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"time_slot_id": true,
		"status":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", lessonColumns, base, sortBy, order, size, offset)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	return lessons, total, nil
}

// FindByID loads a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListActiveByTerm returns all scheduled lessons for a school/term pair. The
// generator seeds its used-slot sets from this snapshot so re-runs stay
// idempotent.
func (r *LessonRepository) ListActiveByTerm(ctx context.Context, schoolID, termID string) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE school_id = $1 AND term_id = $2 AND status = 'SCHEDULED'", lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, schoolID, termID); err != nil {
		return nil, fmt.Errorf("list active lessons by term: %w", err)
	}
	return lessons, nil
}

// ListActiveDetailByClass returns enriched scheduled lessons for one class.
func (r *LessonRepository) ListActiveDetailByClass(ctx context.Context, schoolID, termID, classSectionID string) ([]models.LessonDetail, error) {
	query := lessonDetailQuery + " AND l.class_section_id = $3 ORDER BY ts.day_of_week ASC, ts.period_order ASC"
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, schoolID, termID, classSectionID); err != nil {
		return nil, fmt.Errorf("list lesson detail by class: %w", err)
	}
	return lessons, nil
}

// ListActiveDetailByTeacher returns enriched scheduled lessons for one teacher.
func (r *LessonRepository) ListActiveDetailByTeacher(ctx context.Context, schoolID, termID, teacherID string) ([]models.LessonDetail, error) {
	query := lessonDetailQuery + " AND l.teacher_id = $3 ORDER BY ts.day_of_week ASC, ts.period_order ASC"
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, schoolID, termID, teacherID); err != nil {
		return nil, fmt.Errorf("list lesson detail by teacher: %w", err)
	}
	return lessons, nil
}

// ListActiveDetailByRoom returns enriched scheduled lessons for one room.
func (r *LessonRepository) ListActiveDetailByRoom(ctx context.Context, schoolID, termID, roomID string) ([]models.LessonDetail, error) {
	query := lessonDetailQuery + " AND l.room_id = $3 ORDER BY ts.day_of_week ASC, ts.period_order ASC"
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, schoolID, termID, roomID); err != nil {
		return nil, fmt.Errorf("list lesson detail by room: %w", err)
	}
	return lessons, nil
}

// Create stores a new lesson record.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.Status == "" {
		lesson.Status = models.LessonStatusScheduled
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, school_id, academic_year, term_id, class_section_id, subject_id, teacher_id, room_id, time_slot_id, status, created_at, updated_at)
		VALUES (:id, :school_id, :academic_year, :term_id, :class_section_id, :subject_id, :teacher_id, :room_id, :time_slot_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return mapLessonWriteError(err)
	}
	return nil
}

// BulkCreate inserts many lessons within one transaction guarded by a
// term-scoped advisory lock, so concurrent generator runs for the same term
// queue behind each other at the database as well.
func (r *LessonRepository) BulkCreate(ctx context.Context, schoolID, termID string, lessons []models.Lesson) (err error) {
	if len(lessons) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create lessons: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = acquireTermLock(ctx, tx, schoolID, termID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range lessons {
		payload := lessons[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.Status == "" {
			payload.Status = models.LessonStatusScheduled
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO lessons (id, school_id, academic_year, term_id, class_section_id, subject_id, teacher_id, room_id, time_slot_id, status, created_at, updated_at) VALUES (:id, :school_id, :academic_year, :term_id, :class_section_id, :subject_id, :teacher_id, :room_id, :time_slot_id, :status, :created_at, :updated_at)`, &payload); err != nil {
			err = mapLessonWriteError(err)
			return err
		}
		lessons[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create lessons: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of a lesson. The status predicate keeps
// cancelled rows immutable even when a racing writer slipped past the
// in-process checks; zero rows affected means the lesson is no longer
// SCHEDULED.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET teacher_id = :teacher_id, room_id = :room_id, time_slot_id = :time_slot_id, subject_id = :subject_id, updated_at = :updated_at WHERE id = :id AND status = 'SCHEDULED'`
	res, err := r.db.NamedExecContext(ctx, query, lesson)
	if err != nil {
		return mapLessonWriteError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.ErrInvalidStatusTransition
	}
	return nil
}

// UpdateStatus transitions a lesson out of SCHEDULED. The predicate makes the
// transition single-shot: a second concurrent cancel matches zero rows.
func (r *LessonRepository) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error {
	const query = `UPDATE lessons SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'SCHEDULED'`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.ErrInvalidStatusTransition
	}
	return nil
}

// DeleteByTerm removes every lesson for a school/term pair and reports the
// removed count.
func (r *LessonRepository) DeleteByTerm(ctx context.Context, schoolID, termID string) (count int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin clear lessons: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = acquireTermLock(ctx, tx, schoolID, termID); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE school_id = $1 AND term_id = $2`, schoolID, termID)
	if err != nil {
		err = fmt.Errorf("clear lessons by term: %w", err)
		return 0, err
	}
	count, err = res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("clear lessons rows affected: %w", err)
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear lessons: %w", err)
	}
	return count, nil
}

func acquireTermLock(ctx context.Context, tx *sqlx.Tx, schoolID, termID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, schoolID+"|"+termID); err != nil {
		return fmt.Errorf("acquire term advisory lock: %w", err)
	}
	return nil
}

// mapLessonWriteError translates unique-index violations from the partial
// indexes on active lessons into the matching typed conflict. The database is
// the authoritative guard against double-booking; the in-process validator
// only provides earlier, friendlier failures.
func mapLessonWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "teacher_slot"):
			return appErrors.Wrap(err, appErrors.ErrScheduleConflictTeacher.Code, appErrors.ErrScheduleConflictTeacher.Status, appErrors.ErrScheduleConflictTeacher.Message)
		case strings.Contains(pqErr.Constraint, "class_slot"):
			return appErrors.Wrap(err, appErrors.ErrScheduleConflictClass.Code, appErrors.ErrScheduleConflictClass.Status, appErrors.ErrScheduleConflictClass.Message)
		case strings.Contains(pqErr.Constraint, "room_slot"):
			return appErrors.Wrap(err, appErrors.ErrScheduleConflictRoom.Code, appErrors.ErrScheduleConflictRoom.Status, appErrors.ErrScheduleConflictRoom.Message)
		}
	}
	return fmt.Errorf("write lesson: %w", err)
}
