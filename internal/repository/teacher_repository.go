package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-timetable-api/internal/models"
)

// TeacherRepository reads the teacher roster and its scheduling relations.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListActive returns active teachers in roster order. Only active teachers
// participate in scheduling.
func (r *TeacherRepository) ListActive(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	const query = `SELECT id, school_id, full_name, short_name, email, active, created_at, updated_at
		FROM teachers WHERE school_id = $1 AND active = TRUE ORDER BY created_at ASC, id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, schoolID); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, school_id, full_name, short_name, email, active, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListQualifications returns all teacher-subject qualification pairs for a school.
func (r *TeacherRepository) ListQualifications(ctx context.Context, schoolID string) ([]models.TeacherQualification, error) {
	const query = `SELECT q.teacher_id, q.subject_id FROM teacher_qualifications q
		JOIN teachers t ON t.id = q.teacher_id WHERE t.school_id = $1`
	var pairs []models.TeacherQualification
	if err := r.db.SelectContext(ctx, &pairs, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teacher qualifications: %w", err)
	}
	return pairs, nil
}

// ListUnavailability returns the sparse set of blocked (teacher, day, period)
// triples for a school.
func (r *TeacherRepository) ListUnavailability(ctx context.Context, schoolID string) ([]models.TeacherAvailability, error) {
	const query = `SELECT a.teacher_id, a.day_of_week, a.period_id FROM teacher_availability a
		JOIN teachers t ON t.id = a.teacher_id WHERE t.school_id = $1`
	var entries []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &entries, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teacher unavailability: %w", err)
	}
	return entries, nil
}
