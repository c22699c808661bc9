package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-timetable-api/internal/models"
)

// RequirementRepository reads the weekly lesson requirement catalog.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository constructs a RequirementRepository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// ListByAcademicYear returns every requirement for a school and academic year
// in catalog order. The generator relies on this order being stable.
func (r *RequirementRepository) ListByAcademicYear(ctx context.Context, schoolID, academicYear string) ([]models.Requirement, error) {
	const query = `SELECT id, school_id, academic_year, class_section_id, subject_id, weekly_lessons_required, created_at, updated_at
		FROM requirements WHERE school_id = $1 AND academic_year = $2 ORDER BY created_at ASC, id ASC`
	var requirements []models.Requirement
	if err := r.db.SelectContext(ctx, &requirements, query, schoolID, academicYear); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return requirements, nil
}
