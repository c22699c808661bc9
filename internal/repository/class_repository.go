package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-timetable-api/internal/models"
)

// ClassSectionRepository reads the class section roster.
type ClassSectionRepository struct {
	db *sqlx.DB
}

// NewClassSectionRepository constructs a ClassSectionRepository.
func NewClassSectionRepository(db *sqlx.DB) *ClassSectionRepository {
	return &ClassSectionRepository{db: db}
}

// List returns class sections in roster order.
func (r *ClassSectionRepository) List(ctx context.Context, schoolID string) ([]models.ClassSection, error) {
	const query = `SELECT id, school_id, name, grade, created_at, updated_at
		FROM class_sections WHERE school_id = $1 ORDER BY created_at ASC, id ASC`
	var sections []models.ClassSection
	if err := r.db.SelectContext(ctx, &sections, query, schoolID); err != nil {
		return nil, fmt.Errorf("list class sections: %w", err)
	}
	return sections, nil
}

// FindByID loads a class section by id.
func (r *ClassSectionRepository) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	const query = `SELECT id, school_id, name, grade, created_at, updated_at FROM class_sections WHERE id = $1`
	var section models.ClassSection
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}
