package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-timetable-api/internal/models"
)

// TimeSlotRepository reads the weekly slot catalog for a period set.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs a TimeSlotRepository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// FindPeriodSet loads a period set by id.
func (r *TimeSlotRepository) FindPeriodSet(ctx context.Context, id string) (*models.PeriodSet, error) {
	const query = `SELECT id, school_id, academic_year, name, created_at, updated_at FROM period_sets WHERE id = $1`
	var set models.PeriodSet
	if err := r.db.GetContext(ctx, &set, query, id); err != nil {
		return nil, err
	}
	return &set, nil
}

// ListSchedulable returns the non-break slots of a period set ordered by day
// then period order. Break periods never enter the catalog handed to the
// scheduler or validator.
func (r *TimeSlotRepository) ListSchedulable(ctx context.Context, periodSetID string) ([]models.TimeSlot, error) {
	const query = `SELECT ts.id, ts.period_set_id, ts.day_of_week, ts.period_id, p.order_index AS period_order
		FROM time_slots ts
		JOIN periods p ON p.id = ts.period_id
		WHERE ts.period_set_id = $1 AND p.is_break = FALSE
		ORDER BY ts.day_of_week ASC, p.order_index ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, periodSetID); err != nil {
		return nil, fmt.Errorf("list schedulable time slots: %w", err)
	}
	return slots, nil
}

// FindByID loads a single time slot with its period order.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	const query = `SELECT ts.id, ts.period_set_id, ts.day_of_week, ts.period_id, p.order_index AS period_order
		FROM time_slots ts JOIN periods p ON p.id = ts.period_id WHERE ts.id = $1`
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}
