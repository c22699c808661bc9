package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-timetable-api/internal/models"
)

// RoomRepository reads the room roster and suitability relation.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms in roster order.
func (r *RoomRepository) List(ctx context.Context, schoolID string) ([]models.Room, error) {
	const query = `SELECT id, school_id, name, capacity, created_at, updated_at
		FROM rooms WHERE school_id = $1 ORDER BY created_at ASC, id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, schoolID); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListSuitability returns all room-subject suitability pairs for a school.
// Rooms without any pair are suitable for every subject.
func (r *RoomRepository) ListSuitability(ctx context.Context, schoolID string) ([]models.RoomSuitability, error) {
	const query = `SELECT s.room_id, s.subject_id FROM room_suitability s
		JOIN rooms r ON r.id = s.room_id WHERE r.school_id = $1`
	var pairs []models.RoomSuitability
	if err := r.db.SelectContext(ctx, &pairs, query, schoolID); err != nil {
		return nil, fmt.Errorf("list room suitability: %w", err)
	}
	return pairs, nil
}
