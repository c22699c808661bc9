package models

import "time"

// Room represents a teaching room.
type Room struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomSuitability restricts a room to a subject. A room with no suitability
// rows accepts any subject.
type RoomSuitability struct {
	RoomID    string `db:"room_id" json:"room_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}
