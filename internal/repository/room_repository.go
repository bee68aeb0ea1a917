// Package repository reads and writes timetable entities with sqlx.
//
// Tables: rooms, teachers, subjects, class_groups, timeslots and
// schedule_entries. The schema is owned by the school's data entry tool;
// this service only reads the entity tables and rewrites schedule_entries
// and timeslots.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// RoomRepository reads rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns every room ordered by id. Known room types are normalised;
// unknown ones are returned as stored so snapshot validation can reject them.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, type, capacity FROM rooms ORDER BY id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	for i := range rooms {
		if roomType, ok := models.ParseRoomType(string(rooms[i].Type)); ok {
			rooms[i].Type = roomType
		}
	}
	return rooms, nil
}
