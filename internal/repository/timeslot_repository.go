package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TimeslotRepository reads and regenerates the weekly grid.
type TimeslotRepository struct {
	db *sqlx.DB
}

// NewTimeslotRepository creates a timeslot repository.
func NewTimeslotRepository(db *sqlx.DB) *TimeslotRepository {
	return &TimeslotRepository{db: db}
}

// List returns timeslots in canonical order: day, then slot.
func (r *TimeslotRepository) List(ctx context.Context) ([]models.Timeslot, error) {
	const query = `SELECT id, day, slot FROM timeslots ORDER BY day ASC, slot ASC, id ASC`
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}
	return slots, nil
}

// DeleteAll removes every timeslot. Schedule entries must be cleared first.
func (r *TimeslotRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM timeslots`); err != nil {
		return fmt.Errorf("delete timeslots: %w", err)
	}
	return nil
}

// InsertBatch stores the given cells and fills in their generated ids.
func (r *TimeslotRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.Timeslot) error {
	const query = `INSERT INTO timeslots (day, slot) VALUES ($1, $2) RETURNING id`
	for i := range slots {
		if err := exec.QueryRowxContext(ctx, query, slots[i].Day, slots[i].Slot).Scan(&slots[i].ID); err != nil {
			return fmt.Errorf("insert timeslot day %d slot %d: %w", slots[i].Day, slots[i].Slot, err)
		}
	}
	return nil
}
