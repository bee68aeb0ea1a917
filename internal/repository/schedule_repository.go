package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const scheduleDetailSelect = `SELECT se.id AS entry_id, se.group_id, se.room_id, r.name AS room_name, s.name AS subject_name,
	g.teacher_id, t.name AS teacher_name, se.timeslot_id, ts.day, ts.slot
FROM schedule_entries se
JOIN class_groups g ON g.id = se.group_id
JOIN rooms r ON r.id = se.room_id
JOIN timeslots ts ON ts.id = se.timeslot_id
JOIN subjects s ON s.id = g.subject_id
JOIN teachers t ON t.id = g.teacher_id`

// ScheduleRepository persists generated schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteAll clears the persisted schedule.
func (r *ScheduleRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM schedule_entries`); err != nil {
		return fmt.Errorf("delete schedule entries: %w", err)
	}
	return nil
}

// InsertBatch stores entries and fills in their generated ids.
func (r *ScheduleRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error {
	const query = `INSERT INTO schedule_entries (group_id, room_id, timeslot_id) VALUES ($1, $2, $3) RETURNING id`
	target := r.exec(exec)
	for i := range entries {
		row := target.QueryRowxContext(ctx, query, entries[i].GroupID, entries[i].RoomID, entries[i].TimeslotID)
		if err := row.Scan(&entries[i].ID); err != nil {
			return fmt.Errorf("insert schedule entry for group %d: %w", entries[i].GroupID, err)
		}
	}
	return nil
}

// ListDetails returns entries joined with display data, optionally narrowed to
// one group, teacher or room, ordered by day, slot and room.
func (r *ScheduleRepository) ListDetails(ctx context.Context, exec sqlx.ExtContext, filter models.ScheduleFilter) ([]models.ScheduleEntryDetail, error) {
	query := scheduleDetailSelect
	var args []interface{}
	switch filter.View {
	case models.ScheduleViewGroup:
		query += " WHERE se.group_id = $1"
		args = append(args, filter.ID)
	case models.ScheduleViewTeacher:
		query += " WHERE g.teacher_id = $1"
		args = append(args, filter.ID)
	case models.ScheduleViewRoom:
		query += " WHERE se.room_id = $1"
		args = append(args, filter.ID)
	}
	query += " ORDER BY ts.day ASC, ts.slot ASC, se.room_id ASC, se.group_id ASC"

	var details []models.ScheduleEntryDetail
	if err := sqlx.SelectContext(ctx, r.exec(exec), &details, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule details: %w", err)
	}
	return details, nil
}

// UpdateTimeslot moves one entry to another timeslot.
func (r *ScheduleRepository) UpdateTimeslot(ctx context.Context, exec sqlx.ExtContext, entryID, timeslotID int64) error {
	res, err := r.exec(exec).ExecContext(ctx, `UPDATE schedule_entries SET timeslot_id = $1 WHERE id = $2`, timeslotID, entryID)
	if err != nil {
		return fmt.Errorf("move schedule entry %d: %w", entryID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("move schedule entry %d: no rows updated", entryID)
	}
	return nil
}
