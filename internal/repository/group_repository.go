package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// GroupRepository reads class groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a group repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns every group ordered by id. A NULL frequency counts as zero meetings.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	const query = `SELECT id, subject_id, teacher_id, student_count, COALESCE(frequency_count, 0) AS frequency_count FROM class_groups ORDER BY id ASC`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}
