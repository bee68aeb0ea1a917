package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TeacherRepository reads teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns every teacher ordered by id.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, name FROM teachers ORDER BY id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}
