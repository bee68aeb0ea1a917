package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestEntityRepositoriesList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type, capacity FROM rooms ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "capacity"}).
			AddRow(1, "R101", "standard", 32).
			AddRow(2, "Lab Kimia", " LAB ", 30).
			AddRow(3, "Aula", "Auditorium", 200).
			AddRow(4, "Lapangan", "field", 60))
	rooms, err := NewRoomRepository(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 4)
	assert.True(t, rooms[1].IsLab())
	assert.Equal(t, models.RoomTypeLab, rooms[1].Type)
	assert.Equal(t, models.RoomTypeAuditorium, rooms[2].Type)
	assert.Equal(t, models.RoomType("field"), rooms[3].Type)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM teachers ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Bu Sari"))
	teachers, err := NewTeacherRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Teacher{{ID: 1, Name: "Bu Sari"}}, teachers)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, requires_lab FROM subjects ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "requires_lab"}).AddRow(1, "Kimia", true))
	subjects, err := NewSubjectRepository(db).List(ctx)
	require.NoError(t, err)
	assert.True(t, subjects[0].RequiresLab)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(frequency_count, 0) AS frequency_count FROM class_groups ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "teacher_id", "student_count", "frequency_count"}).AddRow(3, 1, 1, 28, 0))
	groups, err := NewGroupRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, groups[0].FrequencyCount)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, slot FROM timeslots ORDER BY day ASC, slot ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "day", "slot"}).AddRow(1, 0, 0).AddRow(2, 0, 1))
	slots, err := NewTimeslotRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryRegenerate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timeslots")).WillReturnResult(sqlmock.NewResult(0, 30))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO timeslots (day, slot) VALUES ($1, $2) RETURNING id")).
		WithArgs(0, 0).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO timeslots")).
		WithArgs(0, 1).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(102))

	require.NoError(t, repo.DeleteAll(context.Background(), db))
	slots := []models.Timeslot{{Day: 0, Slot: 0}, {Day: 0, Slot: 1}}
	require.NoError(t, repo.InsertBatch(context.Background(), db, slots))
	assert.Equal(t, int64(101), slots[0].ID)
	assert.Equal(t, int64(102), slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
