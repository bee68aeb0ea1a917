package service

import (
	"bytes"
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/events"
)

type detailStoreStub struct {
	details []models.ScheduleEntryDetail
	updates map[int64]int64
}

func (s *detailStoreStub) ListDetails(_ context.Context, _ sqlx.ExtContext, filter models.ScheduleFilter) ([]models.ScheduleEntryDetail, error) {
	out := make([]models.ScheduleEntryDetail, 0, len(s.details))
	for _, d := range s.details {
		if matchesFilter(d, filter) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *detailStoreStub) UpdateTimeslot(_ context.Context, _ sqlx.ExtContext, entryID, timeslotID int64) error {
	if s.updates == nil {
		s.updates = make(map[int64]int64)
	}
	s.updates[entryID] = timeslotID
	return nil
}

func detail(entryID, groupID, teacherID, roomID int64, day, slot int) models.ScheduleEntryDetail {
	subjects := map[int64]string{1: "Matematika", 2: "Fisika"}
	teachers := map[int64]string{1: "Bu Sari", 2: "Pak Budi"}
	rooms := map[int64]string{1: "R101", 2: "Lab Fisika"}
	return models.ScheduleEntryDetail{
		EntryID:     entryID,
		GroupID:     groupID,
		RoomID:      roomID,
		RoomName:    rooms[roomID],
		SubjectName: subjects[groupID],
		TeacherID:   teacherID,
		TeacherName: teachers[teacherID],
		TimeslotID:  int64(day*models.SlotsPerDay + slot + 1),
		Day:         day,
		Slot:        slot,
	}
}

func newScheduleFixture(t *testing.T) (*ScheduleService, *detailStoreStub, *publisherStub, sqlmock.Sqlmock) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	store := &detailStoreStub{details: []models.ScheduleEntryDetail{
		detail(1, 1, 1, 1, 0, 0),
		detail(2, 2, 2, 1, 0, 1),
		detail(3, 1, 1, 1, 0, 2),
	}}
	publisher := &publisherStub{}
	svc := NewScheduleService(store, &timeslotReaderStub{slots: weekTimeslots()}, tx, publisher, nil, nil, nil, zap.NewNop(), ScheduleServiceConfig{ExportTitle: "Jadwal Pelajaran"})
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return svc, store, publisher, mock
}

func TestScheduleServiceGridFull(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	grid, err := svc.Grid(context.Background(), dto.ScheduleQuery{})
	require.NoError(t, err)

	assert.Equal(t, models.ScheduleViewFull, grid.View)
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, grid.Days)
	require.Len(t, grid.Cells, models.SlotsPerDay)
	require.Len(t, grid.Cells[0], models.DaysPerWeek)
	assert.Equal(t, 3, grid.Total)

	first := grid.Cells[0][0]
	assert.Equal(t, int64(1), first.TimeslotID)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, "Group 1 (Matematika) - Bu Sari @ R101", first.Entries[0].Label)
	assert.Empty(t, grid.Cells[5][4].Entries)
	assert.Equal(t, int64(30), grid.Cells[5][4].TimeslotID)
}

func TestScheduleServiceGridFilteredByTeacher(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	grid, err := svc.Grid(context.Background(), dto.ScheduleQuery{View: models.ScheduleViewTeacher, Value: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, grid.Total)
	require.Len(t, grid.Cells[1][0].Entries, 1)
	assert.Equal(t, int64(2), grid.Cells[1][0].Entries[0].GroupID)
}

func TestScheduleServiceGridRequiresValue(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	_, err := svc.Grid(context.Background(), dto.ScheduleQuery{View: models.ScheduleViewRoom})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceSwapWithinRoom(t *testing.T) {
	svc, store, publisher, mock := newScheduleFixture(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.Swap(context.Background(), dto.SwapRequest{
		View:  models.ScheduleViewRoom,
		Value: 1,
		From:  dto.SlotRef{Day: 0, Slot: 0},
		To:    dto.SlotRef{Day: 0, Slot: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Moved, 2)
	assert.Equal(t, map[int64]int64{1: 2, 2: 1}, store.updates)
	assert.Equal(t, []string{events.TypeScheduleSwapped}, publisher.types())
}

func TestScheduleServiceSwapIntoEmptyCell(t *testing.T) {
	svc, store, _, mock := newScheduleFixture(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.Swap(context.Background(), dto.SwapRequest{
		View:  models.ScheduleViewGroup,
		Value: 1,
		From:  dto.SlotRef{Day: 0, Slot: 0},
		To:    dto.SlotRef{Day: 3, Slot: 5},
	})
	require.NoError(t, err)
	require.Len(t, res.Moved, 1)
	assert.Equal(t, int64(24), res.Moved[0].ToTimeslotID)
	assert.Equal(t, map[int64]int64{1: 24}, store.updates)
}

func TestScheduleServiceSwapRejectsDoubleBooking(t *testing.T) {
	svc, store, publisher, mock := newScheduleFixture(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Swap(context.Background(), dto.SwapRequest{
		View:  models.ScheduleViewGroup,
		Value: 1,
		From:  dto.SlotRef{Day: 0, Slot: 0},
		To:    dto.SlotRef{Day: 0, Slot: 1},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	conflicts, ok := appErr.Details.([]models.ScheduleConflict)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "room", conflicts[0].Dimension)
	assert.Equal(t, int64(2), conflicts[0].TimeslotID)
	assert.ElementsMatch(t, []int64{1, 2}, conflicts[0].GroupIDs)
	assert.Contains(t, conflicts[0].Message, "day 0 slot 1")
	assert.Empty(t, store.updates)
	assert.Empty(t, publisher.types())
}

func TestScheduleServiceSwapRejectsSameCell(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	_, err := svc.Swap(context.Background(), dto.SwapRequest{
		View:  models.ScheduleViewGroup,
		Value: 1,
		From:  dto.SlotRef{Day: 2, Slot: 2},
		To:    dto.SlotRef{Day: 2, Slot: 2},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceSwapRejectsFullView(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	_, err := svc.Swap(context.Background(), dto.SwapRequest{
		View: models.ScheduleViewFull,
		From: dto.SlotRef{Day: 0, Slot: 0},
		To:   dto.SlotRef{Day: 0, Slot: 1},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDetectConflictsReportsTeacherClash(t *testing.T) {
	entries := []models.ScheduleEntryDetail{
		detail(1, 1, 1, 1, 1, 3),
		detail(2, 2, 1, 2, 1, 3),
	}
	conflicts := detectConflicts(entries)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "teacher", conflicts[0].Dimension)
}

func TestScheduleServiceExportCSV(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	file, err := svc.Export(context.Background(), dto.ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "timetable-full.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	body := string(file.Body)
	assert.Contains(t, body, "Day,Slot,Group,Subject,Teacher,Room\n")
	assert.Contains(t, body, "Monday,1,1,Matematika,Bu Sari,R101\n")
	assert.Contains(t, body, "Monday,2,2,Fisika,Pak Budi,R101\n")
}

func TestScheduleServiceExportPDF(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: "pdf", View: models.ScheduleViewGroup, Value: 1})
	require.NoError(t, err)
	assert.Equal(t, "timetable-group-1.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestScheduleServiceExportRejectsUnknownFormat(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	_, err := svc.Export(context.Background(), dto.ExportQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
