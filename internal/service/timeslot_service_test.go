package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timeslotWriterStub struct {
	calls     []string
	insertErr error
}

func (s *timeslotWriterStub) DeleteAll(context.Context, sqlx.ExtContext) error {
	s.calls = append(s.calls, "timeslots.delete")
	return nil
}

func (s *timeslotWriterStub) InsertBatch(_ context.Context, _ sqlx.ExtContext, slots []models.Timeslot) error {
	s.calls = append(s.calls, "timeslots.insert")
	if s.insertErr != nil {
		return s.insertErr
	}
	for i := range slots {
		slots[i].ID = int64(100 + i)
	}
	return nil
}

type scheduleClearerStub struct {
	calls *[]string
}

func (s scheduleClearerStub) DeleteAll(context.Context, sqlx.ExtContext) error {
	*s.calls = append(*s.calls, "schedule.delete")
	return nil
}

type invalidatorStub struct{ calls int }

func (s *invalidatorStub) InvalidateLatest(context.Context) { s.calls++ }

func TestDefaultTimeslotsCanonicalOrder(t *testing.T) {
	slots := DefaultTimeslots()
	require.Len(t, slots, 30)
	assert.Equal(t, models.Timeslot{Day: 0, Slot: 0}, slots[0])
	assert.Equal(t, models.Timeslot{Day: 0, Slot: 5}, slots[5])
	assert.Equal(t, models.Timeslot{Day: 1, Slot: 0}, slots[6])
	assert.Equal(t, models.Timeslot{Day: 4, Slot: 5}, slots[29])
}

func TestTimeslotServiceGenerateDefaults(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	writer := &timeslotWriterStub{}
	invalidator := &invalidatorStub{}
	svc := NewTimeslotService(writer, scheduleClearerStub{calls: &writer.calls}, tx, invalidator, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.GenerateDefaults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, res.Created)
	assert.Equal(t, int64(100), res.Timeslots[0].ID)
	assert.Equal(t, []string{"schedule.delete", "timeslots.delete", "timeslots.insert"}, writer.calls)
	assert.Equal(t, 1, invalidator.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotServiceGenerateDefaultsRollsBack(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	writer := &timeslotWriterStub{insertErr: errors.New("unique violation")}
	invalidator := &invalidatorStub{}
	svc := NewTimeslotService(writer, scheduleClearerStub{calls: &writer.calls}, tx, invalidator, nil)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.GenerateDefaults(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)
	assert.Zero(t, invalidator.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}
