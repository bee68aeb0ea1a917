package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timeslotWriter interface {
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.Timeslot) error
}

type scheduleClearer interface {
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) error
}

type reportInvalidator interface {
	InvalidateLatest(ctx context.Context)
}

// TimeslotService maintains the weekly grid.
type TimeslotService struct {
	timeslots timeslotWriter
	schedules scheduleClearer
	tx        txProvider
	reports   reportInvalidator
	logger    *zap.Logger
}

// NewTimeslotService constructs a TimeslotService.
func NewTimeslotService(timeslots timeslotWriter, schedules scheduleClearer, tx txProvider, reports reportInvalidator, logger *zap.Logger) *TimeslotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeslotService{timeslots: timeslots, schedules: schedules, tx: tx, reports: reports, logger: logger}
}

// DefaultTimeslots returns the Monday to Friday grid of six periods in canonical order.
func DefaultTimeslots() []models.Timeslot {
	slots := make([]models.Timeslot, 0, models.DaysPerWeek*models.SlotsPerDay)
	for day := 0; day < models.DaysPerWeek; day++ {
		for slot := 0; slot < models.SlotsPerDay; slot++ {
			slots = append(slots, models.Timeslot{Day: day, Slot: slot})
		}
	}
	return slots
}

// GenerateDefaults replaces every timeslot with the default grid. Schedule
// entries reference timeslots, so the schedule is cleared in the same transaction.
func (s *TimeslotService) GenerateDefaults(ctx context.Context) (result *dto.TimeslotDefaultsResult, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.schedules.DeleteAll(ctx, tx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	if err = s.timeslots.DeleteAll(ctx, tx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	slots := DefaultTimeslots()
	if err = s.timeslots.InsertBatch(ctx, tx, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit timeslots")
	}

	if s.reports != nil {
		s.reports.InvalidateLatest(ctx)
	}
	s.logger.Info("default timeslots generated", zap.Int("count", len(slots)))
	return &dto.TimeslotDefaultsResult{Created: len(slots), Timeslots: slots}, nil
}
