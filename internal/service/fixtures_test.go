package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type roomReaderStub struct {
	rooms []models.Room
	err   error
}

func (s roomReaderStub) List(context.Context) ([]models.Room, error) { return s.rooms, s.err }

type teacherReaderStub struct{ teachers []models.Teacher }

func (s teacherReaderStub) List(context.Context) ([]models.Teacher, error) { return s.teachers, nil }

type subjectReaderStub struct{ subjects []models.Subject }

func (s subjectReaderStub) List(context.Context) ([]models.Subject, error) { return s.subjects, nil }

type groupReaderStub struct{ groups []models.Group }

func (s groupReaderStub) List(context.Context) ([]models.Group, error) { return s.groups, nil }

type timeslotReaderStub struct {
	slots []models.Timeslot
}

func (s *timeslotReaderStub) List(context.Context) ([]models.Timeslot, error) { return s.slots, nil }

func weekTimeslots() []models.Timeslot {
	out := make([]models.Timeslot, 0, models.DaysPerWeek*models.SlotsPerDay)
	id := int64(1)
	for day := 0; day < models.DaysPerWeek; day++ {
		for slot := 0; slot < models.SlotsPerDay; slot++ {
			out = append(out, models.Timeslot{ID: id, Day: day, Slot: slot})
			id++
		}
	}
	return out
}

func fixtureReaders(groups []models.Group, rooms []models.Room) SnapshotReaders {
	if rooms == nil {
		rooms = []models.Room{
			{ID: 1, Name: "R101", Type: models.RoomTypeStandard, Capacity: 32},
			{ID: 2, Name: "Lab Fisika", Type: models.RoomTypeLab, Capacity: 30},
		}
	}
	if groups == nil {
		groups = []models.Group{
			{ID: 1, SubjectID: 1, TeacherID: 1, StudentCount: 30, FrequencyCount: 3},
			{ID: 2, SubjectID: 2, TeacherID: 2, StudentCount: 25, FrequencyCount: 2},
		}
	}
	return SnapshotReaders{
		Rooms:    roomReaderStub{rooms: rooms},
		Teachers: teacherReaderStub{teachers: []models.Teacher{{ID: 1, Name: "Bu Sari"}, {ID: 2, Name: "Pak Budi"}}},
		Subjects: subjectReaderStub{subjects: []models.Subject{
			{ID: 1, Name: "Matematika"},
			{ID: 2, Name: "Fisika", RequiresLab: true},
		}},
		Groups:    groupReaderStub{groups: groups},
		Timeslots: &timeslotReaderStub{slots: weekTimeslots()},
	}
}

type scheduleWriterStub struct {
	mu        sync.Mutex
	deleted   int
	inserted  []models.ScheduleEntry
	insertErr error
}

func (s *scheduleWriterStub) DeleteAll(context.Context, sqlx.ExtContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted++
	s.inserted = nil
	return nil
}

func (s *scheduleWriterStub) InsertBatch(_ context.Context, _ sqlx.ExtContext, entries []models.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for i := range entries {
		entries[i].ID = int64(len(s.inserted) + 1)
		s.inserted = append(s.inserted, entries[i])
	}
	return nil
}

type publishedEvent struct {
	eventType string
	payload   interface{}
}

type publisherStub struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *publisherStub) Publish(_ context.Context, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, payload: payload})
	return nil
}

func (p *publisherStub) Close() error { return nil }

func (p *publisherStub) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string]interface{})}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return copyVia(value, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *memoryCacheRepo) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

func copyVia(value, dest interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
