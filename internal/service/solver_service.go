package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/solver"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/events"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

// JobTypeSolve identifies solve runs on the background queue.
const JobTypeSolve = "timetable.solve"

type roomReader interface {
	List(ctx context.Context) ([]models.Room, error)
}

type teacherReader interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

type subjectReader interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type groupReader interface {
	List(ctx context.Context) ([]models.Group, error)
}

type timeslotReader interface {
	List(ctx context.Context) ([]models.Timeslot, error)
}

type scheduleWriter interface {
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type scheduleSolver interface {
	Solve(snap solver.Snapshot) (*solver.Result, error)
}

type jobDispatcher interface {
	TryEnqueue(job jobs.Job) error
	Pending() int
}

// SnapshotReaders groups the entity readers a solve loads from.
type SnapshotReaders struct {
	Rooms     roomReader
	Teachers  teacherReader
	Subjects  subjectReader
	Groups    groupReader
	Timeslots timeslotReader
}

// SolverServiceConfig governs run retention and caching.
type SolverServiceConfig struct {
	RunTTL         time.Duration
	ReportCacheTTL time.Duration
}

// SolverService loads a snapshot, runs the solver and persists the schedule.
// Runs are serialized so two solves never interleave their writes.
type SolverService struct {
	readers   SnapshotReaders
	schedules scheduleWriter
	tx        txProvider
	engine    scheduleSolver
	queue     jobDispatcher
	cache     *CacheService
	metrics   *MetricsService
	publisher events.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SolverServiceConfig

	runMu  sync.Mutex
	runs   *runStore
	latest struct {
		sync.RWMutex
		result *dto.SolveResult
	}
	now func() time.Time
}

// NewSolverService wires solver dependencies.
func NewSolverService(
	readers SnapshotReaders,
	schedules scheduleWriter,
	tx txProvider,
	engine scheduleSolver,
	queue jobDispatcher,
	cache *CacheService,
	metrics *MetricsService,
	publisher events.Publisher,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SolverServiceConfig,
) *SolverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if engine == nil {
		engine = solver.New(logger.Named("solver"))
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = time.Hour
	}
	if cfg.ReportCacheTTL <= 0 {
		cfg.ReportCacheTTL = 24 * time.Hour
	}
	return &SolverService{
		readers:   readers,
		schedules: schedules,
		tx:        tx,
		engine:    engine,
		queue:     queue,
		cache:     cache,
		metrics:   metrics,
		publisher: publisher,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		runs:      newRunStore(cfg.RunTTL),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LoadSnapshot reads every entity table and validates the rows.
func (s *SolverService) LoadSnapshot(ctx context.Context) (solver.Snapshot, error) {
	var snap solver.Snapshot
	var err error
	if snap.Rooms, err = s.readers.Rooms.List(ctx); err != nil {
		return snap, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	if snap.Teachers, err = s.readers.Teachers.List(ctx); err != nil {
		return snap, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	if snap.Subjects, err = s.readers.Subjects.List(ctx); err != nil {
		return snap, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	if snap.Groups, err = s.readers.Groups.List(ctx); err != nil {
		return snap, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	if snap.Timeslots, err = s.readers.Timeslots.List(ctx); err != nil {
		return snap, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	if err := s.validateSnapshot(snap); err != nil {
		return snap, err
	}
	return snap, nil
}

func (s *SolverService) validateSnapshot(snap solver.Snapshot) error {
	var problems []string
	check := func(kind string, id int64, v interface{}) {
		if err := s.validator.Struct(v); err != nil {
			problems = append(problems, fmt.Sprintf("%s %d: %s", kind, id, err.Error()))
		}
	}
	for _, r := range snap.Rooms {
		check("room", r.ID, r)
	}
	for _, t := range snap.Teachers {
		check("teacher", t.ID, t)
	}
	for _, sub := range snap.Subjects {
		check("subject", sub.ID, sub)
	}
	for _, g := range snap.Groups {
		check("group", g.ID, g)
	}
	for _, ts := range snap.Timeslots {
		check("timeslot", ts.ID, ts)
	}
	if len(problems) == 0 {
		return nil
	}
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "timetable data failed validation"), problems)
}

// Solve runs a blocking solve and replaces the persisted schedule.
func (s *SolverService) Solve(ctx context.Context) (*dto.SolveResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		s.metrics.ObserveSolve(OutcomeInvalid, time.Since(start))
		return nil, err
	}

	result, err := s.engine.Solve(snap)
	if err != nil {
		mapped, outcome := mapSolveError(err)
		s.metrics.ObserveSolve(outcome, time.Since(start))
		s.logger.Warn("timetable solve failed", zap.String("outcome", outcome), zap.Error(err))
		return nil, mapped
	}

	if err := s.persist(ctx, result.Entries); err != nil {
		s.metrics.ObserveSolve(OutcomePersist, time.Since(start))
		return nil, err
	}

	out := &dto.SolveResult{
		GeneratedAt: s.now(),
		Meetings:    result.Report.Meetings(),
		Degraded:    result.Report.Degraded(),
		Summary:     result.Report.String(),
		Groups:      result.Report.Groups,
		Stats:       result.Stats,
	}
	outcome := OutcomeSolved
	if out.Degraded {
		outcome = OutcomeDegraded
	}
	s.metrics.ObserveSolve(outcome, time.Since(start))
	s.metrics.ObserveSearch(len(result.Stats.Reductions), result.Stats.Backtracks, out.Meetings)

	s.latest.Lock()
	s.latest.result = out
	s.latest.Unlock()
	s.cache.Set(ctx, repository.CacheKeyLatestReport, out, s.cfg.ReportCacheTTL)

	if err := s.publisher.Publish(ctx, events.TypeScheduleGenerated, map[string]interface{}{
		"meetings":   out.Meetings,
		"degraded":   out.Degraded,
		"iterations": out.Stats.Iterations,
		"reductions": out.Stats.Reductions,
		"counts":     result.Report.Counts(),
	}); err != nil {
		s.logger.Warn("schedule event not published", zap.Error(err))
	}

	s.logger.Info("timetable generated",
		zap.Int("meetings", out.Meetings),
		zap.Bool("degraded", out.Degraded),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func (s *SolverService) persist(ctx context.Context, entries []models.ScheduleEntry) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to begin schedule transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.schedules.DeleteAll(ctx, tx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	if err = s.schedules.InsertBatch(ctx, tx, entries); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit schedule")
	}
	return nil
}

// mapSolveError converts solver errors into API errors and a metric outcome.
func mapSolveError(err error) (*appErrors.Error, string) {
	var structural *solver.StructuralInfeasibilityError
	switch {
	case errors.As(err, &structural):
		msg := strings.SplitN(structural.Report(), "\n", 2)[0]
		return appErrors.WithDetails(appErrors.Wrap(err, appErrors.ErrStructuralInfeasibility.Code, appErrors.ErrStructuralInfeasibility.Status, msg), structural.Groups), OutcomeStructural
	case errors.Is(err, solver.ErrTotalInfeasibility):
		return appErrors.Wrap(err, appErrors.ErrTotalInfeasibility.Code, appErrors.ErrTotalInfeasibility.Status, appErrors.ErrTotalInfeasibility.Message), OutcomeTotal
	case errors.Is(err, solver.ErrInvalidSnapshot):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()), OutcomeInvalid
	default:
		return appErrors.FromError(err), OutcomeInvalid
	}
}

// SolveAsync queues a solve on the background worker and returns the run handle.
func (s *SolverService) SolveAsync(ctx context.Context) (*dto.SolveRun, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background solving is not configured")
	}
	run := dto.SolveRun{ID: uuid.NewString(), Status: models.SolveRunQueued, QueuedAt: s.now()}
	s.saveRun(ctx, run)
	if err := s.queue.TryEnqueue(jobs.Job{ID: run.ID, Type: JobTypeSolve}); err != nil {
		s.runs.Delete(run.ID)
		s.cache.Invalidate(ctx, repository.RunCacheKey(run.ID))
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrSolverBusy.Code, appErrors.ErrSolverBusy.Status, appErrors.ErrSolverBusy.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue solve")
	}
	s.metrics.SetQueueDepth(s.queue.Pending())
	return &run, nil
}

// RunJob executes a queued solve and records its outcome. Solve failures are
// terminal for the run and are not returned, so the queue does not retry them.
func (s *SolverService) RunJob(ctx context.Context, job jobs.Job) error {
	if s.queue != nil {
		s.metrics.SetQueueDepth(s.queue.Pending())
	}
	run, ok := s.GetRunIfPresent(ctx, job.ID)
	if !ok {
		run = dto.SolveRun{ID: job.ID, QueuedAt: job.Enqueued}
	}
	started := s.now()
	run.Status = models.SolveRunRunning
	run.StartedAt = &started
	s.saveRun(ctx, run)

	result, err := s.Solve(ctx)
	finished := s.now()
	run.FinishedAt = &finished
	if err != nil {
		appErr := appErrors.FromError(err)
		failure := &dto.SolveFailure{Code: appErr.Code, Message: appErr.Message}
		if diags, ok := appErr.Details.([]solver.GroupDiagnostic); ok {
			failure.Diagnostics = diags
		}
		run.Status = models.SolveRunFailed
		run.Failure = failure
	} else {
		run.Status = models.SolveRunSucceeded
		run.Result = result
	}
	s.saveRun(ctx, run)
	s.logger.Info("background solve finished", zap.String("run_id", run.ID), zap.String("status", string(run.Status)))
	return nil
}

// GetRun returns an async run from memory or the shared cache.
func (s *SolverService) GetRun(ctx context.Context, id string) (*dto.SolveRun, error) {
	run, ok := s.GetRunIfPresent(ctx, id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "solve run not found")
	}
	return &run, nil
}

// GetRunIfPresent looks a run up without producing an error.
func (s *SolverService) GetRunIfPresent(ctx context.Context, id string) (dto.SolveRun, bool) {
	if run, ok := s.runs.Get(id); ok {
		return run, true
	}
	var run dto.SolveRun
	if s.cache.Get(ctx, repository.RunCacheKey(id), &run) {
		return run, true
	}
	return dto.SolveRun{}, false
}

func (s *SolverService) saveRun(ctx context.Context, run dto.SolveRun) {
	s.runs.Save(run)
	s.cache.Set(ctx, repository.RunCacheKey(run.ID), run, s.cfg.RunTTL)
}

// LatestReport returns the report of the last successful solve.
func (s *SolverService) LatestReport(ctx context.Context) (*dto.SolveResult, error) {
	s.latest.RLock()
	latest := s.latest.result
	s.latest.RUnlock()
	if latest != nil {
		return latest, nil
	}
	var cached dto.SolveResult
	if s.cache.Get(ctx, repository.CacheKeyLatestReport, &cached) {
		return &cached, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule has been generated yet")
}

// InvalidateLatest drops the cached report after the schedule changes outside a solve.
func (s *SolverService) InvalidateLatest(ctx context.Context) {
	s.latest.Lock()
	s.latest.result = nil
	s.latest.Unlock()
	s.cache.Invalidate(ctx, repository.CacheKeyLatestReport)
}

type runStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]storedRun
}

type storedRun struct {
	run     dto.SolveRun
	savedAt time.Time
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{
		ttl:   ttl,
		items: make(map[string]storedRun),
	}
}

func (s *runStore) Save(run dto.SolveRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, item := range s.items {
		if now.Sub(item.savedAt) > s.ttl {
			delete(s.items, id)
		}
	}
	s.items[run.ID] = storedRun{run: run, savedAt: now}
}

func (s *runStore) Get(id string) (dto.SolveRun, bool) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.SolveRun{}, false
	}
	if time.Since(item.savedAt) > s.ttl {
		s.Delete(id)
		return dto.SolveRun{}, false
	}
	return item.run, true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
