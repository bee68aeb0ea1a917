package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/events"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

type scheduleDetailStore interface {
	ListDetails(ctx context.Context, exec sqlx.ExtContext, filter models.ScheduleFilter) ([]models.ScheduleEntryDetail, error)
	UpdateTimeslot(ctx context.Context, exec sqlx.ExtContext, entryID, timeslotID int64) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(grid export.Grid, title, subtitle string) ([]byte, error)
}

// ScheduleServiceConfig customises exports.
type ScheduleServiceConfig struct {
	ExportTitle string
}

// ScheduleService renders and edits the persisted timetable.
type ScheduleService struct {
	schedules scheduleDetailStore
	timeslots timeslotReader
	tx        txProvider
	publisher events.Publisher
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleServiceConfig
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(
	schedules scheduleDetailStore,
	timeslots timeslotReader,
	tx txProvider,
	publisher events.Publisher,
	csv csvRenderer,
	pdf pdfRenderer,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleServiceConfig,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if csv == nil {
		csv = export.NewCSVExporter(',')
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.ExportTitle == "" {
		cfg.ExportTitle = "Timetable"
	}
	return &ScheduleService{
		schedules: schedules,
		timeslots: timeslots,
		tx:        tx,
		publisher: publisher,
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

func (s *ScheduleService) filterFor(view models.ScheduleView, value int64) (models.ScheduleFilter, error) {
	if view == "" {
		view = models.ScheduleViewFull
	}
	if view != models.ScheduleViewFull && value <= 0 {
		return models.ScheduleFilter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("value is required for the %s view", view))
	}
	if view == models.ScheduleViewFull {
		value = 0
	}
	return models.ScheduleFilter{View: view, ID: value}, nil
}

// Grid returns the weekly grid for the requested view.
func (s *ScheduleService) Grid(ctx context.Context, query dto.ScheduleQuery) (*dto.ScheduleGrid, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}
	filter, err := s.filterFor(query.View, query.Value)
	if err != nil {
		return nil, err
	}
	slots, err := s.timeslots.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	details, err := s.schedules.ListDetails(ctx, nil, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return buildGrid(filter, slots, details), nil
}

func buildGrid(filter models.ScheduleFilter, slots []models.Timeslot, details []models.ScheduleEntryDetail) *dto.ScheduleGrid {
	grid := &dto.ScheduleGrid{
		View:  filter.View,
		Value: filter.ID,
		Days:  make([]string, models.DaysPerWeek),
		Cells: make([][]dto.GridCell, models.SlotsPerDay),
		Total: len(details),
	}
	for day := range grid.Days {
		grid.Days[day] = models.DayName(day)
	}
	for slot := range grid.Cells {
		grid.Cells[slot] = make([]dto.GridCell, models.DaysPerWeek)
		for day := range grid.Cells[slot] {
			grid.Cells[slot][day] = dto.GridCell{Day: day, Slot: slot, Entries: []dto.GridEntry{}}
		}
	}
	for _, ts := range slots {
		if inGrid(ts.Day, ts.Slot) && grid.Cells[ts.Slot][ts.Day].TimeslotID == 0 {
			grid.Cells[ts.Slot][ts.Day].TimeslotID = ts.ID
		}
	}
	for _, d := range details {
		if !inGrid(d.Day, d.Slot) {
			continue
		}
		cell := &grid.Cells[d.Slot][d.Day]
		cell.Entries = append(cell.Entries, dto.GridEntry{
			EntryID:     d.EntryID,
			GroupID:     d.GroupID,
			SubjectName: d.SubjectName,
			TeacherName: d.TeacherName,
			RoomName:    d.RoomName,
			Label:       entryLabel(d),
		})
	}
	return grid
}

func inGrid(day, slot int) bool {
	return day >= 0 && day < models.DaysPerWeek && slot >= 0 && slot < models.SlotsPerDay
}

func entryLabel(d models.ScheduleEntryDetail) string {
	return fmt.Sprintf("Group %d (%s) - %s @ %s", d.GroupID, d.SubjectName, d.TeacherName, d.RoomName)
}

// Swap exchanges the entries of two cells within a group, teacher or room view.
// The resulting schedule must keep every room, teacher and group to one
// meeting per timeslot, otherwise nothing is written.
func (s *ScheduleService) Swap(ctx context.Context, req dto.SwapRequest) (result *dto.SwapResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap request")
	}
	if req.From == req.To {
		return nil, appErrors.Clone(appErrors.ErrValidation, "swap cells must differ")
	}
	filter, err := s.filterFor(req.View, req.Value)
	if err != nil {
		return nil, err
	}

	slots, err := s.timeslots.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	fromID, ok := timeslotAt(slots, req.From)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no timeslot at day %d slot %d", req.From.Day, req.From.Slot))
	}
	toID, ok := timeslotAt(slots, req.To)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no timeslot at day %d slot %d", req.To.Day, req.To.Slot))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	all, err := s.schedules.ListDetails(ctx, tx, models.ScheduleFilter{View: models.ScheduleViewFull})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	moved := make([]dto.MovedEntry, 0)
	after := make([]models.ScheduleEntryDetail, len(all))
	copy(after, all)
	for i := range after {
		entry := &after[i]
		if !matchesFilter(*entry, filter) {
			continue
		}
		var target int64
		var cell dto.SlotRef
		switch entry.TimeslotID {
		case fromID:
			target, cell = toID, req.To
		case toID:
			target, cell = fromID, req.From
		default:
			continue
		}
		moved = append(moved, dto.MovedEntry{EntryID: entry.EntryID, GroupID: entry.GroupID, FromTimeslotID: entry.TimeslotID, ToTimeslotID: target})
		entry.TimeslotID, entry.Day, entry.Slot = target, cell.Day, cell.Slot
	}
	if len(moved) == 0 {
		_ = tx.Rollback()
		return &dto.SwapResult{Moved: moved}, nil
	}

	if conflicts := detectConflicts(after); len(conflicts) > 0 {
		conflictErr := &models.ScheduleConflictError{Message: "swap would double-book the timetable", Conflicts: conflicts}
		err = appErrors.WithDetails(appErrors.Wrap(conflictErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictErr.Message), conflicts)
		return nil, err
	}

	for _, m := range moved {
		if err = s.schedules.UpdateTimeslot(ctx, tx, m.EntryID, m.ToTimeslotID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit swap")
	}

	if pubErr := s.publisher.Publish(ctx, events.TypeScheduleSwapped, map[string]interface{}{
		"view":  filter.View,
		"value": filter.ID,
		"from":  req.From,
		"to":    req.To,
		"moved": moved,
	}); pubErr != nil {
		s.logger.Warn("swap event not published", zap.Error(pubErr))
	}
	s.logger.Info("schedule cells swapped",
		zap.String("view", string(filter.View)),
		zap.Int64("value", filter.ID),
		zap.Int("moved", len(moved)),
	)
	return &dto.SwapResult{Moved: moved}, nil
}

func timeslotAt(slots []models.Timeslot, ref dto.SlotRef) (int64, bool) {
	ts, ok := lo.Find(slots, func(ts models.Timeslot) bool {
		return ts.Day == ref.Day && ts.Slot == ref.Slot
	})
	return ts.ID, ok
}

func matchesFilter(d models.ScheduleEntryDetail, filter models.ScheduleFilter) bool {
	switch filter.View {
	case models.ScheduleViewGroup:
		return d.GroupID == filter.ID
	case models.ScheduleViewTeacher:
		return d.TeacherID == filter.ID
	case models.ScheduleViewRoom:
		return d.RoomID == filter.ID
	default:
		return true
	}
}

// detectConflicts reports every timeslot where a room, teacher or group holds
// more than one meeting.
func detectConflicts(entries []models.ScheduleEntryDetail) []models.ScheduleConflict {
	byTimeslot := lo.GroupBy(entries, func(d models.ScheduleEntryDetail) int64 { return d.TimeslotID })
	timeslotIDs := lo.Keys(byTimeslot)
	sort.Slice(timeslotIDs, func(i, j int) bool { return timeslotIDs[i] < timeslotIDs[j] })

	var conflicts []models.ScheduleConflict
	for _, tsID := range timeslotIDs {
		cell := byTimeslot[tsID]
		dimensions := []struct {
			name string
			key  func(models.ScheduleEntryDetail) int64
		}{
			{"room", func(d models.ScheduleEntryDetail) int64 { return d.RoomID }},
			{"teacher", func(d models.ScheduleEntryDetail) int64 { return d.TeacherID }},
			{"group", func(d models.ScheduleEntryDetail) int64 { return d.GroupID }},
		}
		for _, dim := range dimensions {
			grouped := lo.GroupBy(cell, dim.key)
			keys := lo.Keys(grouped)
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			for _, key := range keys {
				clashing := grouped[key]
				if len(clashing) < 2 {
					continue
				}
				groupIDs := lo.Map(clashing, func(d models.ScheduleEntryDetail, _ int) int64 { return d.GroupID })
				conflicts = append(conflicts, models.ScheduleConflict{
					Dimension:  dim.name,
					TimeslotID: tsID,
					GroupIDs:   groupIDs,
					Message:    fmt.Sprintf("%s %d is booked %d times at day %d slot %d", dim.name, key, len(clashing), clashing[0].Day, clashing[0].Slot),
				})
			}
		}
	}
	return conflicts
}

// Export renders the schedule as CSV or PDF.
func (s *ScheduleService) Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	filter, err := s.filterFor(query.View, query.Value)
	if err != nil {
		return nil, err
	}
	format := query.Format
	if format == "" {
		format = "csv"
	}
	base := "timetable-" + string(filter.View)
	if filter.ID > 0 {
		base += "-" + strconv.FormatInt(filter.ID, 10)
	}

	switch format {
	case "pdf":
		grid, err := s.Grid(ctx, dto.ScheduleQuery{View: filter.View, Value: filter.ID})
		if err != nil {
			return nil, err
		}
		body, err := s.pdf.Render(pdfGrid(grid), s.cfg.ExportTitle, viewSubtitle(filter))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &dto.ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		details, err := s.schedules.ListDetails(ctx, nil, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
		}
		body, err := s.csv.Render(csvDataset(details))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.ExportFile{Filename: base + ".csv", ContentType: "text/csv", Body: body}, nil
	}
}

var csvHeaders = []string{"Day", "Slot", "Group", "Subject", "Teacher", "Room"}

func csvDataset(details []models.ScheduleEntryDetail) export.Dataset {
	rows := lo.Map(details, func(d models.ScheduleEntryDetail, _ int) map[string]string {
		return map[string]string{
			"Day":     models.DayName(d.Day),
			"Slot":    strconv.Itoa(d.Slot + 1),
			"Group":   strconv.FormatInt(d.GroupID, 10),
			"Subject": d.SubjectName,
			"Teacher": d.TeacherName,
			"Room":    d.RoomName,
		}
	})
	return export.Dataset{Headers: csvHeaders, Rows: rows}
}

func pdfGrid(grid *dto.ScheduleGrid) export.Grid {
	out := export.Grid{
		Columns: grid.Days,
		Rows:    make([]string, len(grid.Cells)),
		Cells:   make([][][]string, len(grid.Cells)),
	}
	for slot, row := range grid.Cells {
		out.Rows[slot] = "Slot " + strconv.Itoa(slot+1)
		out.Cells[slot] = make([][]string, len(row))
		for day, cell := range row {
			out.Cells[slot][day] = lo.Map(cell.Entries, func(e dto.GridEntry, _ int) string { return e.Label })
		}
	}
	return out
}

func viewSubtitle(filter models.ScheduleFilter) string {
	if filter.View == models.ScheduleViewFull {
		return "Full schedule"
	}
	return fmt.Sprintf("%s %d", titleCase(string(filter.View)), filter.ID)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
