package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/solver"
)

// SolveResult summarises a successful solve.
type SolveResult struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Meetings    int                  `json:"meetings"`
	Degraded    bool                 `json:"degraded"`
	Summary     string               `json:"summary"`
	Groups      []solver.GroupReport `json:"groups"`
	Stats       solver.Stats         `json:"stats"`
}

// SolveFailure carries the typed error of a failed run.
type SolveFailure struct {
	Code        string                   `json:"code"`
	Message     string                   `json:"message"`
	Diagnostics []solver.GroupDiagnostic `json:"diagnostics,omitempty"`
}

// SolveRun tracks an asynchronous solve request.
type SolveRun struct {
	ID         string                `json:"id"`
	Status     models.SolveRunStatus `json:"status"`
	QueuedAt   time.Time             `json:"queuedAt"`
	StartedAt  *time.Time            `json:"startedAt,omitempty"`
	FinishedAt *time.Time            `json:"finishedAt,omitempty"`
	Result     *SolveResult          `json:"result,omitempty"`
	Failure    *SolveFailure         `json:"failure,omitempty"`
}

// ScheduleQuery selects a schedule view. Value is required for every view but full.
type ScheduleQuery struct {
	View  models.ScheduleView `form:"view" json:"view" validate:"omitempty,oneof=full group teacher room"`
	Value int64               `form:"value" json:"value" validate:"gte=0"`
}

// GridEntry is one meeting printed in a grid cell.
type GridEntry struct {
	EntryID     int64  `json:"entryId"`
	GroupID     int64  `json:"groupId"`
	SubjectName string `json:"subjectName"`
	TeacherName string `json:"teacherName"`
	RoomName    string `json:"roomName"`
	Label       string `json:"label"`
}

// GridCell is one (day, slot) position of the weekly grid.
type GridCell struct {
	Day        int         `json:"day"`
	Slot       int         `json:"slot"`
	TimeslotID int64       `json:"timeslotId,omitempty"`
	Entries    []GridEntry `json:"entries"`
}

// ScheduleGrid is the 5 day by 6 slot timetable for one view. Cells are
// indexed [slot][day].
type ScheduleGrid struct {
	View  models.ScheduleView `json:"view"`
	Value int64               `json:"value,omitempty"`
	Days  []string            `json:"days"`
	Cells [][]GridCell        `json:"cells"`
	Total int                 `json:"total"`
}

// SlotRef addresses a grid cell.
type SlotRef struct {
	Day  int `json:"day" validate:"gte=0,lt=5"`
	Slot int `json:"slot" validate:"gte=0,lt=6"`
}

// SwapRequest exchanges the meetings of two cells within a filtered view.
type SwapRequest struct {
	View  models.ScheduleView `json:"view" validate:"required,oneof=group teacher room"`
	Value int64               `json:"value" validate:"required"`
	From  SlotRef             `json:"from"`
	To    SlotRef             `json:"to"`
}

// MovedEntry reports an entry relocated by a swap.
type MovedEntry struct {
	EntryID        int64 `json:"entryId"`
	GroupID        int64 `json:"groupId"`
	FromTimeslotID int64 `json:"fromTimeslotId"`
	ToTimeslotID   int64 `json:"toTimeslotId"`
}

// SwapResult lists the entries a swap moved.
type SwapResult struct {
	Moved []MovedEntry `json:"moved"`
}

// ExportQuery selects the export format and view.
type ExportQuery struct {
	Format string              `form:"format" validate:"omitempty,oneof=csv pdf"`
	View   models.ScheduleView `form:"view" validate:"omitempty,oneof=full group teacher room"`
	Value  int64               `form:"value"`
}

// ExportFile is a rendered export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TimeslotDefaultsResult reports a regenerated grid.
type TimeslotDefaultsResult struct {
	Created   int               `json:"created"`
	Timeslots []models.Timeslot `json:"timeslots"`
}
