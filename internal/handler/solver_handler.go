package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableSolver interface {
	Solve(ctx context.Context) (*dto.SolveResult, error)
	SolveAsync(ctx context.Context) (*dto.SolveRun, error)
	GetRun(ctx context.Context, id string) (*dto.SolveRun, error)
	LatestReport(ctx context.Context) (*dto.SolveResult, error)
}

// SolverHandler exposes timetable generation endpoints.
type SolverHandler struct {
	service timetableSolver
}

// NewSolverHandler constructs the handler.
func NewSolverHandler(svc timetableSolver) *SolverHandler {
	return &SolverHandler{service: svc}
}

// Solve godoc
// @Summary Generate the weekly timetable
// @Description Runs the solver against the current rooms, teachers, subjects, groups and timeslots and replaces the persisted schedule. Meeting targets are lowered one step at a time when no complete schedule exists.
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /schedule/solve [post]
func (h *SolverHandler) Solve(c *gin.Context) {
	result, err := h.service.Solve(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, requestedBy(c))
}

// SolveAsync godoc
// @Summary Queue a timetable generation run
// @Tags Scheduler
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedule/solve/async [post]
func (h *SolverHandler) SolveAsync(c *gin.Context) {
	run, err := h.service.SolveAsync(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// GetRun godoc
// @Summary Get the status of a queued generation run
// @Tags Scheduler
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/runs/{id} [get]
func (h *SolverHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}

// LatestReport godoc
// @Summary Get the report of the last successful generation
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/report/latest [get]
func (h *SolverHandler) LatestReport(c *gin.Context) {
	report, err := h.service.LatestReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
