package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type scheduleViewer interface {
	Grid(ctx context.Context, query dto.ScheduleQuery) (*dto.ScheduleGrid, error)
	Swap(ctx context.Context, req dto.SwapRequest) (*dto.SwapResult, error)
	Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
}

// ScheduleHandler exposes the persisted timetable.
type ScheduleHandler struct {
	service scheduleViewer
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc scheduleViewer) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Grid godoc
// @Summary Weekly timetable grid
// @Description Returns a 5 day by 6 slot grid. Cells are indexed [slot][day].
// @Tags Schedule
// @Produce json
// @Param view query string false "full, group, teacher or room"
// @Param value query int false "Group, teacher or room ID for filtered views"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Grid(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	grid, err := h.service.Grid(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}

// Swap godoc
// @Summary Swap two cells of a filtered view
// @Description Moves every meeting of the view between the two cells. Rejected with 409 when a room, teacher or group would be double-booked.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.SwapRequest true "Swap payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/swap [post]
func (h *ScheduleHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	result, err := h.service.Swap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, requestedBy(c))
}

// Export godoc
// @Summary Download the timetable
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param view query string false "full, group, teacher or room"
// @Param value query int false "Group, teacher or room ID for filtered views"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}
