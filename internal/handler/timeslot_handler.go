package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timeslotGenerator interface {
	GenerateDefaults(ctx context.Context) (*dto.TimeslotDefaultsResult, error)
}

// TimeslotHandler manages the weekly grid.
type TimeslotHandler struct {
	service timeslotGenerator
}

// NewTimeslotHandler constructs the handler.
func NewTimeslotHandler(svc timeslotGenerator) *TimeslotHandler {
	return &TimeslotHandler{service: svc}
}

// GenerateDefaults godoc
// @Summary Regenerate default timeslots
// @Description Replaces all timeslots with Monday to Friday, six slots each. The persisted schedule is cleared.
// @Tags Timeslots
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /timeslots/defaults [post]
func (h *TimeslotHandler) GenerateDefaults(c *gin.Context) {
	result, err := h.service.GenerateDefaults(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
