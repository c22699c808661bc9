package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
	"github.com/noah-isme/school-timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationReport, error)
}

// GeneratorHandler exposes the batch timetable generation endpoint.
type GeneratorHandler struct {
	service timetableGenerator
}

// NewGeneratorHandler constructs a GeneratorHandler.
func NewGeneratorHandler(svc timetableGenerator) *GeneratorHandler {
	return &GeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Generate the timetable for a term
// @Description Fills unmet weekly requirements. Re-running over a partial timetable only adds missing lessons. Under-fulfilment is reported in the response, not treated as an error.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *GeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	report, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
