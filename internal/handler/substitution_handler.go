package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
	"github.com/noah-isme/school-timetable-api/pkg/response"
)

type substitutionValidator interface {
	Validate(ctx context.Context, req dto.ValidateSubstitutionRequest) (*dto.ValidateSubstitutionResult, error)
}

// SubstitutionHandler exposes the substitute-teacher dry-run check.
type SubstitutionHandler struct {
	service substitutionValidator
}

// NewSubstitutionHandler constructs a SubstitutionHandler.
func NewSubstitutionHandler(svc substitutionValidator) *SubstitutionHandler {
	return &SubstitutionHandler{service: svc}
}

// Validate godoc
// @Summary Check whether a substitute teacher can take a lesson
// @Description Dry run: evaluates the same rules as a lesson move without writing anything.
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.ValidateSubstitutionRequest true "Substitution payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /substitutions/validate [post]
func (h *SubstitutionHandler) Validate(c *gin.Context) {
	var req dto.ValidateSubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitution payload"))
		return
	}
	result, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
