package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
	"github.com/noah-isme/school-timetable-api/pkg/response"
)

type lessonManager interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, req dto.CreateLessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, id string, req dto.UpdateLessonRequest) (*models.Lesson, error)
	Cancel(ctx context.Context, id string) (*models.Lesson, error)
	ClearByTerm(ctx context.Context, schoolID, termID string) (int64, error)
	BulkCreate(ctx context.Context, req dto.BulkCreateLessonsRequest) (*dto.BulkCreateLessonsResult, error)
}

// LessonHandler exposes manual lesson management endpoints.
type LessonHandler struct {
	service lessonManager
}

// NewLessonHandler constructs a LessonHandler.
func NewLessonHandler(svc lessonManager) *LessonHandler {
	return &LessonHandler{service: svc}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Param schoolId query string false "School ID"
// @Param termId query string false "Term ID"
// @Param classSectionId query string false "Class section ID"
// @Param teacherId query string false "Teacher ID"
// @Param roomId query string false "Room ID"
// @Param status query string false "Lesson status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	filter := models.LessonFilter{
		SchoolID:       c.Query("schoolId"),
		TermID:         c.Query("termId"),
		ClassSectionID: c.Query("classSectionId"),
		TeacherID:      c.Query("teacherId"),
		RoomID:         c.Query("roomId"),
		TimeSlotID:     c.Query("timeSlotId"),
		Status:         models.LessonStatus(c.Query("status")),
		Page:           page,
		PageSize:       pageSize,
		SortBy:         c.Query("sortBy"),
		SortOrder:      c.Query("sortOrder"),
	}
	lessons, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Get godoc
// @Summary Get a lesson by id
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Create godoc
// @Summary Create a lesson manually
// @Description Runs the full conflict check before placing the lesson.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonRequest true "Create lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// BulkCreate godoc
// @Summary Create many lessons with per-item isolation
// @Description Each item succeeds or fails on its own; the response lists rejected indexes with reasons.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateLessonsRequest true "Bulk create payload"
// @Success 200 {object} response.Envelope
// @Router /lessons/bulk [post]
func (h *LessonHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkCreateLessonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	result, err := h.service.BulkCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Update godoc
// @Summary Move a scheduled lesson
// @Description Revalidates the effective tuple excluding the lesson's own occupancy.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Update lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Cancel godoc
// @Summary Cancel a scheduled lesson
// @Description Frees the lesson's slot; only SCHEDULED lessons may be cancelled.
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/cancel [post]
func (h *LessonHandler) Cancel(c *gin.Context) {
	lesson, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Clear godoc
// @Summary Delete all lessons of a term
// @Tags Lessons
// @Produce json
// @Param schoolId query string true "School ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /lessons [delete]
func (h *LessonHandler) Clear(c *gin.Context) {
	count, err := h.service.ClearByTerm(c.Request.Context(), c.Query("schoolId"), c.Query("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}
