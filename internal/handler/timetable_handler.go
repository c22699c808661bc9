package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
	"github.com/noah-isme/school-timetable-api/pkg/response"
)

type timetableProjector interface {
	ByClass(ctx context.Context, schoolID, termID, classSectionID string) (*models.TimetableGrid, error)
	ByTeacher(ctx context.Context, schoolID, termID, teacherID string) (*models.TimetableGrid, error)
	ByRoom(ctx context.Context, schoolID, termID, roomID string) (*models.TimetableGrid, error)
	ExportClassCSV(ctx context.Context, schoolID, termID, classSectionID string) ([]byte, error)
	ExportClassPDF(ctx context.Context, schoolID, termID, classSectionID string) ([]byte, error)
}

// TimetableHandler exposes projected timetable views and exports.
type TimetableHandler struct {
	service timetableProjector
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(svc timetableProjector) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

func (h *TimetableHandler) scopeParams(c *gin.Context) (schoolID, termID string, ok bool) {
	schoolID = c.Query("schoolId")
	termID = c.Query("termId")
	if schoolID == "" || termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolId and termId are required"))
		return "", "", false
	}
	return schoolID, termID, true
}

// ByClass godoc
// @Summary Weekly timetable of a class section
// @Tags Timetable
// @Produce json
// @Param id path string true "Class section ID"
// @Param schoolId query string true "School ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/classes/{id} [get]
func (h *TimetableHandler) ByClass(c *gin.Context) {
	schoolID, termID, ok := h.scopeParams(c)
	if !ok {
		return
	}
	grid, err := h.service.ByClass(c.Request.Context(), schoolID, termID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// ByTeacher godoc
// @Summary Weekly timetable of a teacher
// @Tags Timetable
// @Produce json
// @Param id path string true "Teacher ID"
// @Param schoolId query string true "School ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{id} [get]
func (h *TimetableHandler) ByTeacher(c *gin.Context) {
	schoolID, termID, ok := h.scopeParams(c)
	if !ok {
		return
	}
	grid, err := h.service.ByTeacher(c.Request.Context(), schoolID, termID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// ByRoom godoc
// @Summary Weekly timetable of a room
// @Tags Timetable
// @Produce json
// @Param id path string true "Room ID"
// @Param schoolId query string true "School ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/rooms/{id} [get]
func (h *TimetableHandler) ByRoom(c *gin.Context) {
	schoolID, termID, ok := h.scopeParams(c)
	if !ok {
		return
	}
	grid, err := h.service.ByRoom(c.Request.Context(), schoolID, termID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// ExportClass godoc
// @Summary Export a class timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class section ID"
// @Param schoolId query string true "School ID"
// @Param termId query string true "Term ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetable/classes/{id}/export [get]
func (h *TimetableHandler) ExportClass(c *gin.Context) {
	schoolID, termID, ok := h.scopeParams(c)
	if !ok {
		return
	}
	classID := c.Param("id")

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.service.ExportClassCSV(c.Request.Context(), schoolID, termID, classID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.csv", classID))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.service.ExportClassPDF(c.Request.Context(), schoolID, termID, classID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.pdf", classID))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
