package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

type fakeLessonSrv struct {
	createErr  error
	created    *models.Lesson
	cancelErr  error
	cancelled  *models.Lesson
	clearCount int64
	lastCreate dto.CreateLessonRequest
}

func (f *fakeLessonSrv) List(context.Context, models.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	return []models.Lesson{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeLessonSrv) Get(_ context.Context, id string) (*models.Lesson, error) {
	if f.created != nil && f.created.ID == id {
		return f.created, nil
	}
	return nil, appErrors.ErrLessonNotFound
}

func (f *fakeLessonSrv) Create(_ context.Context, req dto.CreateLessonRequest) (*models.Lesson, error) {
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeLessonSrv) Update(context.Context, string, dto.UpdateLessonRequest) (*models.Lesson, error) {
	return f.created, nil
}

func (f *fakeLessonSrv) Cancel(context.Context, string) (*models.Lesson, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return f.cancelled, nil
}

func (f *fakeLessonSrv) ClearByTerm(context.Context, string, string) (int64, error) {
	return f.clearCount, nil
}

func (f *fakeLessonSrv) BulkCreate(context.Context, dto.BulkCreateLessonsRequest) (*dto.BulkCreateLessonsResult, error) {
	return &dto.BulkCreateLessonsResult{Created: 2, Failed: 1, Errors: []dto.BulkLessonError{{Index: 1, Code: "SCHEDULE_CONFLICT_TEACHER"}}}, nil
}

func postJSON(t *testing.T, body interface{}, target string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return rec, c
}

func TestLessonHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeLessonSrv{created: &models.Lesson{ID: "l1", Status: models.LessonStatusScheduled}}
	h := NewLessonHandler(srv)

	rec, c := postJSON(t, dto.CreateLessonRequest{
		SchoolID:       "school-1",
		AcademicYear:   "2026/2027",
		TermID:         "term-1",
		ClassSectionID: "class-a",
		SubjectID:      "math",
		TeacherID:      "t1",
		RoomID:         "room-1",
		TimeSlotID:     "slot-1",
	}, "/lessons")
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "term-1", srv.lastCreate.TermID)
}

func TestLessonHandlerCreateConflictStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLessonHandler(&fakeLessonSrv{createErr: appErrors.ErrScheduleConflictTeacher})

	rec, c := postJSON(t, dto.CreateLessonRequest{}, "/lessons")
	h.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrScheduleConflictTeacher.Code, envelope.Error.Code)
}

func TestLessonHandlerCreateBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLessonHandler(&fakeLessonSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/lessons", bytes.NewReader([]byte("{broken")))
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLessonHandlerCancelInvalidTransition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLessonHandler(&fakeLessonSrv{cancelErr: appErrors.ErrInvalidStatusTransition})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/lessons/l1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "l1"}}
	h.Cancel(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLessonHandlerClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLessonHandler(&fakeLessonSrv{clearCount: 12})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/lessons?schoolId=school-1&termId=term-1", nil)
	h.Clear(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(12), envelope.Data["deleted"])
}

func TestLessonHandlerBulkCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLessonHandler(&fakeLessonSrv{})

	rec, c := postJSON(t, dto.BulkCreateLessonsRequest{Items: []dto.CreateLessonRequest{{}}}, "/lessons/bulk")
	h.BulkCreate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data dto.BulkCreateLessonsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Created)
	assert.Equal(t, 1, envelope.Data.Failed)
}
