package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

type fakeGeneratorSrv struct {
	report *dto.GenerationReport
	err    error
	last   dto.GenerateTimetableRequest
}

func (f *fakeGeneratorSrv) Generate(_ context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationReport, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func TestGeneratorHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeGeneratorSrv{report: &dto.GenerationReport{
		TotalLessonsCreated:        10,
		TotalRequirements:          4,
		TotalRequirementsFulfilled: 3,
		Unfulfilled: []dto.UnfulfilledRequirement{
			{ClassSectionID: "class-a", SubjectID: "latin", RequiredLessons: 2, Reason: "No qualified teacher for subject"},
		},
	}}
	h := NewGeneratorHandler(srv)

	rec, c := postJSON(t, dto.GenerateTimetableRequest{
		SchoolID:    "school-1",
		TermID:      "term-1",
		PeriodSetID: "ps-1",
	}, "/timetable/generate")
	h.Generate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "term-1", srv.last.TermID)

	var envelope struct {
		Data dto.GenerationReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 10, envelope.Data.TotalLessonsCreated)
	require.Len(t, envelope.Data.Unfulfilled, 1)
	assert.Equal(t, "latin", envelope.Data.Unfulfilled[0].SubjectID)
}

func TestGeneratorHandlerTermNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewGeneratorHandler(&fakeGeneratorSrv{err: appErrors.Clone(appErrors.ErrNotFound, "term not found")})

	rec, c := postJSON(t, dto.GenerateTimetableRequest{SchoolID: "s", TermID: "t", PeriodSetID: "p"}, "/timetable/generate")
	h.Generate(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
