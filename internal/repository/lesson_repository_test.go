package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-timetable-api/internal/models"
	appErrors "github.com/noah-isme/school-timetable-api/pkg/errors"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func lessonRow(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "school_id", "academic_year", "term_id", "class_section_id", "subject_id", "teacher_id", "room_id", "time_slot_id", "status", "created_at", "updated_at"}).
		AddRow(id, "school-1", "2026/2027", "term-1", "class-a", "math", "t1", "room-1", "slot-1", "SCHEDULED", now, now)
}

func TestListActiveByTerm(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons WHERE school_id = $1 AND term_id = $2 AND status = 'SCHEDULED'")).
		WithArgs("school-1", "term-1").
		WillReturnRows(lessonRow("l1"))

	lessons, err := repo.ListActiveByTerm(context.Background(), "school-1", "term-1")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "l1", lessons[0].ID)
	assert.True(t, lessons[0].Active())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindLessonByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons WHERE id = $1")).
		WithArgs("l1").
		WillReturnRows(lessonRow("l1"))

	lesson, err := repo.FindByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "l1", lesson.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLessonMapsUniqueViolations(t *testing.T) {
	cases := []struct {
		name       string
		constraint string
		wantCode   string
	}{
		{"teacher slot", "lessons_teacher_slot_term_active_idx", appErrors.ErrScheduleConflictTeacher.Code},
		{"class slot", "lessons_class_slot_term_active_idx", appErrors.ErrScheduleConflictClass.Code},
		{"room slot", "lessons_room_slot_term_active_idx", appErrors.ErrScheduleConflictRoom.Code},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, cleanup := newMock(t)
			defer cleanup()
			repo := NewLessonRepository(db)

			mock.ExpectExec("INSERT INTO lessons").
				WillReturnError(&pq.Error{Code: "23505", Constraint: tc.constraint})

			err := repo.Create(context.Background(), &models.Lesson{
				SchoolID:       "school-1",
				AcademicYear:   "2026/2027",
				TermID:         "term-1",
				ClassSectionID: "class-a",
				SubjectID:      "math",
				TeacherID:      "t1",
				RoomID:         "room-1",
				TimeSlotID:     "slot-1",
			})
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, appErrors.FromError(err).Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateLessonFillsDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(1, 1))

	lesson := &models.Lesson{
		SchoolID:       "school-1",
		AcademicYear:   "2026/2027",
		TermID:         "term-1",
		ClassSectionID: "class-a",
		SubjectID:      "math",
		TeacherID:      "t1",
		RoomID:         "room-1",
		TimeSlotID:     "slot-1",
	}
	require.NoError(t, repo.Create(context.Background(), lesson))
	assert.NotEmpty(t, lesson.ID)
	assert.Equal(t, models.LessonStatusScheduled, lesson.Status)
	assert.False(t, lesson.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreateAcquiresAdvisoryLock(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("school-1|term-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lessons := []models.Lesson{
		{SchoolID: "school-1", TermID: "term-1", ClassSectionID: "class-a", SubjectID: "math", TeacherID: "t1", RoomID: "room-1", TimeSlotID: "slot-1"},
		{SchoolID: "school-1", TermID: "term-1", ClassSectionID: "class-a", SubjectID: "math", TeacherID: "t1", RoomID: "room-1", TimeSlotID: "slot-2"},
	}
	require.NoError(t, repo.BulkCreate(context.Background(), "school-1", "term-1", lessons))
	assert.NotEmpty(t, lessons[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreateEmptyIsNoop(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	require.NoError(t, repo.BulkCreate(context.Background(), "school-1", "term-1", nil))
}

func TestDeleteByTermReportsCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("school-1|term-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE school_id = $1 AND term_id = $2")).
		WithArgs("school-1", "term-1").
		WillReturnResult(sqlmock.NewResult(0, 17))
	mock.ExpectCommit()

	count, err := repo.DeleteByTerm(context.Background(), "school-1", "term-1")
	require.NoError(t, err)
	assert.Equal(t, int64(17), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'SCHEDULED'")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "l1", models.LessonStatusCancelled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAlreadyCancelled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	// The row exists but its status no longer matches; zero rows affected is
	// reported as a spent transition, not silently swallowed.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'SCHEDULED'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "l1", models.LessonStatusCancelled)
	assert.Equal(t, appErrors.ErrInvalidStatusTransition, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLessonGuardsScheduledStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET teacher_id") + ".*" + regexp.QuoteMeta("AND status = 'SCHEDULED'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Lesson{
		ID:         "l1",
		SubjectID:  "math",
		TeacherID:  "t1",
		RoomID:     "room-1",
		TimeSlotID: "slot-1",
	})
	assert.Equal(t, appErrors.ErrInvalidStatusTransition, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLessonScheduledRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET teacher_id") + ".*" + regexp.QuoteMeta("AND status = 'SCHEDULED'")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.Lesson{
		ID:         "l1",
		SubjectID:  "math",
		TeacherID:  "t1",
		RoomID:     "room-1",
		TimeSlotID: "slot-1",
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
