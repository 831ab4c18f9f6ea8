package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_events").
		WithArgs(sqlmock.AnyArg(), "student-1", "Student", "sign-in", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.AttendanceEvent{
		UserID:    "student-1",
		UserType:  models.UserTypeStudent,
		EventType: models.EventSignIn,
	}
	require.NoError(t, repo.Insert(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	ts := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	first := "Pat"
	rows := sqlmock.NewRows([]string{"id", "user_id", "user_type", "event_type", "ts", "first_name", "middle_name", "last_name", "student_number", "position"}).
		AddRow("event-1", "student-1", "Student", "sign-in", ts, &first, nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE a.user_id = $1 AND a.user_type = $2`)).
		WithArgs("student-1", models.UserTypeStudent).
		WillReturnRows(rows)

	records, err := repo.ListByUser(context.Background(), "student-1", models.UserTypeStudent)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "event-1", records[0].ID)
	require.NotNil(t, records[0].FirstName)
	assert.Equal(t, "Pat", *records[0].FirstName)
	assert.Nil(t, records[0].StudentNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByRangeTypeFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)

	rows := sqlmock.NewRows([]string{"id", "user_id", "user_type", "event_type", "ts", "first_name", "middle_name", "last_name", "student_number", "position"})
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE a.ts >= $1 AND a.ts <= $2 AND a.user_type = $3`)).
		WithArgs(start, end, models.UserTypeTeacher).
		WillReturnRows(rows)

	teacherType := models.UserTypeTeacher
	records, err := repo.ListByRange(context.Background(), start, end, &teacherType)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}
