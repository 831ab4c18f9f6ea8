package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

func event(userID string, eventType models.EventType, ts time.Time) models.AttendanceRecordDetail {
	return models.AttendanceRecordDetail{
		AttendanceEvent: models.AttendanceEvent{
			UserID:    userID,
			UserType:  models.UserTypeStudent,
			EventType: eventType,
			Timestamp: ts,
		},
	}
}

func TestSummarizeAttendanceFirstEventsWin(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	records := []models.AttendanceRecordDetail{
		event("user-1", models.EventSignIn, day.Add(8*time.Hour)),
		event("user-1", models.EventSignIn, day.Add(9*time.Hour)),
		event("user-1", models.EventSignOut, day.Add(15*time.Hour)),
		event("user-1", models.EventSignOut, day.Add(16*time.Hour)),
	}

	summaries := SummarizeAttendance(records)
	require.Len(t, summaries, 1)
	assert.Equal(t, "2026-03-09", summaries[0].Date)
	require.NotNil(t, summaries[0].SignInTime)
	require.NotNil(t, summaries[0].SignOutTime)
	assert.Equal(t, day.Add(8*time.Hour), *summaries[0].SignInTime)
	assert.Equal(t, day.Add(15*time.Hour), *summaries[0].SignOutTime)
}

func TestSummarizeAttendanceSplitsAcrossDays(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	records := []models.AttendanceRecordDetail{
		event("user-1", models.EventSignIn, day.Add(22*time.Hour)),
		event("user-1", models.EventSignOut, day.Add(26*time.Hour)),
	}

	summaries := SummarizeAttendance(records)
	require.Len(t, summaries, 2)

	assert.Equal(t, "2026-03-09", summaries[0].Date)
	require.NotNil(t, summaries[0].SignInTime)
	assert.Nil(t, summaries[0].SignOutTime)

	assert.Equal(t, "2026-03-10", summaries[1].Date)
	assert.Nil(t, summaries[1].SignInTime)
	require.NotNil(t, summaries[1].SignOutTime)
}

func TestSummarizeAttendanceFirstEncounterOrder(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	records := []models.AttendanceRecordDetail{
		event("user-2", models.EventSignIn, day.Add(7*time.Hour)),
		event("user-1", models.EventSignIn, day.Add(8*time.Hour)),
		event("user-2", models.EventSignOut, day.Add(14*time.Hour)),
		event("user-1", models.EventSignOut, day.Add(15*time.Hour)),
	}

	summaries := SummarizeAttendance(records)
	require.Len(t, summaries, 2)
	assert.Equal(t, "user-2", summaries[0].UserID)
	assert.Equal(t, "user-1", summaries[1].UserID)
}

func TestSummarizeAttendanceSignInOnly(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	summaries := SummarizeAttendance([]models.AttendanceRecordDetail{
		event("user-1", models.EventSignIn, day.Add(8*time.Hour)),
	})
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].SignInTime)
	assert.Nil(t, summaries[0].SignOutTime)
}

func TestLocalDayBoundsInclusive(t *testing.T) {
	start, end := localDayBounds(time.Date(2026, 3, 9, 13, 45, 0, 0, time.Local))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2026, 3, 9, 23, 59, 59, 999000000, time.Local), end)
}

func TestLocalDayBoundsDaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	prev := time.Local
	time.Local = loc
	defer func() { time.Local = prev }()

	// 2026-03-08 springs forward: the day is 23h long.
	start, end := localDayBounds(time.Date(2026, 3, 8, 12, 0, 0, 0, loc))
	assert.Equal(t, 8, start.Day())
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 8, end.Day())
	assert.Equal(t, 23, end.Hour())

	// 2026-11-01 falls back: the day is 25h long.
	start, end = localDayBounds(time.Date(2026, 11, 1, 12, 0, 0, 0, loc))
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, 1, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
}
