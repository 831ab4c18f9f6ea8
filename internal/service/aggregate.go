package service

import (
	"time"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

const dayKeyLayout = "2006-01-02"

// SummarizeAttendance folds a chronologically ascending event log into one
// row per (user, local calendar day) pair. The first sign-in and the first
// sign-out of a day win; later duplicates are silently dropped. A sign-in
// after midnight opens a fresh row; there is no carry-over across days.
// Output rows follow first-encounter order, i.e. chronological by each
// pair's earliest event.
func SummarizeAttendance(records []models.AttendanceRecordDetail) []models.AttendanceSummary {
	summaries := make([]models.AttendanceSummary, 0, len(records))
	index := make(map[string]int, len(records))

	for _, record := range records {
		day := record.Timestamp.Local().Format(dayKeyLayout)
		key := record.UserID + "|" + day

		pos, seen := index[key]
		if !seen {
			pos = len(summaries)
			index[key] = pos
			summaries = append(summaries, models.AttendanceSummary{
				UserID:        record.UserID,
				UserType:      record.UserType,
				FirstName:     record.FirstName,
				MiddleName:    record.MiddleName,
				LastName:      record.LastName,
				StudentNumber: record.StudentNumber,
				Position:      record.Position,
				Date:          day,
			})
		}

		summary := &summaries[pos]
		switch record.EventType {
		case models.EventSignIn:
			if summary.SignInTime == nil {
				ts := record.Timestamp
				summary.SignInTime = &ts
			}
		case models.EventSignOut:
			if summary.SignOutTime == nil {
				ts := record.Timestamp
				summary.SignOutTime = &ts
			}
		}
	}

	return summaries
}

// localDayBounds expands a calendar date to its inclusive local-time bounds,
// 00:00:00.000 through 23:59:59.999. Both bounds come from calendar
// components rather than a 24h offset, so days with a DST transition keep
// their end inside the same calendar day.
func localDayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Local().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.Local)
	return start, end
}
