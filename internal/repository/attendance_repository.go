package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

// attendanceDetailSelect joins the append-only log with a read-time snapshot
// of user display fields. Each role table joins on its own discriminator, so
// a renamed user shows current fields and a deleted user leaves them null.
const attendanceDetailSelect = `
SELECT a.id, a.user_id, a.user_type, a.event_type, a.ts,
       COALESCE(s.first_name, t.first_name, e.first_name) AS first_name,
       COALESCE(s.middle_name, t.middle_name, e.middle_name) AS middle_name,
       COALESCE(s.last_name, t.last_name, e.last_name) AS last_name,
       s.student_number, e.position
FROM attendance_events a
LEFT JOIN students s ON a.user_type = 'Student' AND s.id = a.user_id
LEFT JOIN teachers t ON a.user_type = 'Teacher' AND t.id = a.user_id
LEFT JOIN employees e ON a.user_type = 'Employee' AND e.id = a.user_id`

// AttendanceRepository persists the append-only attendance log. Rows are
// inserted once and never updated or deleted.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert appends one event to the log.
func (r *AttendanceRepository) Insert(ctx context.Context, event *models.AttendanceEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	const query = `INSERT INTO attendance_events (id, user_id, user_type, event_type, ts)
		VALUES (:id, :user_id, :user_type, :event_type, :ts)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert attendance event: %w", err)
	}
	return nil
}

// ListByUser returns every event for one user in ascending timestamp order.
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID string, userType models.UserType) ([]models.AttendanceRecordDetail, error) {
	query := attendanceDetailSelect + `
WHERE a.user_id = $1 AND a.user_type = $2
ORDER BY a.ts ASC`
	var records []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, userID, userType); err != nil {
		return nil, fmt.Errorf("list attendance by user: %w", err)
	}
	return records, nil
}

// ListByRange returns events with ts inside [start, end] inclusive,
// optionally filtered by user type, in ascending timestamp order.
func (r *AttendanceRepository) ListByRange(ctx context.Context, start, end time.Time, userType *models.UserType) ([]models.AttendanceRecordDetail, error) {
	query := attendanceDetailSelect + `
WHERE a.ts >= $1 AND a.ts <= $2`
	args := []interface{}{start, end}
	if userType != nil {
		query += " AND a.user_type = $3"
		args = append(args, *userType)
	}
	query += `
ORDER BY a.ts ASC`

	var records []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance by range: %w", err)
	}
	return records, nil
}
