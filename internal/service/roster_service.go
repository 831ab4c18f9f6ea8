package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

type rosterStudents interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByScopes(ctx context.Context, scopes []models.RosterScope) ([]models.Student, error)
}

type rosterAssignments interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error)
}

// RosterEntry pairs a student with their folded attendance for the
// requested day. Attendance is nil when no date was asked for or the
// student has no events that day.
type RosterEntry struct {
	Student    models.Student            `json:"student"`
	Attendance *models.AttendanceSummary `json:"attendance,omitempty"`
}

// RosterService resolves class rosters from teaching assignments. There is
// no stored class membership: the roster is whoever currently matches the
// assignment triples.
type RosterService struct {
	students    rosterStudents
	assignments rosterAssignments
	teachers    teacherFinder
	events      attendanceLog
	logger      *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(students rosterStudents, assignments rosterAssignments, teachers teacherFinder, events attendanceLog, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{students: students, assignments: assignments, teachers: teachers, events: events, logger: logger}
}

// StudentsForTeacher returns every student matching any of the teacher's
// assignment triples. When date is non-empty the entries also carry that
// day's folded attendance.
func (s *RosterService) StudentsForTeacher(ctx context.Context, teacherID, date string) ([]RosterEntry, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	scopes := make([]models.RosterScope, 0, len(assignments))
	for _, assignment := range assignments {
		scopes = append(scopes, assignment.Scope())
	}

	students, err := s.students.ListByScopes(ctx, scopes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	entries := make([]RosterEntry, 0, len(students))
	for _, student := range students {
		entries = append(entries, RosterEntry{Student: student})
	}

	if date != "" {
		if err := s.attachAttendance(ctx, entries, date); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ClassmatesOfStudent returns the students sharing the subject student's
// classification triple, excluding the student themselves.
func (s *RosterService) ClassmatesOfStudent(ctx context.Context, studentID string) ([]models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	scope := models.RosterScope{
		EducationLevel: student.EducationLevel,
		GradeYearLevel: student.GradeYearLevel,
		Section:        student.Section,
	}
	matches, err := s.students.ListByScopes(ctx, []models.RosterScope{scope})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classmates")
	}

	classmates := make([]models.Student, 0, len(matches))
	for _, match := range matches {
		if match.ID == student.ID {
			continue
		}
		classmates = append(classmates, match)
	}
	return classmates, nil
}

func (s *RosterService) attachAttendance(ctx context.Context, entries []RosterEntry, date string) error {
	parsed, err := time.ParseInLocation(dayKeyLayout, date, time.Local)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid date format, use YYYY-MM-DD")
	}

	start, end := localDayBounds(parsed)
	studentType := models.UserTypeStudent
	records, err := s.events.ListByRange(ctx, start, end, &studentType)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	byUser := make(map[string]*models.AttendanceSummary)
	summaries := SummarizeAttendance(records)
	for i := range summaries {
		byUser[summaries[i].UserID] = &summaries[i]
	}
	for i := range entries {
		entries[i].Attendance = byUser[entries[i].Student.ID]
	}
	return nil
}
