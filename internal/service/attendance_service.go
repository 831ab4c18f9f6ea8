package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
	"github.com/noah-isme/school-attendance-api/pkg/export"
)

type attendanceLog interface {
	Insert(ctx context.Context, event *models.AttendanceEvent) error
	ListByUser(ctx context.Context, userID string, userType models.UserType) ([]models.AttendanceRecordDetail, error)
	ListByRange(ctx context.Context, start, end time.Time, userType *models.UserType) ([]models.AttendanceRecordDetail, error)
}

// AttendanceService records badge scans and serves the derived views over
// the append-only event log.
type AttendanceService struct {
	directory *DirectoryService
	events    attendanceLog
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(directory *DirectoryService, events attendanceLog, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		directory: directory,
		events:    events,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Record resolves a badge code, stamps the user document and appends one
// event. The stamp and the append are two separate writes: a failure between
// them can leave a stamp without a log row, an accepted gap given the
// physically serialized scan pattern. Not idempotent: scanning twice
// appends twice and the later stamp wins.
func (s *AttendanceService) Record(ctx context.Context, code string, eventType models.EventType) (*models.UserRef, error) {
	if !eventType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event type")
	}

	ref, err := s.directory.LookupByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	store, ok := s.directory.StoreFor(ref.UserType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "no store for user type")
	}

	ts := s.now()
	if eventType == models.EventSignIn {
		err = store.StampSignIn(ctx, ref.ID, ts)
		ref.SignInTime = &ts
	} else {
		err = store.StampSignOut(ctx, ref.ID, ts)
		ref.SignOutTime = &ts
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stamp user")
	}

	event := &models.AttendanceEvent{
		UserID:    ref.ID,
		UserType:  ref.UserType,
		EventType: eventType,
		Timestamp: ts,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append attendance event")
	}

	if s.metrics != nil {
		s.metrics.RecordAttendanceEvent(eventType)
	}
	s.invalidateDay(ctx, ts)

	return ref, nil
}

// SelfSummary returns the caller's own attendance folded into per-day rows.
func (s *AttendanceService) SelfSummary(ctx context.Context, userID string, userType models.UserType) ([]models.AttendanceSummary, error) {
	records, err := s.events.ListByUser(ctx, userID, userType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return SummarizeAttendance(records), nil
}

// RecordsForDate returns the raw joined rows for one calendar day,
// optionally scoped to a user type.
func (s *AttendanceService) RecordsForDate(ctx context.Context, date, userType string) ([]models.AttendanceRecordDetail, error) {
	start, end, typeFilter, err := s.parseDateQuery(date, userType)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("attendance:records:%s:%s", start.Format(dayKeyLayout), userType)
	var records []models.AttendanceRecordDetail
	if hit, _ := s.cache.Get(ctx, cacheKey, &records); hit {
		return records, nil
	}

	records, err = s.events.ListByRange(ctx, start, end, typeFilter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	if err := s.cache.Set(ctx, cacheKey, records, 0); err != nil {
		s.logger.Warn("failed to cache attendance records", zap.Error(err))
	}
	return records, nil
}

// SummaryForDate runs one day's records through the aggregator.
func (s *AttendanceService) SummaryForDate(ctx context.Context, date, userType string) ([]models.AttendanceSummary, error) {
	records, err := s.RecordsForDate(ctx, date, userType)
	if err != nil {
		return nil, err
	}
	return SummarizeAttendance(records), nil
}

// ExportFormat selects the rendering of an attendance download.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportSummaryForDate renders one day's summary rows as a downloadable
// sheet. It returns the payload, a suggested filename and the content type.
func (s *AttendanceService) ExportSummaryForDate(ctx context.Context, date, userType string, format ExportFormat) ([]byte, string, string, error) {
	summaries, err := s.SummaryForDate(ctx, date, userType)
	if err != nil {
		return nil, "", "", err
	}

	sheet := export.Sheet{
		Headers: []string{"Name", "Type", "Student Number", "Position", "Date", "Sign In", "Sign Out"},
		Rows:    make([][]string, 0, len(summaries)),
	}
	for _, row := range summaries {
		sheet.Rows = append(sheet.Rows, []string{
			displayName(row.FirstName, row.MiddleName, row.LastName),
			string(row.UserType),
			deref(row.StudentNumber),
			deref(row.Position),
			row.Date,
			formatClock(row.SignInTime),
			formatClock(row.SignOutTime),
		})
	}

	switch format {
	case ExportCSV, "":
		payload, err := export.NewCSVExporter().Render(sheet)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, fmt.Sprintf("attendance-%s.csv", date), "text/csv", nil
	case ExportPDF:
		payload, err := export.NewPDFExporter().Render(sheet, fmt.Sprintf("Attendance %s", date))
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, fmt.Sprintf("attendance-%s.pdf", date), "application/pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *AttendanceService) parseDateQuery(date, userType string) (time.Time, time.Time, *models.UserType, error) {
	if date == "" {
		return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	parsed, err := time.ParseInLocation(dayKeyLayout, date, time.Local)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339, date); err != nil {
			return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, use YYYY-MM-DD")
		}
	}

	var typeFilter *models.UserType
	if userType != "" {
		t := models.UserType(userType)
		if !t.Valid() {
			return time.Time{}, time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "unknown user type")
		}
		typeFilter = &t
	}

	start, end := localDayBounds(parsed)
	return start, end, typeFilter, nil
}

func (s *AttendanceService) invalidateDay(ctx context.Context, ts time.Time) {
	if !s.cache.Enabled() {
		return
	}
	pattern := fmt.Sprintf("attendance:records:%s:*", ts.Local().Format(dayKeyLayout))
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate attendance cache", zap.Error(err))
	}
}

func displayName(first, middle, last *string) string {
	name := deref(first)
	if m := deref(middle); m != "" {
		name += " " + m
	}
	if l := deref(last); l != "" {
		name += " " + l
	}
	return name
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatClock(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Local().Format("15:04")
}
