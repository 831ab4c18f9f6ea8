package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/service"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
	"github.com/noah-isme/school-attendance-api/pkg/response"
)

// AttendanceHandler exposes the badge-scan recorder and the derived views
// over the attendance log.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	directory  *service.DirectoryService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, directory *service.DirectoryService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, directory: directory}
}

// SignIn records a sign-in scan for the badge code.
func (h *AttendanceHandler) SignIn(c *gin.Context) {
	h.record(c, models.EventSignIn)
}

// SignOut records a sign-out scan for the badge code.
func (h *AttendanceHandler) SignOut(c *gin.Context) {
	h.record(c, models.EventSignOut)
}

func (h *AttendanceHandler) record(c *gin.Context, eventType models.EventType) {
	ref, err := h.attendance.Record(c.Request.Context(), c.Param("code"), eventType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ref, nil)
}

// Lookup resolves a badge code for the kiosk display.
func (h *AttendanceHandler) Lookup(c *gin.Context) {
	ref, err := h.directory.LookupForKiosk(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ref, nil)
}

// Records returns the raw joined event rows for one day.
func (h *AttendanceHandler) Records(c *gin.Context) {
	records, err := h.attendance.RecordsForDate(c.Request.Context(), c.Query("date"), c.Query("user_type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Summary returns one day's events folded into per-user rows.
func (h *AttendanceHandler) Summary(c *gin.Context) {
	summaries, err := h.attendance.SummaryForDate(c.Request.Context(), c.Query("date"), c.Query("user_type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Export streams one day's summary as a CSV or PDF download.
func (h *AttendanceHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	payload, filename, contentType, err := h.attendance.ExportSummaryForDate(c.Request.Context(), c.Query("date"), c.Query("user_type"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// MyAttendance returns the caller's own folded attendance history.
func (h *AttendanceHandler) MyAttendance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	userType, ok := userTypeForRole(claims.Role)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no attendance history for this role"))
		return
	}

	summaries, err := h.attendance.SelfSummary(c.Request.Context(), claims.UserID, userType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

func userTypeForRole(role models.Role) (models.UserType, bool) {
	switch role {
	case models.RoleStudent:
		return models.UserTypeStudent, true
	case models.RoleTeacher:
		return models.UserTypeTeacher, true
	case models.RoleEmployee:
		return models.UserTypeEmployee, true
	default:
		return "", false
	}
}
