package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-attendance-api/internal/service"
	"github.com/noah-isme/school-attendance-api/pkg/response"
)

// RosterHandler exposes assignment-derived roster views.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// Students returns the teacher's roster, with that day's attendance when a
// date query parameter is given.
func (h *RosterHandler) Students(c *gin.Context) {
	entries, err := h.roster.StudentsForTeacher(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Classmates returns the students sharing the subject student's classification.
func (h *RosterHandler) Classmates(c *gin.Context) {
	classmates, err := h.roster.ClassmatesOfStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classmates, nil)
}
