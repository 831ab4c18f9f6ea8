package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/service"
)

type assignmentRepoMock struct {
	items []models.TeachingAssignment
}

func (m *assignmentRepoMock) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error) {
	out := make([]models.TeachingAssignment, 0, len(m.items))
	for _, a := range m.items {
		if a.TeacherID == teacherID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *assignmentRepoMock) Exists(ctx context.Context, teacherID string, scope models.RosterScope) (bool, error) {
	for _, a := range m.items {
		if a.TeacherID == teacherID && a.Scope() == scope {
			return true, nil
		}
	}
	return false, nil
}

func (m *assignmentRepoMock) Create(ctx context.Context, assignment *models.TeachingAssignment) error {
	assignment.ID = "assignment-new"
	m.items = append(m.items, *assignment)
	return nil
}

func (m *assignmentRepoMock) DeleteMatching(ctx context.Context, teacherID string, scope models.RosterScope) (int64, error) {
	kept := m.items[:0]
	var removed int64
	for _, a := range m.items {
		if a.TeacherID == teacherID && a.Scope() == scope {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	m.items = kept
	return removed, nil
}

func (m *assignmentRepoMock) ReplaceAll(ctx context.Context, teacherID string, assignments []models.TeachingAssignment) error {
	kept := m.items[:0]
	for _, a := range m.items {
		if a.TeacherID != teacherID {
			kept = append(kept, a)
		}
	}
	m.items = append(kept, assignments...)
	return nil
}

type teacherFinderMock struct {
	known map[string]bool
}

func (m *teacherFinderMock) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if m.known[id] {
		return &models.Teacher{Person: models.Person{ID: id}}, nil
	}
	return nil, sql.ErrNoRows
}

func newTestAssignmentHandler(repo *assignmentRepoMock) *AssignmentHandler {
	teachers := &teacherFinderMock{known: map[string]bool{"teacher-1": true}}
	return NewAssignmentHandler(service.NewAssignmentService(repo, teachers, nil, zap.NewNop()))
}

func TestAssignmentHandlerAdd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &assignmentRepoMock{}
	handler := newTestAssignmentHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"education_level":"Junior High","grade_year_level":"Grade 8","section":"A"}`
	c.Request, _ = http.NewRequest(http.MethodPost, "/teachers/teacher-1/assignments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Add(c)
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	require.Nil(t, env.Error)
	var created models.TeachingAssignment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "teacher-1", created.TeacherID)
	assert.Equal(t, "Junior High", created.EducationLevel)
	require.Len(t, repo.items, 1)
}

func TestAssignmentHandlerAddDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &assignmentRepoMock{items: []models.TeachingAssignment{
		{ID: "assignment-1", TeacherID: "teacher-1", EducationLevel: "Junior High", GradeYearLevel: "Grade 8", Section: "A"},
	}}
	handler := newTestAssignmentHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"education_level":"Junior High","grade_year_level":"Grade 8","section":"A"}`
	c.Request, _ = http.NewRequest(http.MethodPost, "/teachers/teacher-1/assignments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Add(c)
	require.Equal(t, http.StatusConflict, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Len(t, repo.items, 1)
}

func TestAssignmentHandlerAddMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestAssignmentHandler(&assignmentRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/teachers/teacher-1/assignments", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.Add(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestAssignmentHandlerAddUnknownTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestAssignmentHandler(&assignmentRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"education_level":"Junior High","grade_year_level":"Grade 8","section":"A"}`
	c.Request, _ = http.NewRequest(http.MethodPost, "/teachers/missing/assignments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Add(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignmentHandlerRemoveUnknownID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestAssignmentHandler(&assignmentRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/teachers/teacher-1/assignments/missing", nil)
	c.Params = gin.Params{
		{Key: "id", Value: "teacher-1"},
		{Key: "assignmentID", Value: "missing"},
	}

	handler.Remove(c)
	require.Equal(t, http.StatusNotFound, w.Code)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestAssignmentHandlerRemoveDeletesEqualTriples(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &assignmentRepoMock{items: []models.TeachingAssignment{
		{ID: "assignment-1", TeacherID: "teacher-1", EducationLevel: "Junior High", GradeYearLevel: "Grade 8", Section: "A"},
		{ID: "assignment-2", TeacherID: "teacher-1", EducationLevel: "Junior High", GradeYearLevel: "Grade 8", Section: "A"},
	}}
	handler := newTestAssignmentHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/teachers/teacher-1/assignments/assignment-1", nil)
	c.Params = gin.Params{
		{Key: "id", Value: "teacher-1"},
		{Key: "assignmentID", Value: "assignment-1"},
	}

	handler.Remove(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.items)
}

func TestAssignmentHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &assignmentRepoMock{items: []models.TeachingAssignment{
		{ID: "assignment-1", TeacherID: "teacher-1", EducationLevel: "Senior High", GradeYearLevel: "Grade 11", Section: "B"},
	}}
	handler := newTestAssignmentHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/teachers/teacher-1/assignments", nil)
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.Nil(t, env.Error)
	var listed []models.TeachingAssignment
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Senior High", listed[0].EducationLevel)
}
