package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

type assignmentRepoStub struct {
	stored   []models.TeachingAssignment
	created  []*models.TeachingAssignment
	replaced []models.TeachingAssignment
	deleted  []models.RosterScope
	affected int64
}

func (s *assignmentRepoStub) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error) {
	return s.stored, nil
}

func (s *assignmentRepoStub) Exists(ctx context.Context, teacherID string, scope models.RosterScope) (bool, error) {
	for _, a := range s.stored {
		if a.Scope() == scope {
			return true, nil
		}
	}
	return false, nil
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.TeachingAssignment) error {
	s.created = append(s.created, assignment)
	return nil
}

func (s *assignmentRepoStub) DeleteMatching(ctx context.Context, teacherID string, scope models.RosterScope) (int64, error) {
	s.deleted = append(s.deleted, scope)
	return s.affected, nil
}

func (s *assignmentRepoStub) ReplaceAll(ctx context.Context, teacherID string, assignments []models.TeachingAssignment) error {
	s.replaced = assignments
	return nil
}

type teacherFinderStub struct {
	known map[string]bool
}

func (s *teacherFinderStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if s.known[id] {
		return &models.Teacher{Person: models.Person{ID: id}}, nil
	}
	return nil, sql.ErrNoRows
}

func newTestAssignmentService(repo *assignmentRepoStub) *AssignmentService {
	teachers := &teacherFinderStub{known: map[string]bool{"teacher-1": true}}
	return NewAssignmentService(repo, teachers, validator.New(), zap.NewNop())
}

func TestAssignmentAddRejectsDuplicate(t *testing.T) {
	repo := &assignmentRepoStub{stored: []models.TeachingAssignment{{
		ID:             "assign-1",
		TeacherID:      "teacher-1",
		EducationLevel: "High School",
		GradeYearLevel: "Grade 10",
		Section:        "A",
	}}}
	svc := newTestAssignmentService(repo)

	_, err := svc.Add(context.Background(), "teacher-1", AssignmentPayload{
		EducationLevel: "High School",
		GradeYearLevel: "Grade 10",
		Section:        "A",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "duplicate assignment", appErr.Message)
	assert.Empty(t, repo.created)
}

func TestAssignmentAddStoresTriple(t *testing.T) {
	repo := &assignmentRepoStub{}
	svc := newTestAssignmentService(repo)

	assignment, err := svc.Add(context.Background(), "teacher-1", AssignmentPayload{
		EducationLevel: "High School",
		GradeYearLevel: "Grade 10",
		Section:        "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", assignment.TeacherID)
	require.Len(t, repo.created, 1)
}

func TestAssignmentAddUnknownTeacher(t *testing.T) {
	svc := newTestAssignmentService(&assignmentRepoStub{})

	_, err := svc.Add(context.Background(), "teacher-9", AssignmentPayload{
		EducationLevel: "High School",
		GradeYearLevel: "Grade 10",
		Section:        "A",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentRemoveDeletesValueEqualSet(t *testing.T) {
	repo := &assignmentRepoStub{
		stored: []models.TeachingAssignment{{
			ID:             "assign-1",
			TeacherID:      "teacher-1",
			EducationLevel: "High School",
			GradeYearLevel: "Grade 10",
			Section:        "A",
		}},
		affected: 2,
	}
	svc := newTestAssignmentService(repo)

	require.NoError(t, svc.Remove(context.Background(), "teacher-1", "assign-1"))
	require.Len(t, repo.deleted, 1)
	assert.Equal(t, models.RosterScope{
		EducationLevel: "High School",
		GradeYearLevel: "Grade 10",
		Section:        "A",
	}, repo.deleted[0])
}

func TestAssignmentRemoveUnknownID(t *testing.T) {
	svc := newTestAssignmentService(&assignmentRepoStub{})

	err := svc.Remove(context.Background(), "teacher-1", "assign-9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentReplaceAll(t *testing.T) {
	repo := &assignmentRepoStub{}
	svc := newTestAssignmentService(repo)

	_, err := svc.ReplaceAll(context.Background(), "teacher-1", ReplaceAssignmentsRequest{
		Assignments: []AssignmentPayload{
			{EducationLevel: "High School", GradeYearLevel: "Grade 10", Section: "A"},
			{EducationLevel: "High School", GradeYearLevel: "Grade 11", Section: "B"},
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.replaced, 2)
	assert.Equal(t, "teacher-1", repo.replaced[0].TeacherID)
}
