package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

type assignmentRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error)
	Exists(ctx context.Context, teacherID string, scope models.RosterScope) (bool, error)
	Create(ctx context.Context, assignment *models.TeachingAssignment) error
	DeleteMatching(ctx context.Context, teacherID string, scope models.RosterScope) (int64, error)
	ReplaceAll(ctx context.Context, teacherID string, assignments []models.TeachingAssignment) error
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AssignmentPayload is one (education level, grade/year level, section)
// triple in a request body.
type AssignmentPayload struct {
	EducationLevel string `json:"education_level" validate:"required"`
	GradeYearLevel string `json:"grade_year_level" validate:"required"`
	Section        string `json:"section" validate:"required"`
}

// ReplaceAssignmentsRequest replaces a teacher's whole assignment set.
type ReplaceAssignmentsRequest struct {
	Assignments []AssignmentPayload `json:"assignments" validate:"required,dive"`
}

// AssignmentService manages the teaching-assignment set per teacher.
// Membership is value equality on the triple: adding an equal triple is a
// conflict, removing deletes every equal triple.
type AssignmentService struct {
	repo      assignmentRepository
	teachers  teacherFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(repo assignmentRepository, teachers teacherFinder, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns a teacher's assignments in insertion order.
func (s *AssignmentService) List(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error) {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Add appends one triple, rejecting value-equal duplicates.
func (s *AssignmentService) Add(ctx context.Context, teacherID string, req AssignmentPayload) (*models.TeachingAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	scope := req.scope()
	exists, err := s.repo.Exists(ctx, teacherID, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "duplicate assignment")
	}

	assignment := &models.TeachingAssignment{
		TeacherID:      teacherID,
		EducationLevel: scope.EducationLevel,
		GradeYearLevel: scope.GradeYearLevel,
		Section:        scope.Section,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Remove resolves the assignment by ID and deletes every triple value-equal
// to it, so duplicated triples never survive a removal.
func (s *AssignmentService) Remove(ctx context.Context, teacherID, assignmentID string) error {
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return err
	}

	assignments, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	var target *models.TeachingAssignment
	for i := range assignments {
		if assignments[i].ID == assignmentID {
			target = &assignments[i]
			break
		}
	}
	if target == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}

	removed, err := s.repo.DeleteMatching(ctx, teacherID, target.Scope())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove assignment")
	}
	if removed == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return nil
}

// ReplaceAll swaps the teacher's assignment set for the provided triples.
func (s *AssignmentService) ReplaceAll(ctx context.Context, teacherID string, req ReplaceAssignmentsRequest) ([]models.TeachingAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignments payload")
	}
	if err := s.ensureTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	assignments := make([]models.TeachingAssignment, 0, len(req.Assignments))
	for _, payload := range req.Assignments {
		assignments = append(assignments, models.TeachingAssignment{
			TeacherID:      teacherID,
			EducationLevel: payload.EducationLevel,
			GradeYearLevel: payload.GradeYearLevel,
			Section:        payload.Section,
		})
	}

	if err := s.repo.ReplaceAll(ctx, teacherID, assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace assignments")
	}

	stored, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload assignments")
	}
	return stored, nil
}

func (s *AssignmentService) ensureTeacher(ctx context.Context, teacherID string) error {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return nil
}

func (p AssignmentPayload) scope() models.RosterScope {
	return models.RosterScope{
		EducationLevel: p.EducationLevel,
		GradeYearLevel: p.GradeYearLevel,
		Section:        p.Section,
	}
}
