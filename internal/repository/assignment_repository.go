package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

// AssignmentRepository persists teaching-assignment triples.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByTeacher returns assignments owned by the teacher in creation order.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeachingAssignment, error) {
	const query = `SELECT id, teacher_id, education_level, grade_year_level, section, created_at
FROM teaching_assignments
WHERE teacher_id = $1
ORDER BY created_at ASC`
	var assignments []models.TeachingAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teaching assignments: %w", err)
	}
	return assignments, nil
}

// Exists checks whether a value-equal triple is already stored. The caller
// relies on this before insert; stored duplicates are indistinguishable.
func (r *AssignmentRepository) Exists(ctx context.Context, teacherID string, scope models.RosterScope) (bool, error) {
	const query = `SELECT 1 FROM teaching_assignments
WHERE teacher_id = $1 AND education_level = $2 AND grade_year_level = $3 AND section = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, scope.EducationLevel, scope.GradeYearLevel, scope.Section); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teaching assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.TeachingAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teaching_assignments (id, teacher_id, education_level, grade_year_level, section, created_at)
		VALUES (:id, :teacher_id, :education_level, :grade_year_level, :section, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create teaching assignment: %w", err)
	}
	return nil
}

// DeleteMatching removes every triple value-equal to the given scope and
// returns how many rows went away.
func (r *AssignmentRepository) DeleteMatching(ctx context.Context, teacherID string, scope models.RosterScope) (int64, error) {
	const query = `DELETE FROM teaching_assignments
WHERE teacher_id = $1 AND education_level = $2 AND grade_year_level = $3 AND section = $4`
	result, err := r.db.ExecContext(ctx, query, teacherID, scope.EducationLevel, scope.GradeYearLevel, scope.Section)
	if err != nil {
		return 0, fmt.Errorf("delete teaching assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted assignment rows: %w", err)
	}
	return affected, nil
}

// ReplaceAll swaps the teacher's full assignment list in one transaction.
func (r *AssignmentRepository) ReplaceAll(ctx context.Context, teacherID string, assignments []models.TeachingAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM teaching_assignments WHERE teacher_id = $1", teacherID); err != nil {
		return fmt.Errorf("clear teaching assignments: %w", err)
	}

	const insert = `INSERT INTO teaching_assignments (id, teacher_id, education_level, grade_year_level, section, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now().UTC()
	for i := range assignments {
		a := &assignments[i]
		a.TeacherID = teacherID
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, insert, a.ID, a.TeacherID, a.EducationLevel, a.GradeYearLevel, a.Section, a.CreatedAt); err != nil {
			return fmt.Errorf("insert replacement assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	return nil
}
