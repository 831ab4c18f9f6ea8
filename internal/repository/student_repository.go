package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

const studentColumns = personColumns + ", student_number, education_level, grade_year_level, section, class_schedule, subjects"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	personStore
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{personStore{db: db, table: "students", userType: models.UserTypeStudent}}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(student_number) LIKE $%d OR LOWER(code) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")
	orderBy, limit, offset := listClauses(filter, map[string]string{
		"last_name":      "last_name",
		"student_number": "student_number",
		"created_at":     "created_at",
	})

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY %s LIMIT %d OFFSET %d", studentColumns, where, orderBy, limit, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a full student record.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, code, first_name, middle_name, last_name, email, password_hash, phone, address, image_url, student_number, education_level, grade_year_level, section, class_schedule, subjects, created_at, updated_at)
        VALUES (:id, :code, :first_name, :middle_name, :last_name, :email, :password_hash, :phone, :address, :image_url, :student_number, :education_level, :grade_year_level, :section, :class_schedule, :subjects, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET code = :code, first_name = :first_name, middle_name = :middle_name, last_name = :last_name, email = :email, phone = :phone, address = :address, image_url = :image_url, student_number = :student_number, education_level = :education_level, grade_year_level = :grade_year_level, section = :section, class_schedule = :class_schedule, subjects = :subjects, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// ListByScopes returns students whose classification matches any of the
// given triples. Matching is case-insensitive exact per field.
func (r *StudentRepository) ListByScopes(ctx context.Context, scopes []models.RosterScope) ([]models.Student, error) {
	if len(scopes) == 0 {
		return nil, nil
	}

	conditions := make([]string, 0, len(scopes))
	args := make([]interface{}, 0, len(scopes)*3)
	for _, scope := range scopes {
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(LOWER(education_level) = LOWER($%d) AND LOWER(grade_year_level) = LOWER($%d) AND LOWER(section) = LOWER($%d))", n+1, n+2, n+3))
		args = append(args, scope.EducationLevel, scope.GradeYearLevel, scope.Section)
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY last_name ASC, first_name ASC", studentColumns, strings.Join(conditions, " OR "))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students by scope: %w", err)
	}
	return students, nil
}

// listClauses resolves the shared sort/paging parameters against a
// whitelist of sortable columns.
func listClauses(filter models.ListFilter, allowedSorts map[string]string) (string, int, int) {
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return column + " " + order, size, (page - 1) * size
}
