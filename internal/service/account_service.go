package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

type studentAccounts interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type teacherAccounts interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type employeeAccounts interface {
	List(ctx context.Context, filter models.ListFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type uniqueChecker interface {
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

// PersonPayload carries the identity fields shared by every account type.
// Password is required on create and optional on update.
type PersonPayload struct {
	Code       string `json:"code" validate:"required"`
	FirstName  string `json:"first_name" validate:"required"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"omitempty,min=8"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	PersonPayload
	StudentNumber  string   `json:"student_number" validate:"required"`
	EducationLevel string   `json:"education_level" validate:"required"`
	GradeYearLevel string   `json:"grade_year_level" validate:"required"`
	Section        string   `json:"section" validate:"required"`
	ClassSchedule  []string `json:"class_schedule"`
	Subjects       []string `json:"subjects"`
}

// CreateTeacherRequest holds payload for creating teachers.
type CreateTeacherRequest struct {
	PersonPayload
	ClassSchedule []string `json:"class_schedule"`
	Subjects      []string `json:"subjects"`
}

// CreateEmployeeRequest holds payload for creating employees.
type CreateEmployeeRequest struct {
	PersonPayload
	Position string `json:"position" validate:"required"`
}

// UpdateProfileRequest is the self-service subset: contact details and an
// optional password change. Identity and classification fields stay
// admin-only.
type UpdateProfileRequest struct {
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// AccountService handles admin-side account CRUD for all three directory
// tables plus the self-service profile operations.
type AccountService struct {
	students  studentAccounts
	teachers  teacherAccounts
	employees employeeAccounts
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs the account service.
func NewAccountService(students studentAccounts, teachers teacherAccounts, employees employeeAccounts, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{students: students, teachers: teachers, employees: employees, validator: validate, logger: logger}
}

// ListStudents returns students and pagination metadata.
func (s *AccountService) ListStudents(ctx context.Context, filter models.ListFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter, total), nil
}

// GetStudent returns one student record.
func (s *AccountService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// CreateStudent registers a new student account.
func (s *AccountService) CreateStudent(ctx context.Context, req CreateStudentRequest, imageURL string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	hash, err := s.hashPassword(req.Password, true)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, s.students, req.Code, req.Email, ""); err != nil {
		return nil, err
	}
	student := &models.Student{
		Person:         s.person(req.PersonPayload, hash, imageURL),
		StudentNumber:  req.StudentNumber,
		EducationLevel: req.EducationLevel,
		GradeYearLevel: req.GradeYearLevel,
		Section:        req.Section,
		ClassSchedule:  req.ClassSchedule,
		Subjects:       req.Subjects,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// UpdateStudent modifies an existing student account.
func (s *AccountService) UpdateStudent(ctx context.Context, id string, req CreateStudentRequest, imageURL string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, s.students, req.Code, req.Email, id); err != nil {
		return nil, err
	}
	applyPerson(&student.Person, req.PersonPayload, imageURL)
	student.StudentNumber = req.StudentNumber
	student.EducationLevel = req.EducationLevel
	student.GradeYearLevel = req.GradeYearLevel
	student.Section = req.Section
	student.ClassSchedule = req.ClassSchedule
	student.Subjects = req.Subjects
	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if err := s.applyPasswordChange(ctx, s.students.UpdatePassword, id, req.Password); err != nil {
		return nil, err
	}
	return student, nil
}

// DeleteStudent removes a student account. Attendance events keep their rows;
// reads over the log render the user fields as null from then on.
func (s *AccountService) DeleteStudent(ctx context.Context, id string) error {
	return s.delete(ctx, s.students.Delete, id, "student")
}

// ListTeachers returns teachers and pagination metadata.
func (s *AccountService) ListTeachers(ctx context.Context, filter models.ListFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paginationFor(filter, total), nil
}

// GetTeacher returns one teacher record.
func (s *AccountService) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// CreateTeacher registers a new teacher account.
func (s *AccountService) CreateTeacher(ctx context.Context, req CreateTeacherRequest, imageURL string) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	hash, err := s.hashPassword(req.Password, true)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, s.teachers, req.Code, req.Email, ""); err != nil {
		return nil, err
	}
	teacher := &models.Teacher{
		Person:        s.person(req.PersonPayload, hash, imageURL),
		ClassSchedule: req.ClassSchedule,
		Subjects:      req.Subjects,
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// UpdateTeacher modifies an existing teacher account.
func (s *AccountService) UpdateTeacher(ctx context.Context, id string, req CreateTeacherRequest, imageURL string) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.GetTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, s.teachers, req.Code, req.Email, id); err != nil {
		return nil, err
	}
	applyPerson(&teacher.Person, req.PersonPayload, imageURL)
	teacher.ClassSchedule = req.ClassSchedule
	teacher.Subjects = req.Subjects
	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	if err := s.applyPasswordChange(ctx, s.teachers.UpdatePassword, id, req.Password); err != nil {
		return nil, err
	}
	return teacher, nil
}

// DeleteTeacher removes a teacher account.
func (s *AccountService) DeleteTeacher(ctx context.Context, id string) error {
	return s.delete(ctx, s.teachers.Delete, id, "teacher")
}

// ListEmployees returns employees and pagination metadata.
func (s *AccountService) ListEmployees(ctx context.Context, filter models.ListFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	return employees, paginationFor(filter, total), nil
}

// GetEmployee returns one employee record.
func (s *AccountService) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// CreateEmployee registers a new employee account.
func (s *AccountService) CreateEmployee(ctx context.Context, req CreateEmployeeRequest, imageURL string) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	hash, err := s.hashPassword(req.Password, true)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, s.employees, req.Code, req.Email, ""); err != nil {
		return nil, err
	}
	employee := &models.Employee{
		Person:   s.person(req.PersonPayload, hash, imageURL),
		Position: req.Position,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	return employee, nil
}

// UpdateEmployee modifies an existing employee account.
func (s *AccountService) UpdateEmployee(ctx context.Context, id string, req CreateEmployeeRequest, imageURL string) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, s.employees, req.Code, req.Email, id); err != nil {
		return nil, err
	}
	applyPerson(&employee.Person, req.PersonPayload, imageURL)
	employee.Position = req.Position
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	if err := s.applyPasswordChange(ctx, s.employees.UpdatePassword, id, req.Password); err != nil {
		return nil, err
	}
	return employee, nil
}

// DeleteEmployee removes an employee account.
func (s *AccountService) DeleteEmployee(ctx context.Context, id string) error {
	return s.delete(ctx, s.employees.Delete, id, "employee")
}

// Profile returns the caller's own directory record, dispatched by role.
func (s *AccountService) Profile(ctx context.Context, role models.Role, userID string) (interface{}, error) {
	switch role {
	case models.RoleStudent:
		return s.GetStudent(ctx, userID)
	case models.RoleTeacher:
		return s.GetTeacher(ctx, userID)
	case models.RoleEmployee:
		return s.GetEmployee(ctx, userID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no stored profile for this role")
	}
}

// UpdateProfile applies the self-service contact fields and optional
// password change, then returns the refreshed record.
func (s *AccountService) UpdateProfile(ctx context.Context, role models.Role, userID string, req UpdateProfileRequest, imageURL string) (interface{}, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	switch role {
	case models.RoleStudent:
		student, err := s.GetStudent(ctx, userID)
		if err != nil {
			return nil, err
		}
		applyContact(&student.Person, req, imageURL)
		if err := s.students.Update(ctx, student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
		}
		if err := s.applyPasswordChange(ctx, s.students.UpdatePassword, userID, req.Password); err != nil {
			return nil, err
		}
		return student, nil
	case models.RoleTeacher:
		teacher, err := s.GetTeacher(ctx, userID)
		if err != nil {
			return nil, err
		}
		applyContact(&teacher.Person, req, imageURL)
		if err := s.teachers.Update(ctx, teacher); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
		}
		if err := s.applyPasswordChange(ctx, s.teachers.UpdatePassword, userID, req.Password); err != nil {
			return nil, err
		}
		return teacher, nil
	case models.RoleEmployee:
		employee, err := s.GetEmployee(ctx, userID)
		if err != nil {
			return nil, err
		}
		applyContact(&employee.Person, req, imageURL)
		if err := s.employees.Update(ctx, employee); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
		}
		if err := s.applyPasswordChange(ctx, s.employees.UpdatePassword, userID, req.Password); err != nil {
			return nil, err
		}
		return employee, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no stored profile for this role")
	}
}

func (s *AccountService) person(payload PersonPayload, passwordHash, imageURL string) models.Person {
	return models.Person{
		Code:         payload.Code,
		FirstName:    payload.FirstName,
		MiddleName:   payload.MiddleName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		PasswordHash: passwordHash,
		Phone:        payload.Phone,
		Address:      payload.Address,
		ImageURL:     imageURL,
	}
}

func (s *AccountService) hashPassword(password string, required bool) (string, error) {
	if password == "" {
		if required {
			return "", appErrors.Clone(appErrors.ErrValidation, "password is required")
		}
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

func (s *AccountService) ensureUnique(ctx context.Context, repo uniqueChecker, code, email, excludeID string) error {
	exists, err := repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "code already used")
	}
	exists, err = repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	return nil
}

func (s *AccountService) applyPasswordChange(ctx context.Context, update func(context.Context, string, string) error, id, password string) error {
	if password == "" {
		return nil
	}
	hash, err := s.hashPassword(password, false)
	if err != nil {
		return err
	}
	if err := update(ctx, id, hash); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

func (s *AccountService) delete(ctx context.Context, remove func(context.Context, string) error, id, kind string) error {
	if err := remove(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, kind+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+kind)
	}
	s.logger.Info("account deleted", zap.String("kind", kind), zap.String("id", id))
	return nil
}

func applyPerson(person *models.Person, payload PersonPayload, imageURL string) {
	person.Code = payload.Code
	person.FirstName = payload.FirstName
	person.MiddleName = payload.MiddleName
	person.LastName = payload.LastName
	person.Email = payload.Email
	person.Phone = payload.Phone
	person.Address = payload.Address
	if imageURL != "" {
		person.ImageURL = imageURL
	}
}

func applyContact(person *models.Person, req UpdateProfileRequest, imageURL string) {
	if req.Phone != "" {
		person.Phone = req.Phone
	}
	if req.Address != "" {
		person.Address = req.Address
	}
	if imageURL != "" {
		person.ImageURL = imageURL
	}
}

func paginationFor(filter models.ListFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
