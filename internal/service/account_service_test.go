package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

type studentAccountsStub struct {
	items      map[string]*models.Student
	codes      map[string]bool
	emails     map[string]bool
	created    []*models.Student
	updated    []*models.Student
	passwords  map[string]string
	deletedIDs []string
}

func newStudentAccountsStub() *studentAccountsStub {
	return &studentAccountsStub{
		items:     map[string]*models.Student{},
		codes:     map[string]bool{},
		emails:    map[string]bool{},
		passwords: map[string]string{},
	}
}

func (s *studentAccountsStub) List(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(s.items))
	for _, st := range s.items {
		out = append(out, *st)
	}
	return out, len(out), nil
}

func (s *studentAccountsStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.items[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentAccountsStub) Create(ctx context.Context, student *models.Student) error {
	student.ID = "student-new"
	s.created = append(s.created, student)
	return nil
}

func (s *studentAccountsStub) Update(ctx context.Context, student *models.Student) error {
	s.updated = append(s.updated, student)
	return nil
}

func (s *studentAccountsStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *studentAccountsStub) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return s.codes[code], nil
}

func (s *studentAccountsStub) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return s.emails[email], nil
}

func (s *studentAccountsStub) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.passwords[id] = passwordHash
	return nil
}

type teacherAccountsStub struct{}

func (teacherAccountsStub) List(ctx context.Context, filter models.ListFilter) ([]models.Teacher, int, error) {
	return nil, 0, nil
}
func (teacherAccountsStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return nil, sql.ErrNoRows
}
func (teacherAccountsStub) Create(ctx context.Context, teacher *models.Teacher) error { return nil }
func (teacherAccountsStub) Update(ctx context.Context, teacher *models.Teacher) error { return nil }
func (teacherAccountsStub) Delete(ctx context.Context, id string) error               { return nil }
func (teacherAccountsStub) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return false, nil
}
func (teacherAccountsStub) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return false, nil
}
func (teacherAccountsStub) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

type employeeAccountsStub struct{}

func (employeeAccountsStub) List(ctx context.Context, filter models.ListFilter) ([]models.Employee, int, error) {
	return nil, 0, nil
}
func (employeeAccountsStub) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	return nil, sql.ErrNoRows
}
func (employeeAccountsStub) Create(ctx context.Context, employee *models.Employee) error { return nil }
func (employeeAccountsStub) Update(ctx context.Context, employee *models.Employee) error { return nil }
func (employeeAccountsStub) Delete(ctx context.Context, id string) error                 { return nil }
func (employeeAccountsStub) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return false, nil
}
func (employeeAccountsStub) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return false, nil
}
func (employeeAccountsStub) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

func newTestAccountService(students *studentAccountsStub) *AccountService {
	return NewAccountService(students, teacherAccountsStub{}, employeeAccountsStub{}, validator.New(), zap.NewNop())
}

func validStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		PersonPayload: PersonPayload{
			Code:      "1234",
			FirstName: "Pat",
			LastName:  "Reyes",
			Email:     "pat@school.local",
			Password:  "student-password",
		},
		StudentNumber:  "S-001",
		EducationLevel: "High School",
		GradeYearLevel: "Grade 10",
		Section:        "A",
	}
}

func TestAccountCreateStudentHashesPassword(t *testing.T) {
	students := newStudentAccountsStub()
	svc := newTestAccountService(students)

	student, err := svc.CreateStudent(context.Background(), validStudentRequest(), "/uploads/profiles/x.png")
	require.NoError(t, err)
	assert.Equal(t, "student-new", student.ID)
	assert.Equal(t, "/uploads/profiles/x.png", student.ImageURL)

	require.Len(t, students.created, 1)
	stored := students.created[0]
	assert.NotEqual(t, "student-password", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("student-password")))
}

func TestAccountCreateStudentRequiresPassword(t *testing.T) {
	svc := newTestAccountService(newStudentAccountsStub())

	req := validStudentRequest()
	req.Password = ""
	_, err := svc.CreateStudent(context.Background(), req, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccountCreateStudentRejectsShortPassword(t *testing.T) {
	students := newStudentAccountsStub()
	svc := newTestAccountService(students)

	req := validStudentRequest()
	req.Password = "abc"
	_, err := svc.CreateStudent(context.Background(), req, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, students.created)
}

func TestAccountUpdateProfileRejectsShortPassword(t *testing.T) {
	students := newStudentAccountsStub()
	students.items["student-1"] = &models.Student{
		Person: models.Person{ID: "student-1", Code: "1234", FirstName: "Pat", LastName: "Reyes", Email: "pat@school.local"},
	}
	svc := newTestAccountService(students)

	_, err := svc.UpdateProfile(context.Background(), models.RoleStudent, "student-1", UpdateProfileRequest{
		Password: "abc",
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, students.passwords)
}

func TestAccountCreateStudentDuplicateCode(t *testing.T) {
	students := newStudentAccountsStub()
	students.codes["1234"] = true
	svc := newTestAccountService(students)

	_, err := svc.CreateStudent(context.Background(), validStudentRequest(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, students.created)
}

func TestAccountDeleteStudentNotFound(t *testing.T) {
	svc := newTestAccountService(newStudentAccountsStub())

	err := svc.DeleteStudent(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAccountUpdateProfileContactOnly(t *testing.T) {
	students := newStudentAccountsStub()
	students.items["student-1"] = &models.Student{
		Person: models.Person{ID: "student-1", Code: "1234", FirstName: "Pat", LastName: "Reyes", Email: "pat@school.local", Phone: "111"},
	}
	svc := newTestAccountService(students)

	result, err := svc.UpdateProfile(context.Background(), models.RoleStudent, "student-1", UpdateProfileRequest{
		Phone:    "222",
		Password: "fresh-password",
	}, "")
	require.NoError(t, err)

	updated, ok := result.(*models.Student)
	require.True(t, ok)
	assert.Equal(t, "222", updated.Phone)
	assert.Equal(t, "1234", updated.Code)

	hash, ok := students.passwords["student-1"]
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("fresh-password")))
}

func TestAccountProfileAdminHasNone(t *testing.T) {
	svc := newTestAccountService(newStudentAccountsStub())

	_, err := svc.Profile(context.Background(), models.RoleAdmin, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
