package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

type directoryStoreStub struct {
	userType  models.UserType
	byCode    map[string]*models.UserRef
	byEmail   map[string]*models.UserRef
	byID      map[string]*models.UserRef
	signIns   map[string]time.Time
	signOuts  map[string]time.Time
	cleared   []string
	stampErr  error
	lookupErr error
}

func newDirectoryStoreStub(userType models.UserType) *directoryStoreStub {
	return &directoryStoreStub{
		userType: userType,
		byCode:   map[string]*models.UserRef{},
		byEmail:  map[string]*models.UserRef{},
		byID:     map[string]*models.UserRef{},
		signIns:  map[string]time.Time{},
		signOuts: map[string]time.Time{},
	}
}

func (s *directoryStoreStub) add(ref *models.UserRef) *directoryStoreStub {
	ref.UserType = s.userType
	s.byCode[ref.Code] = ref
	s.byEmail[ref.Email] = ref
	s.byID[ref.ID] = ref
	return s
}

func (s *directoryStoreStub) UserType() models.UserType { return s.userType }

func (s *directoryStoreStub) FindRefByCode(ctx context.Context, code string) (*models.UserRef, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if ref, ok := s.byCode[code]; ok {
		cp := *ref
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *directoryStoreStub) FindRefByEmail(ctx context.Context, email string) (*models.UserRef, error) {
	if ref, ok := s.byEmail[email]; ok {
		cp := *ref
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *directoryStoreStub) FindRefByID(ctx context.Context, id string) (*models.UserRef, error) {
	if ref, ok := s.byID[id]; ok {
		cp := *ref
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *directoryStoreStub) StampSignIn(ctx context.Context, id string, ts time.Time) error {
	if s.stampErr != nil {
		return s.stampErr
	}
	s.signIns[id] = ts
	return nil
}

func (s *directoryStoreStub) StampSignOut(ctx context.Context, id string, ts time.Time) error {
	if s.stampErr != nil {
		return s.stampErr
	}
	s.signOuts[id] = ts
	return nil
}

func (s *directoryStoreStub) ClearDayStamps(ctx context.Context, id string) error {
	s.cleared = append(s.cleared, id)
	return nil
}

func newTestDirectory(students, teachers, employees *directoryStoreStub) *DirectoryService {
	return NewDirectoryService(students, teachers, employees, zap.NewNop())
}

func TestDirectoryLookupByCodePriority(t *testing.T) {
	students := newDirectoryStoreStub(models.UserTypeStudent).
		add(&models.UserRef{Person: models.Person{ID: "student-1", Code: "1234"}})
	teachers := newDirectoryStoreStub(models.UserTypeTeacher).
		add(&models.UserRef{Person: models.Person{ID: "teacher-1", Code: "1234"}})
	employees := newDirectoryStoreStub(models.UserTypeEmployee)

	directory := newTestDirectory(students, teachers, employees)

	ref, err := directory.LookupByCode(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "student-1", ref.ID)
	assert.Equal(t, models.UserTypeStudent, ref.UserType)
}

func TestDirectoryLookupByCodeFallsThrough(t *testing.T) {
	students := newDirectoryStoreStub(models.UserTypeStudent)
	teachers := newDirectoryStoreStub(models.UserTypeTeacher)
	employees := newDirectoryStoreStub(models.UserTypeEmployee).
		add(&models.UserRef{Person: models.Person{ID: "employee-1", Code: "9999"}})

	directory := newTestDirectory(students, teachers, employees)

	ref, err := directory.LookupByCode(context.Background(), "9999")
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeEmployee, ref.UserType)

	_, err = directory.LookupByCode(context.Background(), "0000")
	require.Error(t, err)
}

func TestDirectoryKioskClearsStaleStamps(t *testing.T) {
	yesterday := time.Now().Add(-48 * time.Hour)
	students := newDirectoryStoreStub(models.UserTypeStudent).
		add(&models.UserRef{Person: models.Person{ID: "student-1", Code: "1234", SignInTime: &yesterday}})

	directory := newTestDirectory(students, newDirectoryStoreStub(models.UserTypeTeacher), newDirectoryStoreStub(models.UserTypeEmployee))

	ref, err := directory.LookupForKiosk(context.Background(), "1234")
	require.NoError(t, err)
	assert.Nil(t, ref.SignInTime)
	assert.Nil(t, ref.SignOutTime)
	assert.Equal(t, []string{"student-1"}, students.cleared)
}

func TestDirectoryKioskKeepsTodayStamps(t *testing.T) {
	now := time.Now()
	students := newDirectoryStoreStub(models.UserTypeStudent).
		add(&models.UserRef{Person: models.Person{ID: "student-1", Code: "1234", SignInTime: &now}})

	directory := newTestDirectory(students, newDirectoryStoreStub(models.UserTypeTeacher), newDirectoryStoreStub(models.UserTypeEmployee))

	ref, err := directory.LookupForKiosk(context.Background(), "1234")
	require.NoError(t, err)
	require.NotNil(t, ref.SignInTime)
	assert.Empty(t, students.cleared)
}
