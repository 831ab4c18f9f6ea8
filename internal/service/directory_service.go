package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

// DirectoryStore is the polymorphic lookup surface each role repository
// implements. Stores are consulted in a fixed priority order, so a code
// shared across tables resolves to the earliest store that has it.
type DirectoryStore interface {
	UserType() models.UserType
	FindRefByCode(ctx context.Context, code string) (*models.UserRef, error)
	FindRefByEmail(ctx context.Context, email string) (*models.UserRef, error)
	FindRefByID(ctx context.Context, id string) (*models.UserRef, error)
	StampSignIn(ctx context.Context, id string, ts time.Time) error
	StampSignOut(ctx context.Context, id string, ts time.Time) error
	ClearDayStamps(ctx context.Context, id string) error
}

// DirectoryService resolves people across the three role tables.
type DirectoryService struct {
	stores []DirectoryStore
	logger *zap.Logger
	now    func() time.Time
}

// NewDirectoryService builds the directory. Store order is the lookup
// priority: students, then teachers, then employees.
func NewDirectoryService(students, teachers, employees DirectoryStore, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		stores: []DirectoryStore{students, teachers, employees},
		logger: logger,
		now:    time.Now,
	}
}

// LookupByCode finds the first user carrying the badge code.
func (s *DirectoryService) LookupByCode(ctx context.Context, code string) (*models.UserRef, error) {
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code is required")
	}
	for _, store := range s.stores {
		ref, err := store.FindRefByCode(ctx, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up code")
		}
		return ref, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

// LookupForKiosk resolves a badge code for the kiosk card. When the stored
// sign-in stamp belongs to a previous local calendar day both stamps are
// cleared, so the kiosk never shows yesterday's times.
func (s *DirectoryService) LookupForKiosk(ctx context.Context, code string) (*models.UserRef, error) {
	ref, err := s.LookupByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if ref.SignInTime != nil && !sameLocalDay(*ref.SignInTime, s.now()) {
		store, ok := s.StoreFor(ref.UserType)
		if ok {
			if err := store.ClearDayStamps(ctx, ref.ID); err != nil {
				s.logger.Warn("failed to clear stale day stamps", zap.String("user_id", ref.ID), zap.Error(err))
			}
		}
		ref.SignInTime = nil
		ref.SignOutTime = nil
	}

	return ref, nil
}

// StoreFor returns the store backing the given user type.
func (s *DirectoryService) StoreFor(t models.UserType) (DirectoryStore, bool) {
	for _, store := range s.stores {
		if store.UserType() == t {
			return store, true
		}
	}
	return nil, false
}

// StoreForRole returns the store backing the given RBAC role.
func (s *DirectoryService) StoreForRole(role models.Role) (DirectoryStore, bool) {
	switch role {
	case models.RoleStudent:
		return s.StoreFor(models.UserTypeStudent)
	case models.RoleTeacher:
		return s.StoreFor(models.UserTypeTeacher)
	case models.RoleEmployee:
		return s.StoreFor(models.UserTypeEmployee)
	default:
		return nil, false
	}
}

func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
