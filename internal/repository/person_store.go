package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

// personColumns are the identity columns shared by the three role tables.
const personColumns = "id, code, first_name, middle_name, last_name, email, password_hash, phone, address, image_url, sign_in_time, sign_out_time, created_at, updated_at"

// personStore implements the operations common to students, teachers and
// employees against a single role table. Role repositories embed it.
type personStore struct {
	db       *sqlx.DB
	table    string
	userType models.UserType
}

// UserType reports which table this store backs.
func (s *personStore) UserType() models.UserType {
	return s.userType
}

// FindRefByCode returns the slim person projection for a badge code.
func (s *personStore) FindRefByCode(ctx context.Context, code string) (*models.UserRef, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE code = $1", personColumns, s.table)
	var ref models.UserRef
	if err := s.db.GetContext(ctx, &ref, query, code); err != nil {
		return nil, err
	}
	ref.UserType = s.userType
	return &ref, nil
}

// FindRefByEmail returns the slim person projection for a login email.
func (s *personStore) FindRefByEmail(ctx context.Context, email string) (*models.UserRef, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = $1", personColumns, s.table)
	var ref models.UserRef
	if err := s.db.GetContext(ctx, &ref, query, email); err != nil {
		return nil, err
	}
	ref.UserType = s.userType
	return &ref, nil
}

// FindRefByID returns the slim person projection by primary key.
func (s *personStore) FindRefByID(ctx context.Context, id string) (*models.UserRef, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", personColumns, s.table)
	var ref models.UserRef
	if err := s.db.GetContext(ctx, &ref, query, id); err != nil {
		return nil, err
	}
	ref.UserType = s.userType
	return &ref, nil
}

// StampSignIn overwrites the most-recent sign-in timestamp.
func (s *personStore) StampSignIn(ctx context.Context, id string, ts time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET sign_in_time = $2, updated_at = $2 WHERE id = $1", s.table)
	if _, err := s.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("stamp sign-in on %s: %w", s.table, err)
	}
	return nil
}

// StampSignOut overwrites the most-recent sign-out timestamp.
func (s *personStore) StampSignOut(ctx context.Context, id string, ts time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET sign_out_time = $2, updated_at = $2 WHERE id = $1", s.table)
	if _, err := s.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("stamp sign-out on %s: %w", s.table, err)
	}
	return nil
}

// ClearDayStamps nulls both stamps, used when the stored sign-in belongs to
// a previous calendar day.
func (s *personStore) ClearDayStamps(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET sign_in_time = NULL, sign_out_time = NULL, updated_at = $2 WHERE id = $1", s.table)
	if _, err := s.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear day stamps on %s: %w", s.table, err)
	}
	return nil
}

// UpdatePassword replaces the stored credential hash.
func (s *personStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET password_hash = $2, updated_at = $3 WHERE id = $1", s.table)
	if _, err := s.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password on %s: %w", s.table, err)
	}
	return nil
}

// Delete removes the row, returning sql.ErrNoRows when nothing matched.
func (s *personStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted %s rows: %w", s.table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the number of rows in the role table.
func (s *personStore) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	var count int
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return count, nil
}

// ExistsByCode checks code uniqueness, optionally excluding an ID.
func (s *personStore) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return s.existsBy(ctx, "code", code, excludeID)
}

// ExistsByEmail checks email uniqueness, optionally excluding an ID.
func (s *personStore) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return s.existsBy(ctx, "email", email, excludeID)
}

func (s *personStore) existsBy(ctx context.Context, column, value, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = $1", s.table, column)
	args := []interface{}{value}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := s.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s %s: %w", s.table, column, err)
	}
	return true, nil
}
