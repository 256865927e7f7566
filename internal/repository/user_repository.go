package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// ErrDuplicateUser is returned when a registration number or email is already taken.
var ErrDuplicateUser = errors.New("user already exists")

const uniqueViolation = "23505"

const userColumns = `id, registration_number, full_name, email, password_hash, role, category, flag_count, is_suspended, is_verified, otp_code, otp_expires_at, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindByRegistrationNumber returns a user by registration number.
func (r *UserRepository) FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE registration_number = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, registrationNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by registration number: %w", err)
	}
	return &user, nil
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (id, registration_number, full_name, email, password_hash, role, category, flag_count, is_suspended, is_verified, otp_code, otp_expires_at, created_at, updated_at)
VALUES (:id, :registration_number, :full_name, :email, :password_hash, :role, :category, :flag_count, :is_suspended, :is_verified, :otp_code, :otp_expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateUser
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Seed inserts the account unless its registration number or email is taken.
// It reports whether a row was written.
func (r *UserRepository) Seed(ctx context.Context, user *models.User) (bool, error) {
	const query = `INSERT INTO users (id, registration_number, full_name, email, password_hash, role, category, flag_count, is_suspended, is_verified, otp_code, otp_expires_at, created_at, updated_at)
VALUES (:id, :registration_number, :full_name, :email, :password_hash, :role, :category, :flag_count, :is_suspended, :is_verified, :otp_code, :otp_expires_at, :created_at, :updated_at)
ON CONFLICT DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return false, fmt.Errorf("seed user: %w", err)
	}
	return affected(res)
}

// ConsumeOTP clears a matching, unexpired code of an unverified account.
// It reports false when the code did not match or was already used.
func (r *UserRepository) ConsumeOTP(ctx context.Context, id, code string, now time.Time) (bool, error) {
	const query = `UPDATE users SET otp_code = NULL, otp_expires_at = NULL, updated_at = $3
WHERE id = $1 AND otp_code = $2 AND otp_expires_at > $3 AND is_verified = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, code, now)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return affected(res)
}

// ReplaceOTP stores a fresh code for an account that has not been activated.
func (r *UserRepository) ReplaceOTP(ctx context.Context, id, code string, expiresAt, now time.Time) (bool, error) {
	const query = `UPDATE users SET otp_code = $2, otp_expires_at = $3, updated_at = $4 WHERE id = $1 AND is_verified = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, code, expiresAt, now)
	if err != nil {
		return false, fmt.Errorf("replace otp: %w", err)
	}
	return affected(res)
}

// Activate sets the password hash and marks the account verified. Only an
// unverified account whose code has been consumed is updated.
func (r *UserRepository) Activate(ctx context.Context, id, passwordHash string, now time.Time) (bool, error) {
	const query = `UPDATE users SET password_hash = $2, is_verified = TRUE, otp_code = NULL, otp_expires_at = NULL, updated_at = $3
WHERE id = $1 AND is_verified = FALSE AND otp_code IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, now)
	if err != nil {
		return false, fmt.Errorf("activate user: %w", err)
	}
	return affected(res)
}

// ListStudents returns every student account, newest first.
func (r *UserRepository) ListStudents(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return users, nil
}

// AdjustFlags serialises a read-modify-write of the user's flag state. The
// row is locked for the duration of fn; an error from fn aborts the update.
func (r *UserRepository) AdjustFlags(ctx context.Context, id string, fn func(user models.User) (models.FlagState, error)) (transition *models.FlagTransition, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin flag transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock user flags: %w", err)
	}

	next, err := fn(user)
	if err != nil {
		return nil, err
	}

	if err = updateFlags(ctx, tx, user.ID, next, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit flag transaction: %w", err)
	}
	return &models.FlagTransition{
		UserID:             user.ID,
		RegistrationNumber: user.RegistrationNumber,
		Before:             user.FlagState(),
		After:              next,
	}, nil
}

func updateFlags(ctx context.Context, tx *sqlx.Tx, id string, state models.FlagState, now time.Time) error {
	const query = `UPDATE users SET flag_count = $2, is_suspended = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, state.FlagCount, state.IsSuspended, now); err != nil {
		return fmt.Errorf("update user flags: %w", err)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
