package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "postgres")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userColumnNames = []string{"id", "registration_number", "full_name", "email", "password_hash", "role", "category", "flag_count", "is_suspended", "is_verified", "otp_code", "otp_expires_at", "created_at", "updated_at"}

func studentRow(id string, flags int, suspended bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumnNames).
		AddRow(id, "STU1001", "John Doe", "john.doe@student.edu", "hash", "student", nil, flags, suspended, true, nil, nil, now, now)
}

func TestFindByRegistrationNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE registration_number = $1 LIMIT 1")).
		WithArgs("STU1001").
		WillReturnRows(studentRow("u1", 1, false))

	user, err := repo.FindByRegistrationNumber(context.Background(), "STU1001")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Nil(t, user.Category)
	require.NotNil(t, user.PasswordHash)
	assert.Equal(t, 1, user.FlagCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .* FROM users WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	code := "123456"
	expires := time.Now().Add(10 * time.Minute)
	err := repo.Create(context.Background(), &models.User{
		ID: "u1", RegistrationNumber: "STU1001", FullName: "John Doe", Email: "john@x.edu",
		Role: models.RoleStudent, OTPCode: &code, OTPExpiresAt: &expires,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeOTP(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE users SET otp_code = NULL").
		WithArgs("u1", "123456", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET otp_code = NULL").
		WithArgs("u1", "123456", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ConsumeOTP(context.Background(), "u1", "123456", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeOTP(context.Background(), "u1", "123456", now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateOnlyUnverified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND is_verified = FALSE AND otp_code IS NULL")).
		WithArgs("u1", "hash", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Activate(context.Background(), "u1", "hash", now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role = $1 ORDER BY created_at DESC")).
		WithArgs(models.RoleStudent).
		WillReturnRows(studentRow("u1", 0, false))

	users, err := repo.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustFlagsCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(studentRow("u1", 2, false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET flag_count = $2, is_suspended = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("u1", 3, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	transition, err := repo.AdjustFlags(context.Background(), "u1", func(user models.User) (models.FlagState, error) {
		return models.FlagState{FlagCount: user.FlagCount + 1, IsSuspended: true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, transition.Before.FlagCount)
	assert.Equal(t, 3, transition.After.FlagCount)
	assert.True(t, transition.Suspended())
	assert.Equal(t, "STU1001", transition.RegistrationNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustFlagsRollsBackOnCallbackError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("u1").WillReturnRows(studentRow("u1", 0, false))
	mock.ExpectRollback()

	refuse := errors.New("not a student")
	_, err := repo.AdjustFlags(context.Background(), "u1", func(models.User) (models.FlagState, error) {
		return models.FlagState{}, refuse
	})
	assert.ErrorIs(t, err, refuse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustFlagsMissingUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.AdjustFlags(context.Background(), "ghost", func(u models.User) (models.FlagState, error) {
		return u.FlagState(), nil
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedUserSkipsExisting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("ON CONFLICT DO NOTHING").WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Seed(context.Background(), &models.User{ID: "u1", RegistrationNumber: "CENTRAL_ADMIN", Role: models.RoleCentralAdmin})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{ID: "u2", RegistrationNumber: "STU1002", Email: "john@x.edu", Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}
