package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-complaints-api/internal/models"
)

// StudentRepository reads the enrolment directory.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a student directory repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByRegistrationNumber returns the directory entry for a registration number.
func (r *StudentRepository) FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*models.DirectoryStudent, error) {
	const query = `SELECT id, registration_number, name, email, created_at FROM students WHERE registration_number = $1 LIMIT 1`
	var student models.DirectoryStudent
	if err := r.db.GetContext(ctx, &student, query, registrationNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find directory student: %w", err)
	}
	return &student, nil
}

// Seed inserts a directory entry unless it already exists.
func (r *StudentRepository) Seed(ctx context.Context, student *models.DirectoryStudent) (bool, error) {
	const query = `INSERT INTO students (id, registration_number, name, email, created_at)
VALUES (:id, :registration_number, :name, :email, :created_at)
ON CONFLICT DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return false, fmt.Errorf("seed directory student: %w", err)
	}
	return affected(res)
}
