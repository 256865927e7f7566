package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
	"github.com/noah-isme/campus-complaints-api/pkg/config"
	"github.com/noah-isme/campus-complaints-api/pkg/database"
	"github.com/noah-isme/campus-complaints-api/pkg/logger"
)

type staffAccount struct {
	registrationNumber string
	fullName           string
	email              string
	role               models.UserRole
	category           *models.Category
}

func directoryStudents(now time.Time) []models.DirectoryStudent {
	return []models.DirectoryStudent{
		{ID: uuid.NewString(), RegistrationNumber: "STU1001", Name: "John Doe", Email: "john.doe@student.edu", CreatedAt: now},
		{ID: uuid.NewString(), RegistrationNumber: "STU1002", Name: "Jane Smith", Email: "jane.smith@student.edu", CreatedAt: now},
		{ID: uuid.NewString(), RegistrationNumber: "STU1003", Name: "Bob Johnson", Email: "bob.johnson@student.edu", CreatedAt: now},
	}
}

func staffAccounts() []staffAccount {
	category := func(c models.Category) *models.Category { return &c }
	return []staffAccount{
		{"ADMIN_ACADEMICS", "Academics Admin", "academics.admin@school.edu", models.RoleSchoolAdmin, category(models.CategoryAcademics)},
		{"ADMIN_GENERAL", "General Admin", "general.admin@school.edu", models.RoleSchoolAdmin, category(models.CategoryGeneral)},
		{"ADMIN_HOSTEL", "Hostel Admin", "hostel.admin@school.edu", models.RoleSchoolAdmin, category(models.CategoryHostel)},
		{"CENTRAL_ADMIN", "Central Admin", "central.admin@school.edu", models.RoleCentralAdmin, nil},
	}
}

// staffUsers builds verified staff accounts sharing one password hash.
func staffUsers(hash string, now time.Time) []models.User {
	accounts := staffAccounts()
	users := make([]models.User, 0, len(accounts))
	for _, account := range accounts {
		h := hash
		users = append(users, models.User{
			ID:                 uuid.NewString(),
			RegistrationNumber: account.registrationNumber,
			FullName:           account.fullName,
			Email:              account.email,
			PasswordHash:       &h,
			Role:               account.role,
			Category:           account.category,
			IsVerified:         true,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}
	return users
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.StaffPassword), cfg.Auth.BcryptCost)
	if err != nil {
		logr.Fatal("failed to hash staff password", zap.Error(err))
	}

	now := time.Now().UTC()
	students := repository.NewStudentRepository(db)
	for _, student := range directoryStudents(now) {
		student := student
		created, err := students.Seed(ctx, &student)
		if err != nil {
			logr.Fatal("failed to seed directory student", zap.String("registration_number", student.RegistrationNumber), zap.Error(err))
		}
		logr.Info("directory student", zap.String("registration_number", student.RegistrationNumber), zap.Bool("created", created))
	}

	users := repository.NewUserRepository(db)
	for _, user := range staffUsers(string(hash), now) {
		user := user
		created, err := users.Seed(ctx, &user)
		if err != nil {
			logr.Fatal("failed to seed staff account", zap.String("registration_number", user.RegistrationNumber), zap.Error(err))
		}
		logr.Info("staff account", zap.String("registration_number", user.RegistrationNumber), zap.String("role", string(user.Role)), zap.Bool("created", created))
	}

	logr.Info("seed complete")
}
