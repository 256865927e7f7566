package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/repository"
	appErrors "github.com/noah-isme/campus-complaints-api/pkg/errors"
)

const otpDigits = 6

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	ConsumeOTP(ctx context.Context, id, code string, now time.Time) (bool, error)
	ReplaceOTP(ctx context.Context, id, code string, expiresAt, now time.Time) (bool, error)
	Activate(ctx context.Context, id, passwordHash string, now time.Time) (bool, error)
}

type directoryRepository interface {
	FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*models.DirectoryStudent, error)
}

type attemptCounter interface {
	Count(ctx context.Context, registrationNumber string) (int64, error)
	Increment(ctx context.Context, registrationNumber string) (int64, error)
	Reset(ctx context.Context, registrationNumber string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret    string
	TokenExpiry    time.Duration
	Issuer         string
	OTPTTL         time.Duration
	MaxOTPAttempts int
	BcryptCost     int
}

// AuthService registers, activates and authenticates accounts.
type AuthService struct {
	users     authUserRepository
	directory directoryRepository
	attempts  attemptCounter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	dummyHash []byte
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, directory directoryRepository, attempts attemptCounter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.TokenExpiry == 0 {
		config.TokenExpiry = 7 * 24 * time.Hour
	}
	if config.OTPTTL == 0 {
		config.OTPTTL = 10 * time.Minute
	}
	// Compared against when the account cannot log in so every failure costs one bcrypt round.
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), config.BcryptCost)
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", zap.Error(err))
	}
	return &AuthService{
		users:     users,
		directory: directory,
		attempts:  attempts,
		validator: validate,
		logger:    logger,
		config:    config,
		dummyHash: dummy,
	}
}

// Register creates an unverified student account and issues a one-time code.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) error {
	req.RegistrationNumber = strings.TrimSpace(req.RegistrationNumber)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.users.FindByRegistrationNumber(ctx, req.RegistrationNumber); err == nil {
		return appErrors.ErrDuplicateAccount
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Internal(err, "failed to look up account")
	}

	if _, err := s.directory.FindByRegistrationNumber(ctx, req.RegistrationNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrUnknownRegistrant
		}
		return appErrors.Internal(err, "failed to look up student directory")
	}

	code, err := randomCode(otpDigits)
	if err != nil {
		return appErrors.Internal(err, "failed to generate one-time code")
	}
	now := time.Now().UTC()
	expires := now.Add(s.config.OTPTTL)

	user := &models.User{
		ID:                 uuid.NewString(),
		RegistrationNumber: req.RegistrationNumber,
		FullName:           strings.TrimSpace(req.FullName),
		Email:              req.Email,
		Role:               models.RoleStudent,
		OTPCode:            &code,
		OTPExpiresAt:       &expires,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return appErrors.ErrDuplicateAccount
		}
		return appErrors.Internal(err, "failed to create account")
	}

	s.resetAttempts(ctx, req.RegistrationNumber)
	s.logOTP(req.RegistrationNumber, code, expires)
	return nil
}

// ResendCode replaces the one-time code of an account that is not yet active.
func (s *AuthService) ResendCode(ctx context.Context, req models.ResendCodeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resend payload")
	}

	user, err := s.users.FindByRegistrationNumber(ctx, req.RegistrationNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrUnknownRegistrant
		}
		return appErrors.Internal(err, "failed to look up account")
	}
	if user.IsVerified {
		return appErrors.ErrAlreadyVerified
	}

	code, err := randomCode(otpDigits)
	if err != nil {
		return appErrors.Internal(err, "failed to generate one-time code")
	}
	now := time.Now().UTC()
	expires := now.Add(s.config.OTPTTL)
	ok, err := s.users.ReplaceOTP(ctx, user.ID, code, expires, now)
	if err != nil {
		return appErrors.Internal(err, "failed to store one-time code")
	}
	if !ok {
		return appErrors.ErrAlreadyVerified
	}

	s.resetAttempts(ctx, req.RegistrationNumber)
	s.logOTP(req.RegistrationNumber, code, expires)
	return nil
}

// VerifyCode consumes the one-time code of an unverified account.
func (s *AuthService) VerifyCode(ctx context.Context, req models.VerifyCodeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}

	if s.config.MaxOTPAttempts > 0 {
		count, err := s.attempts.Count(ctx, req.RegistrationNumber)
		if err != nil {
			s.logger.Warn("failed to read otp attempts", zap.Error(err))
		} else if count >= int64(s.config.MaxOTPAttempts) {
			return appErrors.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByRegistrationNumber(ctx, req.RegistrationNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.recordFailedAttempt(ctx, req.RegistrationNumber)
			return appErrors.ErrInvalidOrExpiredCode
		}
		return appErrors.Internal(err, "failed to look up account")
	}
	if user.IsVerified {
		return appErrors.ErrInvalidOrExpiredCode
	}

	ok, err := s.users.ConsumeOTP(ctx, user.ID, req.OTPCode, time.Now().UTC())
	if err != nil {
		return appErrors.Internal(err, "failed to verify one-time code")
	}
	if !ok {
		s.recordFailedAttempt(ctx, req.RegistrationNumber)
		return appErrors.ErrInvalidOrExpiredCode
	}

	s.resetAttempts(ctx, req.RegistrationNumber)
	return nil
}

// SetPassword activates an account whose one-time code has been consumed.
func (s *AuthService) SetPassword(ctx context.Context, req models.SetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}

	user, err := s.users.FindByRegistrationNumber(ctx, req.RegistrationNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidOrExpiredCode, "one-time code has not been verified")
		}
		return appErrors.Internal(err, "failed to look up account")
	}
	if user.IsVerified {
		return appErrors.ErrAlreadyVerified
	}
	if user.OTPCode != nil {
		return appErrors.Clone(appErrors.ErrInvalidOrExpiredCode, "one-time code has not been verified")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}

	ok, err := s.users.Activate(ctx, user.ID, string(hash), time.Now().UTC())
	if err != nil {
		return appErrors.Internal(err, "failed to activate account")
	}
	if !ok {
		return appErrors.ErrAlreadyVerified
	}

	s.logger.Info("account activated", zap.String("registration_number", user.RegistrationNumber))
	return nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByRegistrationNumber(ctx, req.RegistrationNumber)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if user == nil || !user.CanAuthenticate() {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	// Suspension is checked after the password, not before it, so only the
	// password holder learns the account is suspended. A suspended account
	// with a wrong password gets InvalidCredentials like any other failure.
	if user.IsSuspended {
		return nil, appErrors.ErrAccountSuspended
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create session token")
	}

	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token into the current account and actor.
// Every call re-reads the account so suspensions apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, models.Actor, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, nil, appErrors.Internal(err, "failed to load user")
	}
	if !user.CanAuthenticate() {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "account is not active")
	}
	if user.IsSuspended {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "account suspended due to flags")
	}

	actor, err := models.ActorFor(user)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "account has no usable role")
	}
	return user, actor, nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) issueToken(user *models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.JWTClaims{
		UserID:             user.ID,
		RegistrationNumber: user.RegistrationNumber,
		Role:               user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, registrationNumber string) {
	if _, err := s.attempts.Increment(ctx, registrationNumber); err != nil {
		s.logger.Warn("failed to record otp attempt", zap.Error(err))
	}
}

func (s *AuthService) resetAttempts(ctx context.Context, registrationNumber string) {
	if err := s.attempts.Reset(ctx, registrationNumber); err != nil {
		s.logger.Warn("failed to reset otp attempts", zap.Error(err))
	}
}

// logOTP is the delivery channel for one-time codes.
func (s *AuthService) logOTP(registrationNumber, code string, expiresAt time.Time) {
	s.logger.Info("otp issued",
		zap.String("registration_number", registrationNumber),
		zap.String("otp_code", code),
		zap.Time("expires_at", expiresAt),
	)
}

func randomCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
