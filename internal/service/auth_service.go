package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Baaaki/yamdb/internal/mailer"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

const (
	usernameMaxLen = 150
	emailMaxLen    = 254

	confirmationSubject = "YaMDb confirmation code"
)

// ConfirmationCodes issues and verifies the codes mailed on signup.
type ConfirmationCodes interface {
	Make(user *models.User) string
	Check(user *models.User, code string) bool
}

type AuthService struct {
	userRepo      *repository.UserRepository
	codes         ConfirmationCodes
	mail          mailer.Sender
	jwtSecret     string
	jwtExpiration time.Duration
	now           func() time.Time
}

func NewAuthService(
	userRepo *repository.UserRepository,
	codes ConfirmationCodes,
	mail mailer.Sender,
	jwtSecret string,
	jwtExpiration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		codes:         codes,
		mail:          mail,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

// WithClock returns a copy of s that stamps last login from now.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	clone := *s
	clone.now = now
	return &clone
}

// SignUp registers (username, email) and mails a confirmation code.
//
// Repeating a signup with the exact pair of an existing account re-sends a
// fresh code. A pair where only one half matches an account is a conflict.
// A failed delivery is logged and does not undo the registration.
func (s *AuthService) SignUp(ctx context.Context, username, email string) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Processing signup",
		zap.String("username", username),
		zap.String("email", email),
	)

	// 1. Validate input
	errs := validation.Errors{}
	validation.Check(errs, "username", username, validation.Required, validation.MaxLen(usernameMaxLen), validation.Username)
	validation.Check(errs, "email", email, validation.Required, validation.MaxLen(emailMaxLen), validation.Email)
	if err := errs.Err(); err != nil {
		logger.Log.Warn("Signup validation failed",
			zap.String("username", username),
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Resolve against existing accounts
	user, err := s.resolveSignup(ctx, username, email)
	if err != nil {
		return nil, err
	}

	// 3. Create the account if this is a first signup
	if user == nil {
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if isDuplicate(err) {
				// Lost a race with a concurrent signup for the same name or address.
				return nil, s.signupConflict(ctx, username)
			}
			logger.Log.Error("Failed to create user",
				zap.String("username", username),
				zap.Error(err),
			)
			return nil, err
		}
		logger.Log.Info("User created by signup",
			zap.Uint("user_id", user.ID),
			zap.String("username", username),
		)
	}

	// 4. Mail the confirmation code
	code := s.codes.Make(user)
	body := fmt.Sprintf("Hello, %s.\nYour confirmation code: %s", user.Username, code)
	if err := s.mail.Send(ctx, user.Email, confirmationSubject, body); err != nil {
		logger.Log.Error("Failed to deliver confirmation code",
			zap.Uint("user_id", user.ID),
			zap.String("email", user.Email),
			zap.Error(err),
		)
	}

	logger.Log.Info("Signup processed",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

// resolveSignup returns the existing account owning both username and email,
// nil when neither is taken, or a ConflictError when exactly one matches.
func (s *AuthService) resolveSignup(ctx context.Context, username, email string) (*models.User, error) {
	byName, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Error("Failed to check username existence",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}
	byEmail, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	switch {
	case byName == nil && byEmail == nil:
		return nil, nil
	case byName != nil && byEmail != nil && byName.ID == byEmail.ID:
		return byName, nil
	case byName != nil:
		logger.Log.Warn("Signup username belongs to another email",
			zap.String("username", username),
		)
		return nil, conflict("username", "a user with this username already exists")
	default:
		logger.Log.Warn("Signup email belongs to another username",
			zap.String("email", email),
		)
		return nil, conflict("email", "a user with this email already exists")
	}
}

func (s *AuthService) signupConflict(ctx context.Context, username string) error {
	if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing != nil {
		return conflict("username", "a user with this username already exists")
	}
	return conflict("email", "a user with this email already exists")
}

// IssueToken exchanges a confirmation code for an access token. Success
// stamps the user's last login, which invalidates the code.
func (s *AuthService) IssueToken(ctx context.Context, username, code string) (string, error) {
	errs := validation.Errors{}
	validation.Check(errs, "username", username, validation.Required)
	validation.Check(errs, "confirmation_code", code, validation.Required)
	if err := errs.Err(); err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Error("Failed to get user by username",
			zap.String("username", username),
			zap.Error(err),
		)
		return "", err
	}
	if user == nil {
		logger.Log.Warn("Token requested for unknown user",
			zap.String("username", username),
		)
		return "", notFound("user", username)
	}

	if !s.codes.Check(user, code) {
		logger.Log.Warn("Invalid confirmation code",
			zap.Uint("user_id", user.ID),
			zap.String("username", username),
		)
		return "", ErrInvalidCode
	}

	stamped, err := s.userRepo.TouchLastLogin(ctx, user, s.now())
	if err != nil {
		logger.Log.Error("Failed to stamp last login",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return "", err
	}
	if !stamped {
		logger.Log.Warn("Confirmation code already spent",
			zap.Uint("user_id", user.ID),
			zap.String("username", username),
		)
		return "", ErrInvalidCode
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return "", err
	}

	logger.Log.Info("Access token issued",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return token, nil
}
