package service

import (
	"context"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

const nameMaxLen = 150

// UserPatch carries the profile fields a request supplied; nil means "not sent".
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List(ctx context.Context, search string, page repository.Page) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, search, page)
	if err != nil {
		logger.Log.Error("Failed to list users", zap.Error(err))
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user", username)
	}
	return user, nil
}

// Create registers a user on behalf of an admin. Username and email are required.
func (s *UserService) Create(ctx context.Context, input UserPatch) (*models.User, error) {
	errs := validation.Errors{}
	if input.Username == nil {
		errs.Add("username", validation.ErrRequired.Error())
	}
	if input.Email == nil {
		errs.Add("email", validation.ErrRequired.Error())
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user := &models.User{Role: models.RoleUser}
	if err := s.apply(ctx, user, input); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, s.translateWriteError(ctx, user, err)
	}

	logger.Log.Info("User created by admin",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Update applies an admin's partial update to the user named username.
func (s *UserService) Update(ctx context.Context, username string, patch UserPatch) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, user, patch)
}

// UpdateSelf applies a user's partial update to their own profile. Any role
// in the patch is replaced by the caller's current role.
func (s *UserService) UpdateSelf(ctx context.Context, actor *models.User, patch UserPatch) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if patch.Role != nil && *patch.Role != actor.Role {
		logger.Log.Warn("Ignoring role change in self update",
			zap.Uint("user_id", actor.ID),
			zap.String("requested_role", string(*patch.Role)),
		)
	}
	current := actor.Role
	patch.Role = &current

	user := *actor
	return s.save(ctx, &user, patch)
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	user, err := s.Get(ctx, username)
	if err != nil {
		return err
	}

	deleted, err := s.userRepo.Delete(ctx, user.ID)
	if err != nil {
		logger.Log.Error("Failed to delete user",
			zap.String("username", username),
			zap.Error(err),
		)
		return err
	}
	if !deleted {
		return notFound("user", username)
	}

	logger.Log.Info("User deleted", zap.String("username", username))
	return nil
}

func (s *UserService) save(ctx context.Context, user *models.User, patch UserPatch) (*models.User, error) {
	if err := s.apply(ctx, user, patch); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, s.translateWriteError(ctx, user, err)
	}

	logger.Log.Info("User updated",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return user, nil
}

// apply validates patch and copies it onto user. Username and email must stay
// unique; user.ID == 0 means user is not stored yet.
func (s *UserService) apply(ctx context.Context, user *models.User, patch UserPatch) error {
	errs := validation.Errors{}
	if patch.Username != nil {
		validation.Check(errs, "username", *patch.Username, validation.Required, validation.MaxLen(usernameMaxLen), validation.Username)
	}
	if patch.Email != nil {
		validation.Check(errs, "email", *patch.Email, validation.Required, validation.MaxLen(emailMaxLen), validation.Email)
	}
	if patch.FirstName != nil {
		validation.Check(errs, "first_name", *patch.FirstName, validation.MaxLen(nameMaxLen))
	}
	if patch.LastName != nil {
		validation.Check(errs, "last_name", *patch.LastName, validation.MaxLen(nameMaxLen))
	}
	if patch.Role != nil {
		validation.Check(errs, "role", *patch.Role, validation.OneOf(models.Roles...))
	}
	if err := errs.Err(); err != nil {
		return err
	}

	if patch.Username != nil && *patch.Username != user.Username {
		taken, err := s.userRepo.GetByUsername(ctx, *patch.Username)
		if err != nil {
			return err
		}
		if taken != nil && taken.ID != user.ID {
			return conflict("username", "a user with this username already exists")
		}
		user.Username = *patch.Username
	}
	if patch.Email != nil && *patch.Email != user.Email {
		taken, err := s.userRepo.GetByEmail(ctx, *patch.Email)
		if err != nil {
			return err
		}
		if taken != nil && taken.ID != user.ID {
			return conflict("email", "a user with this email already exists")
		}
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	return nil
}

// translateWriteError maps a unique-index failure to the field that collided.
func (s *UserService) translateWriteError(ctx context.Context, user *models.User, err error) error {
	if !isDuplicate(err) {
		logger.Log.Error("Failed to write user",
			zap.String("username", user.Username),
			zap.Error(err),
		)
		return err
	}
	if taken, lookupErr := s.userRepo.GetByUsername(ctx, user.Username); lookupErr == nil && taken != nil && taken.ID != user.ID {
		return conflict("username", "a user with this username already exists")
	}
	return conflict("email", "a user with this email already exists")
}

// EnsureSuperuser creates the superuser account unless a user with that
// username already exists. It reports whether a user was created.
func (s *UserService) EnsureSuperuser(ctx context.Context, username, email string) (*models.User, bool, error) {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	role := models.RoleAdmin
	user := &models.User{Role: role, IsSuperuser: true}
	if err := s.apply(ctx, user, UserPatch{Username: &username, Email: &email, Role: &role}); err != nil {
		return nil, false, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, s.translateWriteError(ctx, user, err)
	}

	logger.Log.Info("Superuser created",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return user, true, nil
}
