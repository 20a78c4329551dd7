package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// first returns (nil, nil) when no row matches.
func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// List returns users ordered by id; search matches part of the username.
func (r *UserRepository) List(ctx context.Context, search string, page Page) ([]models.User, int64, error) {
	filter := containsScope("username", search)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Scopes(filter, page.Scope).Order("id").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Update writes every profile column of user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// TouchLastLogin moves last_login to at, but only while the stored value is
// still the one user was loaded with. It reports false when another request
// stamped the row first. The new value is at least one microsecond after the
// old one, so it always differs at the precision confirmation codes sign.
func (r *UserRepository) TouchLastLogin(ctx context.Context, user *models.User, at time.Time) (bool, error) {
	at = at.UTC().Truncate(time.Microsecond)
	if user.LastLogin != nil && !at.After(*user.LastLogin) {
		at = user.LastLogin.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}

	query := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID)
	if user.LastLogin == nil {
		query = query.Where("last_login IS NULL")
	} else {
		query = query.Where("last_login = ?", *user.LastLogin)
	}

	result := query.Update("last_login", at)
	if result.Error != nil {
		return false, fmt.Errorf("update last login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	user.LastLogin = &at
	return true, nil
}

// Delete removes the user with their reviews and comments, including comments
// other users left on those reviews. Reports false when no such user exists.
func (r *UserRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authored := tx.Model(&models.Review{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("author_id = ? OR review_id IN (?)", id, authored).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return deleted, nil
}
