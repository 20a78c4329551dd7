package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListByTitle returns the title's reviews, newest first, with authors loaded.
func (r *ReviewRepository) ListByTitle(ctx context.Context, titleID uint, page Page) ([]models.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("title_id = ?", titleID).
		Scopes(page.Scope).
		Order("pub_date DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// GetByID looks the review up within its title; (nil, nil) if absent.
func (r *ReviewRepository) GetByID(ctx context.Context, titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

func (r *ReviewRepository) ExistsForAuthor(ctx context.Context, titleID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return count > 0, nil
}

// Create inserts the review. A second review by the same author for the same
// title fails with gorm.ErrDuplicatedKey from the unique index.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// Update writes text and score only; title, author and pub_date never change.
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).
		Model(&models.Review{ID: review.ID}).
		Select("text", "score").
		Updates(map[string]interface{}{"text": review.Text, "score": review.Score}).Error
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes the review and its comments.
func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Review{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
