package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ratingColumn computes Title.Rating. AVG over no rows is NULL, which keeps
// unrated titles distinct from a zero average.
const ratingColumn = "(SELECT AVG(CAST(reviews.score AS FLOAT)) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

// TitleFilter narrows a title list. Zero-valued fields are ignored; the rest
// combine with AND.
type TitleFilter struct {
	Name     string // case-insensitive substring
	Year     *int
	Category string // category slug
	Genre    string // genre slug
}

func (f TitleFilter) scope(db *gorm.DB) *gorm.DB {
	db = containsScope("titles.name", f.Name)(db)
	if f.Year != nil {
		db = db.Where("titles.year = ?", *f.Year)
	}
	if f.Category != "" {
		db = db.Where("titles.category_id IN (SELECT id FROM categories WHERE slug = ?)", f.Category)
	}
	if f.Genre != "" {
		db = db.Where(
			"titles.id IN (SELECT tg.title_id FROM title_genres tg JOIN genres g ON g.id = tg.genre_id WHERE g.slug = ?)",
			f.Genre,
		)
	}
	return db
}

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

func (r *TitleRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Title{}).
		Select("titles.*, " + ratingColumn).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.id") })
}

func (r *TitleRepository) List(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	var titles []models.Title
	if err := r.withDetails(ctx).Scopes(filter.scope, page.Scope).Order("titles.id").Find(&titles).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return titles, total, nil
}

// GetByID loads the title with category, genres and rating; (nil, nil) if absent.
func (r *TitleRepository) GetByID(ctx context.Context, id uint) (*models.Title, error) {
	var title models.Title
	err := r.withDetails(ctx).Where("titles.id = ?", id).First(&title).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get title: %w", err)
	}
	return &title, nil
}

func (r *TitleRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return count > 0, nil
}

// Create inserts the title row and its genre links in one transaction.
func (r *TitleRepository) Create(ctx context.Context, title *models.Title, genres []models.Genre) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(title).Error; err != nil {
			return err
		}
		return replaceGenres(tx, title.ID, genres)
	})
	if err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

// Update writes the scalar columns of title and, when genres is non-nil,
// replaces the genre links. Both happen in one transaction.
func (r *TitleRepository) Update(ctx context.Context, title *models.Title, genres []models.Genre) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Title{ID: title.ID}).
			Select("name", "year", "description", "category_id").
			Updates(map[string]interface{}{
				"name":        title.Name,
				"year":        title.Year,
				"description": title.Description,
				"category_id": title.CategoryID,
			}).Error
		if err != nil {
			return err
		}
		if genres == nil {
			return nil
		}
		return replaceGenres(tx, title.ID, genres)
	})
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

func replaceGenres(tx *gorm.DB, titleID uint, genres []models.Genre) error {
	if err := tx.Where("title_id = ?", titleID).Delete(&models.TitleGenre{}).Error; err != nil {
		return err
	}
	if len(genres) == 0 {
		return nil
	}
	links := make([]models.TitleGenre, 0, len(genres))
	for _, g := range genres {
		links = append(links, models.TitleGenre{TitleID: titleID, GenreID: g.ID})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// Delete removes the title with its reviews, their comments and genre links.
// Reports false when no such title exists.
func (r *TitleRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Title{}, id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete title: %w", err)
	}
	return deleted, nil
}
