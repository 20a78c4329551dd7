package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
)

// Taxonomy is a name/slug lookup table titles refer to.
type Taxonomy interface {
	models.Category | models.Genre
}

// TaxonomyRepository serves categories and genres, which share their shape
// and differ only in how titles are detached when a row is deleted.
type TaxonomyRepository[T Taxonomy] struct {
	db     *gorm.DB
	kind   string
	detach func(tx *gorm.DB, id uint) error
}

type (
	CategoryRepository = TaxonomyRepository[models.Category]
	GenreRepository    = TaxonomyRepository[models.Genre]
)

// NewCategoryRepository: deleting a category leaves its titles uncategorised.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{
		db:   db,
		kind: "category",
		detach: func(tx *gorm.DB, id uint) error {
			return tx.Model(&models.Title{}).Where("category_id = ?", id).Update("category_id", nil).Error
		},
	}
}

// NewGenreRepository: deleting a genre drops its title links.
func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{
		db:   db,
		kind: "genre",
		detach: func(tx *gorm.DB, id uint) error {
			return tx.Where("genre_id = ?", id).Delete(&models.TitleGenre{}).Error
		},
	}
}

func (r *TaxonomyRepository[T]) List(ctx context.Context, search string, page Page) ([]T, int64, error) {
	filter := containsScope("name", search)

	var total int64
	if err := r.db.WithContext(ctx).Model(new(T)).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.kind, err)
	}

	var items []T
	if err := r.db.WithContext(ctx).Scopes(filter, page.Scope).Order("id").Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.kind, err)
	}
	return items, total, nil
}

// GetBySlug returns (nil, nil) when the slug is unknown.
func (r *TaxonomyRepository[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	var item T
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.kind, err)
	}
	return &item, nil
}

// GetBySlugs returns the rows matching slugs ordered by id. Unknown slugs are
// simply absent from the result.
func (r *TaxonomyRepository[T]) GetBySlugs(ctx context.Context, slugs []string) ([]T, error) {
	var items []T
	if len(slugs) == 0 {
		return items, nil
	}
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("get %s by slugs: %w", r.kind, err)
	}
	return items, nil
}

func (r *TaxonomyRepository[T]) Create(ctx context.Context, item *T) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.kind, err)
	}
	return nil
}

// DeleteBySlug reports false when the slug is unknown.
func (r *TaxonomyRepository[T]) DeleteBySlug(ctx context.Context, slug string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(new(T)).Where("slug = ?", slug).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := r.detach(tx, ids[0]); err != nil {
			return err
		}
		if err := tx.Delete(new(T), ids[0]).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", r.kind, err)
	}
	return deleted, nil
}
