package service

import (
	"context"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

const (
	taxonomyNameMaxLen = 256
	slugMaxLen         = 50
)

// TaxonomyService manages categories or genres. Both are immutable once
// created: there is list, create and delete, and no update.
type TaxonomyService[T repository.Taxonomy] struct {
	repo  *repository.TaxonomyRepository[T]
	kind  string
	build func(name, slug string) *T
}

type (
	CategoryService = TaxonomyService[models.Category]
	GenreService    = TaxonomyService[models.Genre]
)

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{
		repo: repo,
		kind: "category",
		build: func(name, slug string) *models.Category {
			return &models.Category{Name: name, Slug: slug}
		},
	}
}

func NewGenreService(repo *repository.GenreRepository) *GenreService {
	return &GenreService{
		repo: repo,
		kind: "genre",
		build: func(name, slug string) *models.Genre {
			return &models.Genre{Name: name, Slug: slug}
		},
	}
}

func (s *TaxonomyService[T]) List(ctx context.Context, search string, page repository.Page) ([]T, int64, error) {
	items, total, err := s.repo.List(ctx, search, page)
	if err != nil {
		logger.Log.Error("Failed to list "+s.kind, zap.Error(err))
		return nil, 0, err
	}
	return items, total, nil
}

func (s *TaxonomyService[T]) Create(ctx context.Context, name, slug string) (*T, error) {
	errs := validation.Errors{}
	validation.Check(errs, "name", name, validation.Required, validation.MaxLen(taxonomyNameMaxLen))
	validation.Check(errs, "slug", slug, validation.Required, validation.MaxLen(slugMaxLen), validation.Slug)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Log.Warn("Duplicate slug", zap.String("kind", s.kind), zap.String("slug", slug))
		return nil, conflict("slug", s.kind+" with this slug already exists")
	}

	item := s.build(name, slug)
	if err := s.repo.Create(ctx, item); err != nil {
		if isDuplicate(err) {
			return nil, conflict("slug", s.kind+" with this slug already exists")
		}
		logger.Log.Error("Failed to create "+s.kind, zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Created "+s.kind, zap.String("slug", slug))
	return item, nil
}

func (s *TaxonomyService[T]) Delete(ctx context.Context, slug string) error {
	deleted, err := s.repo.DeleteBySlug(ctx, slug)
	if err != nil {
		logger.Log.Error("Failed to delete "+s.kind, zap.String("slug", slug), zap.Error(err))
		return err
	}
	if !deleted {
		return notFound(s.kind, slug)
	}

	logger.Log.Info("Deleted "+s.kind, zap.String("slug", slug))
	return nil
}
