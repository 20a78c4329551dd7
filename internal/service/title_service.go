package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

const titleNameMaxLen = 256

// TitleInput is a title write payload. Category and genres are referenced by
// slug. A nil field was not sent.
type TitleInput struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genre       *[]string
}

type TitleService struct {
	titleRepo    *repository.TitleRepository
	categoryRepo *repository.CategoryRepository
	genreRepo    *repository.GenreRepository
}

func NewTitleService(
	titleRepo *repository.TitleRepository,
	categoryRepo *repository.CategoryRepository,
	genreRepo *repository.GenreRepository,
) *TitleService {
	return &TitleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
	}
}

func (s *TitleService) List(ctx context.Context, filter repository.TitleFilter, page repository.Page) ([]models.Title, int64, error) {
	titles, total, err := s.titleRepo.List(ctx, filter, page)
	if err != nil {
		logger.Log.Error("Failed to list titles", zap.Error(err))
		return nil, 0, err
	}
	return titles, total, nil
}

func (s *TitleService) Get(ctx context.Context, id uint) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, notFound("title", id)
	}
	return title, nil
}

// Create requires name, year, category and genre; description is optional.
func (s *TitleService) Create(ctx context.Context, input TitleInput) (*models.Title, error) {
	title := &models.Title{}
	genres, err := s.apply(ctx, title, input, false)
	if err != nil {
		return nil, err
	}
	if genres == nil {
		genres = []models.Genre{}
	}

	if err := s.titleRepo.Create(ctx, title, genres); err != nil {
		logger.Log.Error("Failed to create title", zap.String("name", title.Name), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
		zap.Int("genres", len(genres)),
	)
	return s.Get(ctx, title.ID)
}

// Update replaces the title (partial=false, same requirements as Create) or
// changes only the fields present in input (partial=true).
func (s *TitleService) Update(ctx context.Context, id uint, input TitleInput, partial bool) (*models.Title, error) {
	title, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	genres, err := s.apply(ctx, title, input, partial)
	if err != nil {
		return nil, err
	}

	if err := s.titleRepo.Update(ctx, title, genres); err != nil {
		logger.Log.Error("Failed to update title", zap.Uint("title_id", id), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Title updated", zap.Uint("title_id", id), zap.Bool("partial", partial))
	return s.Get(ctx, id)
}

func (s *TitleService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.titleRepo.Delete(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete title", zap.Uint("title_id", id), zap.Error(err))
		return err
	}
	if !deleted {
		return notFound("title", id)
	}

	logger.Log.Info("Title deleted", zap.Uint("title_id", id))
	return nil
}

// apply validates input, resolves slug references and copies the result onto
// title. It returns the genre set to store, or nil to leave links untouched.
// Nothing is written here, so a failure leaves the store unchanged.
func (s *TitleService) apply(ctx context.Context, title *models.Title, input TitleInput, partial bool) ([]models.Genre, error) {
	errs := validation.Errors{}

	if !partial {
		for field, missing := range map[string]bool{
			"name":     input.Name == nil,
			"year":     input.Year == nil,
			"category": input.Category == nil,
			"genre":    input.Genre == nil,
		} {
			if missing {
				errs.Add(field, validation.ErrRequired.Error())
			}
		}
	}
	if input.Name != nil {
		validation.Check(errs, "name", *input.Name, validation.Required, validation.MaxLen(titleNameMaxLen))
	}
	if input.Year != nil {
		validation.Check(errs, "year", *input.Year, validation.Year)
	}

	var category *models.Category
	if input.Category != nil {
		found, err := s.categoryRepo.GetBySlug(ctx, *input.Category)
		if err != nil {
			return nil, err
		}
		if found == nil {
			errs.Add("category", fmt.Sprintf("category with slug %q does not exist", *input.Category))
		}
		category = found
	}

	var genres []models.Genre
	if input.Genre != nil {
		slugs := dedupe(*input.Genre)
		found, err := s.genreRepo.GetBySlugs(ctx, slugs)
		if err != nil {
			return nil, err
		}
		if missing := missingSlugs(slugs, found); len(missing) > 0 {
			errs.Add("genre", fmt.Sprintf("genre with slug %s does not exist", strings.Join(missing, ", ")))
		}
		genres = found
		if genres == nil {
			genres = []models.Genre{}
		}
	}

	if err := errs.Err(); err != nil {
		logger.Log.Warn("Title validation failed", zap.Error(err))
		return nil, err
	}

	if input.Name != nil {
		title.Name = *input.Name
	}
	if input.Year != nil {
		title.Year = *input.Year
	}
	if input.Description != nil || !partial {
		title.Description = input.Description
	}
	if category != nil {
		title.CategoryID = &category.ID
		title.Category = category
	}
	if input.Genre != nil {
		title.Genres = genres
	}
	return genres, nil
}

func dedupe(slugs []string) []string {
	seen := make(map[string]struct{}, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

func missingSlugs(want []string, found []models.Genre) []string {
	have := make(map[string]struct{}, len(found))
	for _, g := range found {
		have[g.Slug] = struct{}{}
	}
	var missing []string
	for _, slug := range want {
		if _, ok := have[slug]; !ok {
			missing = append(missing, fmt.Sprintf("%q", slug))
		}
	}
	sort.Strings(missing)
	return missing
}
