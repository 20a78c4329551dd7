package service

import (
	"context"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// ReviewInput is a review write payload; nil means the field was not sent.
type ReviewInput struct {
	Text  *string
	Score *int
}

type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	titleRepo  *repository.TitleRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, titleRepo *repository.TitleRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, titleRepo: titleRepo}
}

func (s *ReviewService) List(ctx context.Context, titleID uint, page repository.Page) ([]models.Review, int64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	reviews, total, err := s.reviewRepo.ListByTitle(ctx, titleID, page)
	if err != nil {
		logger.Log.Error("Failed to list reviews", zap.Uint("title_id", titleID), zap.Error(err))
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, reviewID uint) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, notFound("review", reviewID)
	}
	return review, nil
}

// Create stores actor's review of the title. Each author may review a title once.
func (s *ReviewService) Create(ctx context.Context, actor *models.User, titleID uint, input ReviewInput) (*models.Review, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	errs := validation.Errors{}
	if input.Text == nil {
		errs.Add("text", validation.ErrRequired.Error())
	}
	if input.Score == nil {
		errs.Add("score", validation.ErrRequired.Error())
	}
	validateReview(errs, input)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsForAuthor(ctx, titleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Log.Warn("Duplicate review rejected",
			zap.Uint("title_id", titleID),
			zap.Uint("author_id", actor.ID),
		)
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     *input.Text,
		Score:    *input.Score,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateReview
		}
		logger.Log.Error("Failed to create review",
			zap.Uint("title_id", titleID),
			zap.Uint("author_id", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}
	review.Author = *actor

	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.Uint("author_id", actor.ID),
		zap.Int("score", review.Score),
	)
	return review, nil
}

// Update rewrites text and score. partial=false requires both fields.
func (s *ReviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID uint, input ReviewInput, partial bool) (*models.Review, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, review.AuthorID); err != nil {
		logger.Log.Warn("Review update denied",
			zap.Uint("review_id", reviewID),
			zap.Uint("actor_id", actor.ID),
		)
		return nil, err
	}

	errs := validation.Errors{}
	if !partial {
		if input.Text == nil {
			errs.Add("text", validation.ErrRequired.Error())
		}
		if input.Score == nil {
			errs.Add("score", validation.ErrRequired.Error())
		}
	}
	validateReview(errs, input)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if input.Text != nil {
		review.Text = *input.Text
	}
	if input.Score != nil {
		review.Score = *input.Score
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		logger.Log.Error("Failed to update review", zap.Uint("review_id", reviewID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Review updated",
		zap.Uint("review_id", reviewID),
		zap.Uint("actor_id", actor.ID),
	)
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID uint) error {
	if actor == nil {
		return ErrUnauthorized
	}
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := authorize(actor, review.AuthorID); err != nil {
		logger.Log.Warn("Review delete denied",
			zap.Uint("review_id", reviewID),
			zap.Uint("actor_id", actor.ID),
		)
		return err
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		logger.Log.Error("Failed to delete review", zap.Uint("review_id", reviewID), zap.Error(err))
		return err
	}

	logger.Log.Info("Review deleted",
		zap.Uint("review_id", reviewID),
		zap.Uint("actor_id", actor.ID),
	)
	return nil
}

func (s *ReviewService) requireTitle(ctx context.Context, titleID uint) error {
	exists, err := s.titleRepo.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("title", titleID)
	}
	return nil
}

func validateReview(errs validation.Errors, input ReviewInput) {
	if input.Text != nil {
		validation.Check(errs, "text", *input.Text, validation.Required)
	}
	if input.Score != nil {
		validation.Check(errs, "score", *input.Score, validation.Score)
	}
}
