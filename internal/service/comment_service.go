package service

import (
	"context"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// CommentService manages comments. The parent review is always resolved
// within the title named in the request, so a review id under the wrong
// title is reported as not found.
type CommentService struct {
	commentRepo *repository.CommentRepository
	reviews     *ReviewService
}

func NewCommentService(commentRepo *repository.CommentRepository, reviews *ReviewService) *CommentService {
	return &CommentService{commentRepo: commentRepo, reviews: reviews}
}

func (s *CommentService) List(ctx context.Context, titleID, reviewID uint, page repository.Page) ([]models.Comment, int64, error) {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	comments, total, err := s.commentRepo.ListByReview(ctx, reviewID, page)
	if err != nil {
		logger.Log.Error("Failed to list comments", zap.Uint("review_id", reviewID), zap.Error(err))
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *CommentService) Get(ctx context.Context, titleID, reviewID, commentID uint) (*models.Comment, error) {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, notFound("comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) Create(ctx context.Context, actor *models.User, titleID, reviewID uint, text *string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateCommentText(text, true); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     *text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.Uint("review_id", reviewID),
			zap.Uint("author_id", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}
	comment.Author = *actor

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", reviewID),
		zap.Uint("author_id", actor.ID),
	)
	return comment, nil
}

// Update replaces the text. A partial update without text is a no-op.
func (s *CommentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID uint, text *string, partial bool) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	comment, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, comment.AuthorID); err != nil {
		logger.Log.Warn("Comment update denied",
			zap.Uint("comment_id", commentID),
			zap.Uint("actor_id", actor.ID),
		)
		return nil, err
	}
	if err := validateCommentText(text, !partial); err != nil {
		return nil, err
	}
	if text == nil {
		return comment, nil
	}

	comment.Text = *text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		logger.Log.Error("Failed to update comment", zap.Uint("comment_id", commentID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Comment updated",
		zap.Uint("comment_id", commentID),
		zap.Uint("actor_id", actor.ID),
	)
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID uint) error {
	if actor == nil {
		return ErrUnauthorized
	}
	comment, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := authorize(actor, comment.AuthorID); err != nil {
		logger.Log.Warn("Comment delete denied",
			zap.Uint("comment_id", commentID),
			zap.Uint("actor_id", actor.ID),
		)
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		logger.Log.Error("Failed to delete comment", zap.Uint("comment_id", commentID), zap.Error(err))
		return err
	}

	logger.Log.Info("Comment deleted",
		zap.Uint("comment_id", commentID),
		zap.Uint("actor_id", actor.ID),
	)
	return nil
}

func validateCommentText(text *string, required bool) error {
	errs := validation.Errors{}
	switch {
	case text != nil:
		validation.Check(errs, "text", *text, validation.Required)
	case required:
		errs.Add("text", validation.ErrRequired.Error())
	}
	return errs.Err()
}
