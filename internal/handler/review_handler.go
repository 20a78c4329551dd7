package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
	pageSize      int
}

func NewReviewHandler(reviewService *service.ReviewService, pageSize int) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, pageSize: pageSize}
}

type ReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// GET /v1/titles/:title_id/reviews/
func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	page, ok := pageFromQuery(c, h.pageSize)
	if !ok {
		return
	}
	reviews, total, err := h.reviewService.List(c.Request.Context(), titleID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, mapSlice(reviews, newReviewResponse))
}

// POST /v1/titles/:title_id/reviews/
func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Create(c.Request.Context(), middleware.CurrentUser(c), titleID,
		service.ReviewInput{Text: req.Text, Score: req.Score})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReviewResponse(review))
}

// GET /v1/titles/:title_id/reviews/:review_id/
func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	review, err := h.reviewService.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(review))
}

func (h *ReviewHandler) Replace(c *gin.Context) {
	h.update(c, false)
}

func (h *ReviewHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *ReviewHandler) update(c *gin.Context, partial bool) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Update(c.Request.Context(), middleware.CurrentUser(c), titleID, reviewID,
		service.ReviewInput{Text: req.Text, Score: req.Score}, partial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(review))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), middleware.CurrentUser(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewPath(c *gin.Context) (titleID, reviewID uint, ok bool) {
	if titleID, ok = parseID(c, "title_id"); !ok {
		return 0, 0, false
	}
	if reviewID, ok = parseID(c, "review_id"); !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}
