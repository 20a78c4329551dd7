package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService *service.CommentService
	pageSize       int
}

func NewCommentHandler(commentService *service.CommentService, pageSize int) *CommentHandler {
	return &CommentHandler{commentService: commentService, pageSize: pageSize}
}

type CommentRequest struct {
	Text *string `json:"text"`
}

// GET /v1/titles/:title_id/reviews/:review_id/comments/
func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c, h.pageSize)
	if !ok {
		return
	}
	comments, total, err := h.commentService.List(c.Request.Context(), titleID, reviewID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, mapSlice(comments, newCommentResponse))
}

// POST /v1/titles/:title_id/reviews/:review_id/comments/
func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.commentService.Create(c.Request.Context(), middleware.CurrentUser(c), titleID, reviewID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(comment))
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	comment, err := h.commentService.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

func (h *CommentHandler) Replace(c *gin.Context) {
	h.update(c, false)
}

func (h *CommentHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *CommentHandler) update(c *gin.Context, partial bool) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.commentService.Update(c.Request.Context(), middleware.CurrentUser(c),
		titleID, reviewID, commentID, req.Text, partial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	if err := h.commentService.Delete(c.Request.Context(), middleware.CurrentUser(c), titleID, reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func commentPath(c *gin.Context) (titleID, reviewID, commentID uint, ok bool) {
	if titleID, reviewID, ok = reviewPath(c); !ok {
		return 0, 0, 0, false
	}
	if commentID, ok = parseID(c, "comment_id"); !ok {
		return 0, 0, 0, false
	}
	return titleID, reviewID, commentID, true
}
