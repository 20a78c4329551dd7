package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	titleService *service.TitleService
	pageSize     int
}

func NewTitleHandler(titleService *service.TitleService, pageSize int) *TitleHandler {
	return &TitleHandler{titleService: titleService, pageSize: pageSize}
}

// TitleRequest references category and genres by slug.
type TitleRequest struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

func (r TitleRequest) input() service.TitleInput {
	return service.TitleInput{
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		Category:    r.Category,
		Genre:       r.Genre,
	}
}

// List filters by ?name= (partial), ?year=, ?category= and ?genre= (slugs).
// GET /v1/titles/
func (h *TitleHandler) List(c *gin.Context) {
	filter := repository.TitleFilter{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, validation.FieldError("year", "enter a whole number"))
			return
		}
		filter.Year = &year
	}

	page, ok := pageFromQuery(c, h.pageSize)
	if !ok {
		return
	}
	titles, total, err := h.titleService.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range titles {
		titleResponse(&titles[i])
	}
	respondPage(c, page, total, titles)
}

// GET /v1/titles/:title_id/
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	title, err := h.titleService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, titleResponse(title))
}

// POST /v1/titles/
func (h *TitleHandler) Create(c *gin.Context) {
	var req TitleRequest
	if !bindJSON(c, &req) {
		return
	}
	title, err := h.titleService.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, titleResponse(title))
}

// PUT /v1/titles/:title_id/
func (h *TitleHandler) Replace(c *gin.Context) {
	h.update(c, false)
}

// PATCH /v1/titles/:title_id/
func (h *TitleHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *TitleHandler) update(c *gin.Context, partial bool) {
	id, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	var req TitleRequest
	if !bindJSON(c, &req) {
		return
	}
	title, err := h.titleService.Update(c.Request.Context(), id, req.input(), partial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, titleResponse(title))
}

// DELETE /v1/titles/:title_id/
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	if err := h.titleService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
