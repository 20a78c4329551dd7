package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-gonic/gin"
)

// TaxonomyHandler serves /v1/categories/ and /v1/genres/.
type TaxonomyHandler[T repository.Taxonomy] struct {
	svc      *service.TaxonomyService[T]
	pageSize int
}

func NewTaxonomyHandler[T repository.Taxonomy](svc *service.TaxonomyService[T], pageSize int) *TaxonomyHandler[T] {
	return &TaxonomyHandler[T]{svc: svc, pageSize: pageSize}
}

type TaxonomyRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *TaxonomyHandler[T]) List(c *gin.Context) {
	page, ok := pageFromQuery(c, h.pageSize)
	if !ok {
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, items)
}

func (h *TaxonomyHandler[T]) Create(c *gin.Context) {
	var req TaxonomyRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *TaxonomyHandler[T]) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
