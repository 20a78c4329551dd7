package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/gin-gonic/gin"
)

// PageEnvelope is the body of every list response.
type PageEnvelope[T any] struct {
	Count    int64 `json:"count"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
	Results  []T   `json:"results"`
}

// pageFromQuery reads ?page= (1-based, default 1). It writes a 404 and
// returns false for anything that is not a positive integer.
func pageFromQuery(c *gin.Context, size int) (repository.Page, bool) {
	page := repository.Page{Number: 1, Size: size}
	raw := c.Query("page")
	if raw == "" {
		return page, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		notFound(c, "Invalid page.")
		return page, false
	}
	page.Number = n
	return page, true
}

// respondPage writes the envelope. Asking past the last page is a 404,
// except for page 1 of an empty list.
func respondPage[T any](c *gin.Context, page repository.Page, total int64, results []T) {
	if page.Number > 1 && int64(page.Offset()) >= total {
		notFound(c, "Invalid page.")
		return
	}
	if results == nil {
		results = []T{}
	}

	env := PageEnvelope[T]{Count: total, Results: results}
	if page.Size > 0 {
		if int64(page.Offset()+page.Size) < total {
			next := page.Number + 1
			env.Next = &next
		}
		if page.Number > 1 {
			prev := page.Number - 1
			env.Previous = &prev
		}
	}
	c.JSON(http.StatusOK, env)
}

// mapSlice converts each element with fn.
func mapSlice[S, T any](in []S, fn func(*S) T) []T {
	out := make([]T, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		notFound(c, "Not found.")
		return 0, false
	}
	return uint(id), true
}
