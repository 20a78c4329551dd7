package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/validation"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the API error body for err. Unknown errors become a 500
// without leaking their text.
func respondError(c *gin.Context, err error) {
	var (
		verr     *validation.Error
		conflict *service.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"reason": "validation_error",
			"detail": "Invalid input.",
			"errors": verr.Fields,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusBadRequest, gin.H{
			"reason": conflict.Reason,
			"detail": conflict.Message,
			"errors": gin.H{conflict.Field: []string{conflict.Message}},
		})
	case errors.Is(err, service.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{
			"reason": "invalid_code",
			"detail": "Invalid confirmation code.",
			"errors": gin.H{"confirmation_code": []string{err.Error()}},
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{
			"reason": "not_authenticated",
			"detail": "Authentication credentials were not provided.",
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"reason": "permission_denied",
			"detail": "You do not have permission to perform this action.",
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"reason": "not_found",
			"detail": err.Error(),
		})
	default:
		logger.Log.Error("Unhandled request error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"reason": "internal_error",
			"detail": "Internal server error.",
		})
	}
}

func notFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, gin.H{
		"reason": "not_found",
		"detail": detail,
	})
}

// bindJSON decodes the body into dst. An empty body decodes as {}; a field of
// the wrong JSON type is reported against that field.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	logger.Log.Warn("Request parsing failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("ip", c.ClientIP()),
		zap.Error(err),
	)

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		respondError(c, validation.FieldError(typeErr.Field, expectedType(typeErr.Type)))
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"reason": "parse_error",
		"detail": "Invalid request body.",
	})
	return false
}

// expectedType names the JSON type a Go field accepts.
func expectedType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "expected a list"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "expected a number"
	case reflect.String:
		return "expected a string"
	case reflect.Bool:
		return "expected a boolean"
	default:
		return "expected an object"
	}
}
