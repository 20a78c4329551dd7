package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

type stubUsers map[uint]*models.User

func (s stubUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	return s[id], nil
}

func newAuthRouter(users stubUsers, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Authenticate(testSecret, users))
	handlers := append(guards, func(c *gin.Context) {
		name := "anonymous"
		if user := CurrentUser(c); user != nil {
			name = user.Username
		}
		c.JSON(http.StatusOK, gin.H{"user": name})
	})
	router.GET("/r", handlers...)
	router.POST("/r", handlers...)
	return router
}

func tokenFor(t *testing.T, user *models.User) string {
	token, err := utils.GenerateToken(user, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func send(router *gin.Engine, method, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/r", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice", Role: models.RoleUser}
	router := newAuthRouter(stubUsers{1: alice})

	w := send(router, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	w = send(router, http.MethodGet, "Bearer "+tokenFor(t, alice))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")

	w = send(router, http.MethodGet, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(router, http.MethodGet, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"reason":"not_authenticated"`)

	// Valid signature, but the user no longer exists.
	ghost := &models.User{ID: 99, Username: "ghost", Role: models.RoleUser}
	w = send(router, http.MethodGet, "Bearer "+tokenFor(t, ghost))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOrReadOnly(t *testing.T) {
	user := &models.User{ID: 1, Username: "user", Role: models.RoleUser}
	moderator := &models.User{ID: 2, Username: "mod", Role: models.RoleModerator}
	admin := &models.User{ID: 3, Username: "admin", Role: models.RoleAdmin}
	superuser := &models.User{ID: 4, Username: "root", Role: models.RoleUser, IsSuperuser: true}
	router := newAuthRouter(stubUsers{1: user, 2: moderator, 3: admin, 4: superuser}, AdminOrReadOnly())

	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(router, http.MethodPost, "").Code)
	assert.Equal(t, http.StatusForbidden, send(router, http.MethodPost, "Bearer "+tokenFor(t, user)).Code)
	assert.Equal(t, http.StatusForbidden, send(router, http.MethodPost, "Bearer "+tokenFor(t, moderator)).Code)
	assert.Equal(t, http.StatusOK, send(router, http.MethodPost, "Bearer "+tokenFor(t, admin)).Code)
	assert.Equal(t, http.StatusOK, send(router, http.MethodPost, "Bearer "+tokenFor(t, superuser)).Code)
}

func TestAuthenticatedOrReadOnly(t *testing.T) {
	user := &models.User{ID: 1, Username: "user", Role: models.RoleUser}
	router := newAuthRouter(stubUsers{1: user}, AuthenticatedOrReadOnly())

	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(router, http.MethodPost, "").Code)
	assert.Equal(t, http.StatusOK, send(router, http.MethodPost, "Bearer "+tokenFor(t, user)).Code)
}

func TestRequireAuthAndAdmin(t *testing.T) {
	user := &models.User{ID: 1, Username: "user", Role: models.RoleUser}
	users := stubUsers{1: user}

	router := newAuthRouter(users, RequireAuth())
	assert.Equal(t, http.StatusUnauthorized, send(router, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "Bearer "+tokenFor(t, user)).Code)

	router = newAuthRouter(users, RequireAdmin())
	assert.Equal(t, http.StatusUnauthorized, send(router, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusForbidden, send(router, http.MethodGet, "Bearer "+tokenFor(t, user)).Code)
}

func TestRequestLoggerSetsID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(), SecurityHeaders(), HSTS(true))
	router.GET("/r", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := send(router, http.MethodGet, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/r", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
