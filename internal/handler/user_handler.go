package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
	pageSize    int
}

func NewUserHandler(userService *service.UserService, pageSize int) *UserHandler {
	return &UserHandler{userService: userService, pageSize: pageSize}
}

type UserRequest struct {
	Username  *string      `json:"username"`
	Email     *string      `json:"email"`
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role"`
}

func (r UserRequest) patch() service.UserPatch {
	return service.UserPatch{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      r.Role,
	}
}

// List returns users, optionally filtered by ?search= on username.
// GET /v1/users/
func (h *UserHandler) List(c *gin.Context) {
	page, ok := pageFromQuery(c, h.pageSize)
	if !ok {
		return
	}
	users, total, err := h.userService.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, total, users)
}

// POST /v1/users/
func (h *UserHandler) Create(c *gin.Context) {
	var req UserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GET /v1/users/:username/
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /v1/users/:username/
func (h *UserHandler) Update(c *gin.Context) {
	var req UserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), c.Param("username"), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DELETE /v1/users/:username/
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/users/me/
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateMe edits the caller's own profile; the role cannot be changed here.
// PATCH /v1/users/me/
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.UpdateSelf(c.Request.Context(), middleware.CurrentUser(c), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
