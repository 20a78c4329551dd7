package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

// SignUp registers the pair and mails a confirmation code.
// POST /v1/auth/signup/
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("Signup attempt",
		zap.String("username", req.Username),
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	user, err := h.authService.SignUp(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": user.Username,
		"email":    user.Email,
	})
}

// Token exchanges a confirmation code for an access token.
// POST /v1/auth/token/
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.authService.IssueToken(c.Request.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		logger.Log.Warn("Token request failed",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
