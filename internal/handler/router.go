package handler

import (
	"net/http"
	"time"

	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies is everything the router needs to serve /v1.
type Dependencies struct {
	JWTSecret    string
	PageSize     int
	CORSOrigins  []string
	IsProduction bool

	Users       middleware.UserLookup
	AuthLimiter middleware.Limiter // nil disables throttling of /v1/auth

	Auth       *service.AuthService
	UserSvc    *service.UserService
	Categories *service.CategoryService
	Genres     *service.GenreService
	Titles     *service.TitleService
	Reviews    *service.ReviewService
	Comments   *service.CommentService
}

// SetupRouter builds the engine. Unsupported methods on a known path answer
// 405, unknown paths 404, both in the API error format.
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.SecurityHeaders(), middleware.HSTS(deps.IsProduction))
	if handler := corsMiddleware(deps.CORSOrigins); handler != nil {
		router.Use(handler)
	}

	router.NoRoute(func(c *gin.Context) {
		notFound(c, "Not found.")
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"reason": "method_not_allowed",
			"detail": "Method \"" + c.Request.Method + "\" not allowed.",
		})
	})

	authHandler := NewAuthHandler(deps.Auth)
	userHandler := NewUserHandler(deps.UserSvc, deps.PageSize)
	categoryHandler := NewTaxonomyHandler(deps.Categories, deps.PageSize)
	genreHandler := NewTaxonomyHandler(deps.Genres, deps.PageSize)
	titleHandler := NewTitleHandler(deps.Titles, deps.PageSize)
	reviewHandler := NewReviewHandler(deps.Reviews, deps.PageSize)
	commentHandler := NewCommentHandler(deps.Comments, deps.PageSize)

	v1 := router.Group("/v1")
	v1.Use(middleware.Authenticate(deps.JWTSecret, deps.Users))

	// Public routes
	auth := v1.Group("/auth")
	if deps.AuthLimiter != nil {
		auth.Use(middleware.RateLimit(deps.AuthLimiter))
	}
	{
		auth.POST("/signup/", authHandler.SignUp)
		auth.POST("/token/", authHandler.Token)
	}

	// Users: the caller's own profile, everything else is admin only
	me := v1.Group("/users/me", middleware.RequireAuth())
	{
		me.GET("/", userHandler.Me)
		me.PATCH("/", userHandler.UpdateMe)
	}
	users := v1.Group("/users", middleware.RequireAdmin())
	{
		users.GET("/", userHandler.List)
		users.POST("/", userHandler.Create)
		users.GET("/:username/", userHandler.Get)
		users.PATCH("/:username/", userHandler.Update)
		users.DELETE("/:username/", userHandler.Delete)
	}

	// Catalog: anyone reads, admins write
	catalog := v1.Group("", middleware.AdminOrReadOnly())
	{
		catalog.GET("/categories/", categoryHandler.List)
		catalog.POST("/categories/", categoryHandler.Create)
		catalog.DELETE("/categories/:slug/", categoryHandler.Delete)

		catalog.GET("/genres/", genreHandler.List)
		catalog.POST("/genres/", genreHandler.Create)
		catalog.DELETE("/genres/:slug/", genreHandler.Delete)

		catalog.GET("/titles/", titleHandler.List)
		catalog.POST("/titles/", titleHandler.Create)
		catalog.GET("/titles/:title_id/", titleHandler.Get)
		catalog.PUT("/titles/:title_id/", titleHandler.Replace)
		catalog.PATCH("/titles/:title_id/", titleHandler.Patch)
		catalog.DELETE("/titles/:title_id/", titleHandler.Delete)
	}

	// Reviews and comments: anyone reads, signed-in users write, the
	// service checks authorship
	reviews := v1.Group("/titles/:title_id/reviews", middleware.AuthenticatedOrReadOnly())
	{
		reviews.GET("/", reviewHandler.List)
		reviews.POST("/", reviewHandler.Create)
		reviews.GET("/:review_id/", reviewHandler.Get)
		reviews.PUT("/:review_id/", reviewHandler.Replace)
		reviews.PATCH("/:review_id/", reviewHandler.Patch)
		reviews.DELETE("/:review_id/", reviewHandler.Delete)

		reviews.GET("/:review_id/comments/", commentHandler.List)
		reviews.POST("/:review_id/comments/", commentHandler.Create)
		reviews.GET("/:review_id/comments/:comment_id/", commentHandler.Get)
		reviews.PUT("/:review_id/comments/:comment_id/", commentHandler.Replace)
		reviews.PATCH("/:review_id/comments/:comment_id/", commentHandler.Patch)
		reviews.DELETE("/:review_id/comments/:comment_id/", commentHandler.Delete)
	}

	return router
}

// corsMiddleware returns nil when no origin is configured. "*" allows any origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
