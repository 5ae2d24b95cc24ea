package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"ourcity/internal/config"
	"ourcity/internal/handlers"
	"ourcity/internal/logger"
	"ourcity/internal/middleware"
	"ourcity/internal/services"
	"ourcity/internal/utils"
)

const sessionMaxAge = 7 * 24 * time.Hour

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Post          *handlers.PostHandler
	Comment       *handlers.CommentHandler
	Tag           *handlers.TagHandler
	User          *handlers.UserHandler
	Admin         *handlers.AdminHandler
	Analytics     *handlers.AnalyticsHandler
	Authorization *handlers.AuthorizationHandler
}

// New wires services over store and returns the ready engine. cache backs
// the tag list and the analytics answers.
func New(cfg *config.Config, store services.Store, cache *utils.TTLCache) *gin.Engine {
	auth := services.NewAuthService(store)
	posts := services.NewPostService(store, cfg)
	users := services.NewUserService(store)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(logger.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProd(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cfg.SessionName, sessionStore))
	r.Use(middleware.LoadUser(auth))

	RegisterRoutes(r, Handlers{
		Auth:          handlers.NewAuthHandler(auth),
		Post:          handlers.NewPostHandler(posts),
		Comment:       handlers.NewCommentHandler(services.NewCommentService(store)),
		Tag:           handlers.NewTagHandler(services.NewTagService(store, cache)),
		User:          handlers.NewUserHandler(users),
		Admin:         handlers.NewAdminHandler(users, posts),
		Analytics:     handlers.NewAnalyticsHandler(services.NewAnalyticsService(store, cache)),
		Authorization: handlers.NewAuthorizationHandler(posts),
	})
	return r
}

func RegisterRoutes(r gin.IRouter, h Handlers) {
	// Public routes
	r.POST("/authentication/register", h.Auth.Register)
	r.POST("/authentication/login", h.Auth.Login)
	r.POST("/authentication/logout", h.Auth.Logout)
	r.GET("/authentication/me", h.Auth.Me)

	r.GET("/posts", h.Post.List)
	r.GET("/posts/:id", h.Post.Get)
	r.GET("/posts/:id/comments", h.Comment.List)
	r.GET("/tags", h.Tag.List)
	r.GET("/users", h.User.List)
	r.GET("/users/:username", h.User.Get)

	r.GET("/authorization/can-create-posts", h.Authorization.CanCreatePosts)
	r.GET("/authorization/can-mutate-post/:id", h.Authorization.CanMutatePost)

	// Signed-in routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", h.Post.Create)
		authorized.GET("/posts/bookmarks", h.Post.Bookmarks)
		authorized.PUT("/posts/:id", h.Post.Update)
		authorized.DELETE("/posts/:id", h.Post.Delete)
		authorized.PUT("/posts/:id/votes", h.Post.Vote)
		authorized.PUT("/posts/:id/bookmarks", h.Post.Bookmark)
		authorized.POST("/posts/:id/comments", h.Comment.Create)

		authorized.PUT("/comments/:id", h.Comment.Update)
		authorized.DELETE("/comments/:id", h.Comment.Delete)
		authorized.PUT("/comments/:id/votes", h.Comment.Vote)

		authorized.PUT("/users/:username", h.User.Update)
		authorized.DELETE("/users/:username", h.User.Delete)
		authorized.PUT("/users/:username/reports", h.User.Report)
	}

	// Admin routes
	admin := r.Group("/")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.PUT("/users/:username/ban", h.Admin.Ban)
		admin.PUT("/users/:username/unban", h.Admin.Unban)
		admin.PUT("/users/:username/promote-to-admin", h.Admin.Promote)
		admin.PUT("/admin/posts/:id/visibility", h.Admin.SetPostVisibility)

		admin.GET("/analytics/summary", h.Analytics.Summary)
		admin.GET("/analytics/time-series", h.Analytics.TimeSeries)
		admin.GET("/analytics/tag-breakdown", h.Analytics.TagBreakdown)
	}
}
