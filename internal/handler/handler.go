package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"blog_service/internal/config"
	"blog_service/internal/middleware"
	"blog_service/internal/observability"
	"blog_service/internal/post"
	"blog_service/internal/session"
	"blog_service/internal/user"
	"blog_service/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies is everything the HTTP layer needs; nothing is global.
type Dependencies struct {
	DB       *sql.DB
	Sessions session.Store
	Events   post.EventPublisher
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Config   *config.Config
}

// SetupHandler initializes all dependencies and routes
func SetupHandler(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(web.Templates())

	r.Use(gin.Logger(), gin.Recovery())
	if deps.Metrics != nil {
		r.Use(middleware.PrometheusMiddleware(deps.Metrics))
	}

	// Initialize repositories
	userRepo := user.NewUserRepository()
	postRepo := post.NewPostRepository()

	// Initialize services
	userService := user.NewUserService(userRepo, deps.DB)
	postService := post.NewPostService(postRepo, deps.DB, deps.Events)

	manager := session.NewManager(deps.Sessions, deps.Config.SecretKey, deps.Config.Session.TTL)
	cookie := session.Cookie{
		Name:   deps.Config.Session.CookieName,
		Secure: deps.Config.Session.Secure,
	}

	// Initialize controllers
	userController := user.NewUserController(userService, manager, cookie, deps.Metrics)
	postController := post.NewPostController(postService, deps.Metrics)

	r.Use(web.LoadFlashes())
	r.Use(middleware.LoadIdentity(manager, userService, cookie))

	setupRoutes(r, userController, postController)
	setupOps(r, deps)

	r.NoRoute(web.NotFound)
	r.NoMethod(web.MethodNotAllowed)

	return r
}

// setupRoutes configures all application routes
func setupRoutes(r *gin.Engine, userCtrl *user.UserController, postCtrl *post.PostController) {
	// Public routes
	r.GET("/", postCtrl.Index)
	r.GET("/posts", postCtrl.Index)
	r.GET("/:id", postCtrl.Show)

	r.GET("/register", userCtrl.ShowRegister)
	r.POST("/register", userCtrl.Register)
	r.GET("/login", userCtrl.ShowLogin)
	r.POST("/login", userCtrl.Login)
	r.POST("/logout", userCtrl.Logout)
	// Without this GET /logout would fall through to /:id.
	r.GET("/logout", func(c *gin.Context) {
		c.Header("Allow", http.MethodPost)
		web.MethodNotAllowed(c)
	})

	// Routes that need a logged-in user
	protected := r.Group("/")
	protected.Use(middleware.RequireAuthenticated())
	{
		protected.GET("/create", postCtrl.ShowCreate)
		protected.POST("/create", postCtrl.Create)
		protected.GET("/user/posts", postCtrl.MyPosts)
		protected.GET("/posts/edit/:id", postCtrl.ShowEdit)
		protected.POST("/posts/edit/:id", postCtrl.Update)
		protected.POST("/posts/delete/:id", postCtrl.Delete)
	}
}

// setupOps exposes /metrics and /healthz
func setupOps(r *gin.Engine, deps Dependencies) {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metricsHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	r.GET("/metrics", func(c *gin.Context) {
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := deps.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})
}
