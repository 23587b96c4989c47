// Package mindflow is a server-rendered blog publishing platform built with
// Go, Echo, and templ. Public readers browse posts, categories, and search;
// an authenticated admin manages posts and categories through CRUD forms
// with image upload.
//
// Sites provide their own templ templates via the ViewFuncs struct and
// mindflow handles the handler logic, middleware, auth, and database
// operations.
package mindflow

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// App is the central mindflow application. It wires together the store,
// token codec, handlers, middleware, and user-provided templates.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Logger *logrus.Logger
	Views  ViewFuncs

	codec        *TokenCodec
	loginLimiter *LoginLimiter
}

// New creates a mindflow App from an explicit configuration object, an open
// store, and the site's view functions. Nothing here reads global state.
func New(cfg Config, store *Store, logger *logrus.Logger, views ViewFuncs) *App {
	views.setDefaults()
	a := &App{
		Config:       cfg,
		Echo:         echo.New(),
		Store:        store,
		Logger:       logger,
		Views:        views,
		codec:        NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		loginLimiter: NewLoginLimiter(5, time.Minute),
	}
	a.Echo.HideBanner = true
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/uploads", a.Config.Uploads.Dir)
	e.Static("/images", "public/images")
	e.Static("/public", "public")
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/", a.handleHome)
	e.GET("/articles", a.handleArticles)
	e.GET("/post/:id", a.handlePost)
	e.GET("/about", a.staticPage("about"))
	e.GET("/contact", a.staticPage("contact"))
	e.GET("/privacy", a.staticPage("privacy"))
	e.GET("/terms", a.staticPage("terms"))
	e.POST("/search", a.handleSearch)
	e.GET("/api/search-suggestions", a.handleSuggestions)
	e.GET("/category/:id", a.handleCategory)
	e.POST("/subscribe", a.handleSubscribe)

	// Auth routes
	e.GET("/auth/login", a.handleLoginPage)
	e.GET("/auth/register", a.handleRegisterPage)
	e.POST("/auth/register", a.handleRegister)
	e.POST("/auth/login", a.handleLogin)
	e.GET("/auth/logout", a.handleLogout)

	// Admin routes — every one of them sits behind the auth guard.
	// PUT/DELETE arrive tunnelled over POST via the _method override.
	admin := e.Group("/admin", RequireAuth(a.codec))
	admin.GET("/dashboard", a.handleDashboard)
	admin.GET("/add-post", a.handleAddPostForm)
	admin.POST("/add-post", a.handleAddPost)
	admin.GET("/edit-post/:id", a.handleEditPostForm)
	admin.PUT("/edit-post/:id", a.handleEditPost)
	admin.DELETE("/delete-post/:id", a.handleDeletePost)
	admin.GET("/categories", a.handleCategories)
	admin.POST("/add-category", a.handleAddCategory)
	admin.GET("/edit-category/:id", a.handleEditCategoryForm)
	admin.PUT("/edit-category/:id", a.handleEditCategory)
	admin.DELETE("/delete-category/:id", a.handleDeleteCategory)
}

// Start runs the HTTP server until Shutdown or a fatal error.
func (a *App) Start() error {
	if err := a.Echo.Start(a.Config.Server.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\n"
	return c.String(http.StatusOK, body)
}
